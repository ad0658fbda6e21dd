// Package gateway is the HTTP client for the remote companies endpoint.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	e "github.com/gartstein/companyconsole/internal/company/errors"
	"github.com/gartstein/companyconsole/internal/company/models"
	"go.uber.org/zap"
)

const companiesPath = "/companies"

// Client is an HTTP client for the companies endpoint. It never retries and
// never recovers errors: every failure is returned to the caller as a
// *errors.TransportError, *errors.RemoteError or *errors.ValidationError.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string // optional bearer token
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger.Named("gateway")
	}
}

// New creates a gateway client for the endpoint at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List returns the whole collection.
func (c *Client) List(ctx context.Context) ([]models.Company, error) {
	const op = "list companies"

	resp, err := c.get(ctx, companiesPath)
	if err != nil {
		return nil, c.transportError(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp, "failed to list companies")
	}

	var list []models.Company
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, c.transportError(op, err)
	}
	if list == nil {
		list = []models.Company{}
	}
	return list, nil
}

// Create creates a record and returns it with its server-assigned fields.
func (c *Client) Create(ctx context.Context, payload models.CompanyCreate) (*models.Company, error) {
	const op = "create company"

	if err := models.Validate(payload); err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, http.MethodPost, companiesPath, payload)
	if err != nil {
		return nil, c.transportError(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp, "failed to create company")
	}
	return c.decodeCompany(op, resp.Body)
}

// Update applies a partial update to the record id. Nil fields of payload are
// not sent and stay unchanged.
func (c *Client) Update(ctx context.Context, id string, payload models.CompanyUpdate) (*models.Company, error) {
	const op = "update company"

	if err := models.ValidateID(id); err != nil {
		return nil, err
	}
	if err := models.Validate(payload); err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, http.MethodPatch, companiesPath+"/"+url.PathEscape(id), payload)
	if err != nil {
		return nil, c.transportError(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp, "failed to update company")
	}
	return c.decodeCompany(op, resp.Body)
}

// Remove deletes the record id.
func (c *Client) Remove(ctx context.Context, id string) error {
	const op = "delete company"

	if err := models.ValidateID(id); err != nil {
		return err
	}

	resp, err := c.delete(ctx, companiesPath+"/"+url.PathEscape(id))
	if err != nil {
		return c.transportError(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return c.parseError(resp, "failed to delete company")
	}
	return nil
}

func (c *Client) decodeCompany(op string, body io.Reader) (*models.Company, error) {
	var company models.Company
	if err := json.NewDecoder(body).Decode(&company); err != nil {
		return nil, c.transportError(op, err)
	}
	return &company, nil
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) delete(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.logger.Debug("request", zap.String("method", req.Method), zap.String("url", req.URL.String()))
	return c.httpClient.Do(req)
}

func (c *Client) transportError(op string, err error) error {
	c.logger.Warn("transport failure", zap.String("op", op), zap.Error(err))
	return &e.TransportError{Op: op, Err: err}
}

// errorBody is the error envelope of the endpoint. Message is either a
// string or, for validation failures, a list of strings.
type errorBody struct {
	Message json.RawMessage `json:"message"`
}

func (c *Client) parseError(resp *http.Response, fallback string) error {
	body, _ := io.ReadAll(resp.Body)

	msg := fallback
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		if m := decodeMessage(eb.Message); m != "" {
			msg = m
		}
	}

	c.logger.Debug("remote rejected request",
		zap.Int("status", resp.StatusCode),
		zap.String("message", msg),
	)
	return &e.RemoteError{StatusCode: resp.StatusCode, Message: msg}
}

func decodeMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		return strings.Join(list, "; ")
	}
	return ""
}
