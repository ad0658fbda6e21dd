// Package controller exposes the companies collection to the presentation
// layer: a read subscription over the cached list and one mutation handle
// per write operation, all sharing a single cache.
package controller

import (
	"context"
	"fmt"
	"time"

	e "github.com/gartstein/companyconsole/internal/company/errors"
	"github.com/gartstein/companyconsole/internal/company/models"
	"github.com/gartstein/companyconsole/internal/console/cache"
	"github.com/gartstein/companyconsole/internal/console/mutation"
	"github.com/gartstein/companyconsole/internal/console/query"
	"go.uber.org/zap"
)

// CompaniesKey is the cache key of the companies collection.
const CompaniesKey cache.Key = "companies"

// Gateway is the remote endpoint the console reads from and writes to.
type Gateway interface {
	List(ctx context.Context) ([]models.Company, error)
	Create(ctx context.Context, payload models.CompanyCreate) (*models.Company, error)
	Update(ctx context.Context, id string, payload models.CompanyUpdate) (*models.Company, error)
	Remove(ctx context.Context, id string) error
}

// UpdateInput is the input of the update mutation.
type UpdateInput struct {
	ID      string
	Payload models.CompanyUpdate
}

// CompaniesState is what a list view renders.
type CompaniesState struct {
	Companies []models.Company
	IsLoading bool
	Err       error
	// Stale is set while a refetch of invalidated data is pending.
	Stale bool
}

func stateFromSnapshot(s cache.Snapshot[[]models.Company]) CompaniesState {
	return CompaniesState{
		Companies: s.Data,
		IsLoading: s.IsLoading(),
		Err:       s.Err,
		Stale:     s.Stale,
	}
}

type (
	CreateMutation = mutation.Mutation[models.CompanyCreate, *models.Company]
	UpdateMutation = mutation.Mutation[UpdateInput, *models.Company]
	DeleteMutation = mutation.Mutation[string, struct{}]
)

// Option configures a CompanyConsole.
type Option func(*options)

type options struct {
	staleTime time.Duration
	gcTime    time.Duration
}

// WithStaleTime sets how long a fetched list counts as fresh. Zero keeps it
// fresh until a mutation invalidates it.
func WithStaleTime(d time.Duration) Option {
	return func(o *options) {
		o.staleTime = d
	}
}

// WithGCTime sets how long an unobserved list stays cached.
func WithGCTime(d time.Duration) Option {
	return func(o *options) {
		o.gcTime = d
	}
}

// CompanyConsole owns the companies cache for the lifetime of the process.
type CompanyConsole struct {
	gw      Gateway
	cache   *cache.Cache[[]models.Company]
	queries *query.Client[[]models.Company]
	logger  *zap.Logger
}

func NewCompanyConsole(gw Gateway, logger *zap.Logger, opts ...Option) *CompanyConsole {
	o := options{gcTime: cache.DefaultGCTime}
	for _, opt := range opts {
		opt(&o)
	}

	c := cache.New[[]models.Company](logger, cache.WithGCTime(o.gcTime))
	return &CompanyConsole{
		gw:      gw,
		cache:   c,
		queries: query.New(c, logger, query.WithStaleTime(o.staleTime)),
		logger:  logger.Named("company_console"),
	}
}

// Companies subscribes listener to the collection and fetches it when the
// cached copy is missing, stale or failed. The listener receives every state
// change until the subscription is released.
func (c *CompanyConsole) Companies(listener func(CompaniesState)) *query.Subscription[[]models.Company] {
	var l cache.Listener[[]models.Company]
	if listener != nil {
		l = func(s cache.Snapshot[[]models.Company]) {
			listener(stateFromSnapshot(s))
		}
	}
	return c.queries.EnsureFresh(CompaniesKey, c.gw.List, l)
}

// ListCompanies returns the collection, from the cache when it is fresh.
func (c *CompanyConsole) ListCompanies(ctx context.Context) ([]models.Company, error) {
	return c.queries.Fetch(ctx, CompaniesKey, c.gw.List)
}

// Company looks a record up in the cached collection. The endpoint has no
// per-record read, so a missing id is reported as errors.ErrNotFound.
func (c *CompanyConsole) Company(ctx context.Context, id string) (models.Company, error) {
	if err := models.ValidateID(id); err != nil {
		return models.Company{}, err
	}

	list, err := c.ListCompanies(ctx)
	if err != nil {
		return models.Company{}, err
	}

	company, ok := models.ByID(list, id)
	if !ok {
		return models.Company{}, fmt.Errorf("company %q: %w", id, e.ErrNotFound)
	}
	return company, nil
}

// CreateCompany returns a new create handle.
func (c *CompanyConsole) CreateCompany(listener mutation.Listener[*models.Company]) *CreateMutation {
	return mutation.New(mutation.Config[models.CompanyCreate, *models.Company]{
		Name:        "create_company",
		Fn:          c.gw.Create,
		Validate:    func(p models.CompanyCreate) error { return models.Validate(p) },
		Invalidates: []cache.Key{CompaniesKey},
		Listener:    listener,
		OnSuccess: func(_ context.Context, _ models.CompanyCreate, created *models.Company) {
			c.logger.Info("company created", zap.String("id", created.ID))
		},
	}, c.queries, c.logger)
}

// UpdateCompany returns a new update handle.
func (c *CompanyConsole) UpdateCompany(listener mutation.Listener[*models.Company]) *UpdateMutation {
	return mutation.New(mutation.Config[UpdateInput, *models.Company]{
		Name: "update_company",
		Fn: func(ctx context.Context, in UpdateInput) (*models.Company, error) {
			return c.gw.Update(ctx, in.ID, in.Payload)
		},
		Validate: func(in UpdateInput) error {
			if err := models.ValidateID(in.ID); err != nil {
				return err
			}
			return models.Validate(in.Payload)
		},
		Invalidates: []cache.Key{CompaniesKey},
		Listener:    listener,
		OnSuccess: func(_ context.Context, in UpdateInput, _ *models.Company) {
			c.logger.Info("company updated", zap.String("id", in.ID))
		},
	}, c.queries, c.logger)
}

// DeleteCompany returns a new delete handle. Its input is the record id.
func (c *CompanyConsole) DeleteCompany(listener mutation.Listener[struct{}]) *DeleteMutation {
	return mutation.New(mutation.Config[string, struct{}]{
		Name: "delete_company",
		Fn: func(ctx context.Context, id string) (struct{}, error) {
			return struct{}{}, c.gw.Remove(ctx, id)
		},
		Validate:    models.ValidateID,
		Invalidates: []cache.Key{CompaniesKey},
		Listener:    listener,
		OnSuccess: func(_ context.Context, id string, _ struct{}) {
			c.logger.Info("company deleted", zap.String("id", id))
		},
	}, c.queries, c.logger)
}

// Invalidate marks the cached collection stale, refetching it when observed.
func (c *CompanyConsole) Invalidate() {
	c.queries.Invalidate(CompaniesKey)
}

// Snapshot returns the current cached state of the collection without
// triggering a fetch.
func (c *CompanyConsole) Snapshot() CompaniesState {
	s, _ := c.cache.Get(CompaniesKey)
	return stateFromSnapshot(s)
}

// Close cancels in-flight fetches and drops the cache.
func (c *CompanyConsole) Close() {
	c.queries.Close()
}
