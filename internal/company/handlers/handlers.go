package handlers

import (
	"context"
	"net/http"

	"github.com/gartstein/companyconsole/internal/company/models"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CompanyController defines the business logic interface
// that the HTTP handlers will invoke.
type CompanyController interface {
	ListCompanies(ctx context.Context) ([]models.Company, error)
	CreateCompany(ctx context.Context, payload models.CompanyCreate) (*models.Company, error)
	GetCompany(ctx context.Context, id string) (*models.Company, error)
	UpdateCompany(ctx context.Context, id string, update models.CompanyUpdate) (*models.Company, error)
	DeleteCompany(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// CompanyHandler serves the /companies routes.
type CompanyHandler struct {
	service CompanyController
	logger  *zap.Logger
}

// NewCompanyHandler constructs a new CompanyHandler with the given service and logger.
func NewCompanyHandler(service CompanyController, logger *zap.Logger) *CompanyHandler {
	return &CompanyHandler{
		service: service,
		logger:  logger.Named("http_handler"),
	}
}

// Register mounts the routes on e.
func (h *CompanyHandler) Register(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	e.GET("/companies", h.ListCompanies)
	e.POST("/companies", h.CreateCompany)
	e.GET("/companies/:id", h.GetCompany)
	e.PATCH("/companies/:id", h.UpdateCompany)
	e.DELETE("/companies/:id", h.DeleteCompany)
}

func (h *CompanyHandler) Health(c echo.Context) error {
	if err := h.service.Ping(c.Request().Context()); err != nil {
		h.logger.Warn("Health check failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (h *CompanyHandler) ListCompanies(c echo.Context) error {
	companies, err := h.service.ListCompanies(c.Request().Context())
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(http.StatusOK, companies)
}

func (h *CompanyHandler) CreateCompany(c echo.Context) error {
	var payload models.CompanyCreate
	if err := c.Bind(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, newErrorResponse(http.StatusBadRequest, "malformed request body"))
	}

	created, err := h.service.CreateCompany(c.Request().Context(), payload)
	if err != nil {
		return h.serviceError(c, err)
	}
	h.logger.Info("Company created", zap.String("company_id", created.ID))
	return c.JSON(http.StatusCreated, created)
}

func (h *CompanyHandler) GetCompany(c echo.Context) error {
	company, err := h.service.GetCompany(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(http.StatusOK, company)
}

func (h *CompanyHandler) UpdateCompany(c echo.Context) error {
	var update models.CompanyUpdate
	if err := c.Bind(&update); err != nil {
		return c.JSON(http.StatusBadRequest, newErrorResponse(http.StatusBadRequest, "malformed request body"))
	}

	updated, err := h.service.UpdateCompany(c.Request().Context(), c.Param("id"), update)
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *CompanyHandler) DeleteCompany(c echo.Context) error {
	if err := h.service.DeleteCompany(c.Request().Context(), c.Param("id")); err != nil {
		return h.serviceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
