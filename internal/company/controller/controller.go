// Package controller implements the core business logic (service layer)
// for managing Company records, orchestrating repository operations
// and sending relevant events.
package controller

import (
	"context"
	"errors"
	"fmt"

	dbmodels "github.com/gartstein/companyconsole/internal/company/db/models"
	e "github.com/gartstein/companyconsole/internal/company/errors"
	"github.com/gartstein/companyconsole/internal/company/events"
	"github.com/gartstein/companyconsole/internal/company/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EventProducer interface {
	Produce(eventType events.EventType, company models.Company)
}

// Repository defines the storage interface for Company rows.
type Repository interface {
	ListCompanies(ctx context.Context) ([]dbmodels.Company, error)
	CreateCompany(ctx context.Context, company *dbmodels.Company) error
	GetCompany(ctx context.Context, id string) (*dbmodels.Company, error)
	UpdateCompany(ctx context.Context, id string, fields map[string]any) error
	DeleteCompany(ctx context.Context, id string) error
	CompanyExistsByDocument(ctx context.Context, document, excludeID string) (bool, error)
	Ping(ctx context.Context) error
}

// CompanyService provides methods to manage companies via repository
// operations and event production.
type CompanyService struct {
	repo     Repository
	producer EventProducer
	logger   *zap.Logger
}

// NewCompanyService constructs a CompanyService with a repository,
// an event producer, and a logger.
func NewCompanyService(repo Repository, producer EventProducer, logger *zap.Logger) *CompanyService {
	return &CompanyService{
		repo:     repo,
		producer: producer,
		logger:   logger.Named("company_service"),
	}
}

// ListCompanies returns every company, oldest first.
func (s *CompanyService) ListCompanies(ctx context.Context) ([]models.Company, error) {
	rows, err := s.repo.ListCompanies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}

	out := make([]models.Company, 0, len(rows))
	for i := range rows {
		out = append(out, rowToModel(&rows[i]))
	}
	return out, nil
}

// CreateCompany adds a new Company after validating input data,
// ensures uniqueness by checking the document, and triggers an event.
func (s *CompanyService) CreateCompany(ctx context.Context, payload models.CompanyCreate) (*models.Company, error) {
	if err := models.Validate(payload); err != nil {
		return nil, err
	}

	exists, err := s.repo.CompanyExistsByDocument(ctx, payload.Document, "")
	if err != nil {
		return nil, fmt.Errorf("failed to check document existence: %w", err)
	}
	if exists {
		return nil, e.ErrDuplicateDocument
	}

	row := &dbmodels.Company{
		ID:       uuid.NewString(),
		Name:     payload.Name,
		Document: payload.Document,
		Address:  payload.Address,
		IsActive: true,
	}
	if payload.IsActive != nil {
		row.IsActive = *payload.IsActive
	}

	if err := s.repo.CreateCompany(ctx, row); err != nil {
		if errors.Is(err, e.ErrDuplicateDocument) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create company: %w", err)
	}

	created := rowToModel(row)
	go func() {
		s.producer.Produce(events.CompanyCreated, created)
	}()
	return &created, nil
}

// GetCompany retrieves a Company by ID, returning an error if not found.
func (s *CompanyService) GetCompany(ctx context.Context, id string) (*models.Company, error) {
	if err := models.ValidateID(id); err != nil {
		return nil, err
	}

	row, err := s.repo.GetCompany(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	company := rowToModel(row)
	return &company, nil
}

// UpdateCompany applies the non-nil fields of update,
// then fetches the updated version for returning and event production.
func (s *CompanyService) UpdateCompany(ctx context.Context, id string, update models.CompanyUpdate) (*models.Company, error) {
	if err := models.ValidateID(id); err != nil {
		return nil, err
	}
	if err := models.Validate(update); err != nil {
		return nil, err
	}

	if update.Document != nil {
		exists, err := s.repo.CompanyExistsByDocument(ctx, *update.Document, id)
		if err != nil {
			return nil, fmt.Errorf("failed to check document existence: %w", err)
		}
		if exists {
			return nil, e.ErrDuplicateDocument
		}
	}

	if fields := updateFields(update); len(fields) > 0 {
		if err := s.repo.UpdateCompany(ctx, id, fields); err != nil {
			if errors.Is(err, e.ErrNotFound) || errors.Is(err, e.ErrDuplicateDocument) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to update company: %w", err)
		}
	}

	row, err := s.repo.GetCompany(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("Failed to get company for event",
			zap.Error(err),
			zap.String("company_id", id),
		)
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	updated := rowToModel(row)
	go func() {
		s.producer.Produce(events.CompanyUpdated, updated)
	}()
	return &updated, nil
}

// DeleteCompany removes a Company by ID and fires a deletion event.
func (s *CompanyService) DeleteCompany(ctx context.Context, id string) error {
	if err := models.ValidateID(id); err != nil {
		return err
	}

	row, err := s.repo.GetCompany(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to get company for deletion: %w", err)
	}

	if err := s.repo.DeleteCompany(ctx, id); err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete company: %w", err)
	}

	deleted := rowToModel(row)
	go func() {
		s.producer.Produce(events.CompanyDeleted, deleted)
	}()
	return nil
}

// Ping checks that the database is reachable.
func (s *CompanyService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
