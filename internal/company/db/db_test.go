package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/gartstein/companyconsole/internal/company/db/models"
	e "github.com/gartstein/companyconsole/internal/company/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SetupTestDB opens a throwaway SQLite database for testing.
func SetupTestDB(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(&Config{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "companies.db"),
	})
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func newCompany(name, document string) *models.Company {
	return &models.Company{
		ID:       uuid.NewString(),
		Name:     name,
		Document: document,
		IsActive: true,
	}
}

func TestNewRepository_UnsupportedDriver(t *testing.T) {
	_, err := NewRepository(&Config{Driver: "mysql"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestCreateAndGetCompany(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := newCompany("Acme", "123")
	require.NoError(t, repo.CreateCompany(ctx, company))
	assert.False(t, company.CreatedAt.IsZero(), "CreatedAt should be set by gorm")

	retrieved, err := repo.GetCompany(ctx, company.ID)
	require.NoError(t, err)
	assert.Equal(t, company.Name, retrieved.Name)
	assert.Equal(t, company.Document, retrieved.Document)
	assert.True(t, retrieved.IsActive)
}

func TestCreateCompany_DuplicateDocument(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateCompany(ctx, newCompany("Acme", "123")))

	err := repo.CreateCompany(ctx, newCompany("Other", "123"))
	assert.ErrorIs(t, err, e.ErrDuplicateDocument)
}

func TestGetCompanyNotFound(t *testing.T) {
	repo := SetupTestDB(t)

	_, err := repo.GetCompany(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestListCompanies(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	list, err := repo.ListCompanies(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	first := newCompany("First", "1")
	first.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	second := newCompany("Second", "2")
	second.CreatedAt = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateCompany(ctx, second))
	require.NoError(t, repo.CreateCompany(ctx, first))

	list, err = repo.ListCompanies(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "First", list[0].Name)
	assert.Equal(t, "Second", list[1].Name)
}

func TestUpdateCompany(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := newCompany("Old Name", "123")
	require.NoError(t, repo.CreateCompany(ctx, company))

	err := repo.UpdateCompany(ctx, company.ID, map[string]any{
		"name":      "New Name",
		"is_active": false,
	})
	require.NoError(t, err)

	updated, err := repo.GetCompany(ctx, company.ID)
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.False(t, updated.IsActive, "zero values must be written")
	assert.Equal(t, "123", updated.Document, "untouched columns keep their value")
}

func TestUpdateCompanyNotFound(t *testing.T) {
	repo := SetupTestDB(t)

	err := repo.UpdateCompany(context.Background(), uuid.NewString(), map[string]any{"name": "x"})
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestDeleteCompany(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := newCompany("To Be Deleted", "123")
	require.NoError(t, repo.CreateCompany(ctx, company))

	require.NoError(t, repo.DeleteCompany(ctx, company.ID))

	_, err := repo.GetCompany(ctx, company.ID)
	assert.ErrorIs(t, err, e.ErrNotFound)

	// The document is free again.
	assert.NoError(t, repo.CreateCompany(ctx, newCompany("Again", "123")))
}

func TestDeleteCompanyNotFound(t *testing.T) {
	repo := SetupTestDB(t)

	err := repo.DeleteCompany(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestCompanyExistsByDocument(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	exists, err := repo.CompanyExistsByDocument(ctx, "123", "")
	require.NoError(t, err)
	assert.False(t, exists)

	company := newCompany("Acme", "123")
	require.NoError(t, repo.CreateCompany(ctx, company))

	exists, err = repo.CompanyExistsByDocument(ctx, "123", "")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.CompanyExistsByDocument(ctx, "123", company.ID)
	require.NoError(t, err)
	assert.False(t, exists, "the record itself is excluded")
}

func TestWithTransaction(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	err := repo.WithTransaction(ctx, func(txRepo *Repository) error {
		return txRepo.CreateCompany(ctx, newCompany("Committed", "1"))
	})
	require.NoError(t, err)

	rollback := errors.New("rollback")
	err = repo.WithTransaction(ctx, func(txRepo *Repository) error {
		require.NoError(t, txRepo.CreateCompany(ctx, newCompany("Rolled Back", "2")))
		return rollback
	})
	assert.ErrorIs(t, err, rollback)

	exists, _ := repo.CompanyExistsByDocument(ctx, "1", "")
	assert.True(t, exists, "committed row should exist")
	exists, _ = repo.CompanyExistsByDocument(ctx, "2", "")
	assert.False(t, exists, "rolled back row should not exist")
}

func TestPing(t *testing.T) {
	repo := SetupTestDB(t)
	assert.NoError(t, repo.Ping(context.Background()))
}
