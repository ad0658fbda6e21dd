package controller

import (
	dbmodels "github.com/gartstein/companyconsole/internal/company/db/models"
	"github.com/gartstein/companyconsole/internal/company/models"
)

// timestampLayout renders timestamps as ISO 8601 with milliseconds in UTC.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// rowToModel converts a storage row into the wire representation.
func rowToModel(row *dbmodels.Company) models.Company {
	c := models.Company{
		ID:       row.ID,
		Name:     row.Name,
		Document: row.Document,
		Address:  row.Address,
		IsActive: row.IsActive,
	}
	if !row.CreatedAt.IsZero() {
		c.CreatedAt = row.CreatedAt.UTC().Format(timestampLayout)
	}
	if !row.UpdatedAt.IsZero() {
		c.UpdatedAt = row.UpdatedAt.UTC().Format(timestampLayout)
	}
	return c
}

// updateFields maps the provided fields of an update to column values.
func updateFields(u models.CompanyUpdate) map[string]any {
	fields := map[string]any{}
	if u.Name != nil {
		fields["name"] = *u.Name
	}
	if u.Document != nil {
		fields["document"] = *u.Document
	}
	if u.Address != nil {
		fields["address"] = *u.Address
	}
	if u.IsActive != nil {
		fields["is_active"] = *u.IsActive
	}
	return fields
}
