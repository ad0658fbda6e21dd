// Package models defines the company records exchanged with the remote
// companies endpoint: the record itself and the create/update payloads.
package models

// Company is a company record as returned by the remote endpoint.
type Company struct {
	// ID is the opaque identifier assigned by the remote store.
	ID string `json:"_id"`
	// Name is the company’s name.
	Name string `json:"name"`
	// Document is the registration document (CNPJ/CPF), free-form.
	Document string `json:"document"`
	// Address is the optional postal address.
	Address string `json:"address,omitempty"`
	// IsActive indicates whether the company is active.
	IsActive bool `json:"isActive"`
	// CreatedAt is the server-assigned creation timestamp.
	CreatedAt string `json:"createdAt,omitempty"`
	// UpdatedAt is the server-assigned last update timestamp.
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// CompanyCreate is the payload for creating a company. It never carries an
// ID or timestamps.
type CompanyCreate struct {
	Name     string `json:"name" validate:"notblank"`
	Document string `json:"document" validate:"notblank"`
	Address  string `json:"address,omitempty"`
	// IsActive is optional; the server defaults it to true.
	IsActive *bool `json:"isActive,omitempty"`
}

// CompanyUpdate represents the fields that can be updated for a Company.
// Pointer types are used to allow partial updates: nil fields are not sent
// and stay unchanged server-side.
type CompanyUpdate struct {
	Name     *string `json:"name,omitempty" validate:"omitnil,notblank"`
	Document *string `json:"document,omitempty" validate:"omitnil,notblank"`
	Address  *string `json:"address,omitempty"`
	IsActive *bool   `json:"isActive,omitempty"`
}

// Empty reports whether the update carries no field at all.
func (u CompanyUpdate) Empty() bool {
	return u.Name == nil && u.Document == nil && u.Address == nil && u.IsActive == nil
}

// Ptr returns a pointer to v. Handy for building partial updates.
func Ptr[T any](v T) *T {
	return &v
}

// ByID returns the company with the given id from list, if present.
func ByID(list []Company, id string) (Company, bool) {
	for _, c := range list {
		if c.ID == id {
			return c, true
		}
	}
	return Company{}, false
}
