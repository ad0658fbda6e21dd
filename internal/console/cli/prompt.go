package cli

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"
)

// CompanyFields are the editable fields of a company as shown in a form.
type CompanyFields struct {
	Name     string
	Document string
	Address  string
	IsActive bool
}

// Prompter asks the user for input the command line did not provide.
type Prompter interface {
	// EditCompany lets the user fill or change fields in place.
	EditCompany(title string, fields *CompanyFields) error
	// Confirm asks a yes/no question.
	Confirm(question string) (bool, error)
}

// FormPrompter prompts with terminal forms.
type FormPrompter struct{}

func (FormPrompter) EditCompany(title string, fields *CompanyFields) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&fields.Name).
				Validate(required("name")),
			huh.NewInput().
				Title("Document").
				Placeholder("CNPJ or CPF").
				Value(&fields.Document).
				Validate(required("document")),
			huh.NewInput().
				Title("Address").
				Value(&fields.Address),
			huh.NewConfirm().
				Title("Active?").
				Affirmative("Active").
				Negative("Inactive").
				Value(&fields.IsActive),
		).Title(title),
	)
	return form.Run()
}

func (FormPrompter) Confirm(question string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(question).
		Affirmative("Delete").
		Negative("Cancel").
		Value(&ok).
		Run()
	return ok, err
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(field + " is required")
		}
		return nil
	}
}
