package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/gartstein/companyconsole/internal/company/models"
	"github.com/gartstein/companyconsole/internal/console/controller"
)

// renderState writes what the list view shows for s.
func renderState(w io.Writer, s controller.CompaniesState) {
	switch {
	case s.Err != nil && s.Companies == nil:
		fmt.Fprintf(w, "failed to load companies: %v\n", s.Err)
	case s.IsLoading && s.Companies == nil:
		fmt.Fprintln(w, "loading...")
	default:
		renderCompanies(w, s.Companies)
		if s.Err != nil {
			fmt.Fprintf(w, "refresh failed, showing previous data: %v\n", s.Err)
		} else if s.IsLoading {
			fmt.Fprintln(w, "refreshing...")
		}
	}
}

func renderCompanies(w io.Writer, companies []models.Company) {
	if len(companies) == 0 {
		fmt.Fprintln(w, "no companies found")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDOCUMENT\tSTATUS")
	for _, c := range companies {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Document, status(c.IsActive))
	}
	_ = tw.Flush()
}

func renderCompany(w io.Writer, c models.Company) {
	fmt.Fprintf(w, "id:       %s\n", c.ID)
	fmt.Fprintf(w, "name:     %s\n", c.Name)
	fmt.Fprintf(w, "document: %s\n", c.Document)
	if c.Address != "" {
		fmt.Fprintf(w, "address:  %s\n", c.Address)
	}
	fmt.Fprintf(w, "status:   %s\n", status(c.IsActive))
}

func status(active bool) string {
	if active {
		return "Active"
	}
	return "Inactive"
}
