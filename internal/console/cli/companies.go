package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/gartstein/companyconsole/internal/company/models"
	"github.com/gartstein/companyconsole/internal/console/controller"
	"github.com/spf13/cobra"
)

func (a *app) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List companies",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			companies, err := a.console.ListCompanies(cmd.Context())
			if err != nil {
				renderState(cmd.OutOrStdout(), controller.CompaniesState{Err: err})
				return err
			}
			renderCompanies(cmd.OutOrStdout(), companies)
			return nil
		}),
	}
}

func (a *app) createCommand() *cobra.Command {
	var (
		fields   CompanyFields
		inactive bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a company",
		Long: `Create a company. Without --name and --document the values are
asked for interactively.`,
		Args: cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			fields.IsActive = !inactive
			if !anyChanged(cmd, "name", "document") {
				if err := a.prompter.EditCompany("New company", &fields); err != nil {
					return err
				}
			}

			m := a.console.CreateCompany(nil)
			defer m.Close()

			st := m.Invoke(cmd.Context(), models.CompanyCreate{
				Name:     fields.Name,
				Document: fields.Document,
				Address:  fields.Address,
				IsActive: models.Ptr(fields.IsActive),
			})
			if st.IsError() {
				return fmt.Errorf("create company: %w", st.Err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "company created")
			renderCompany(cmd.OutOrStdout(), *st.Result)
			return nil
		}),
	}

	cmd.Flags().StringVar(&fields.Name, "name", "", "company name")
	cmd.Flags().StringVar(&fields.Document, "document", "", "registration document")
	cmd.Flags().StringVar(&fields.Address, "address", "", "postal address")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "create the company as inactive")
	return cmd
}

func (a *app) editCommand() *cobra.Command {
	var (
		fields CompanyFields
		active bool
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a company",
		Long: `Edit a company. Only the given flags are sent; without any flag the
current values are shown in a form and the changed ones are sent.`,
		Args: cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			id := args[0]
			current, err := a.console.Company(cmd.Context(), id)
			if err != nil {
				return err
			}

			var update models.CompanyUpdate
			if !anyChanged(cmd, "name", "document", "address", "active") {
				update, err = a.promptUpdate(current)
				if err != nil {
					return err
				}
			} else {
				update = flagUpdate(cmd, fields, active)
			}
			if update.Empty() {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to update")
				return nil
			}

			m := a.console.UpdateCompany(nil)
			defer m.Close()

			st := m.Invoke(cmd.Context(), controller.UpdateInput{ID: id, Payload: update})
			if st.IsError() {
				return fmt.Errorf("update company: %w", st.Err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "company updated")
			renderCompany(cmd.OutOrStdout(), *st.Result)
			return nil
		}),
	}

	cmd.Flags().StringVar(&fields.Name, "name", "", "new company name")
	cmd.Flags().StringVar(&fields.Document, "document", "", "new registration document")
	cmd.Flags().StringVar(&fields.Address, "address", "", "new postal address")
	cmd.Flags().BoolVar(&active, "active", true, "whether the company is active")
	return cmd
}

func (a *app) promptUpdate(current models.Company) (models.CompanyUpdate, error) {
	fields := CompanyFields{
		Name:     current.Name,
		Document: current.Document,
		Address:  current.Address,
		IsActive: current.IsActive,
	}
	if err := a.prompter.EditCompany("Edit "+current.Name, &fields); err != nil {
		return models.CompanyUpdate{}, err
	}

	var u models.CompanyUpdate
	if fields.Name != current.Name {
		u.Name = models.Ptr(fields.Name)
	}
	if fields.Document != current.Document {
		u.Document = models.Ptr(fields.Document)
	}
	if fields.Address != current.Address {
		u.Address = models.Ptr(fields.Address)
	}
	if fields.IsActive != current.IsActive {
		u.IsActive = models.Ptr(fields.IsActive)
	}
	return u, nil
}

func flagUpdate(cmd *cobra.Command, fields CompanyFields, active bool) models.CompanyUpdate {
	var u models.CompanyUpdate
	if cmd.Flags().Changed("name") {
		u.Name = models.Ptr(fields.Name)
	}
	if cmd.Flags().Changed("document") {
		u.Document = models.Ptr(fields.Document)
	}
	if cmd.Flags().Changed("address") {
		u.Address = models.Ptr(fields.Address)
	}
	if cmd.Flags().Changed("active") {
		u.IsActive = models.Ptr(active)
	}
	return u
}

func anyChanged(cmd *cobra.Command, names ...string) bool {
	for _, name := range names {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

func (a *app) deleteCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a company",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if !yes {
				company, err := a.console.Company(cmd.Context(), id)
				if err != nil {
					return err
				}
				ok, err := a.prompter.Confirm(fmt.Sprintf("Delete %s (%s)?", company.Name, company.Document))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "aborted")
					return nil
				}
			}

			m := a.console.DeleteCompany(nil)
			defer m.Close()

			if st := m.Invoke(cmd.Context(), id); st.IsError() {
				return fmt.Errorf("delete company: %w", st.Err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "company deleted")
			return nil
		}),
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "delete without asking for confirmation")
	return cmd
}

func (a *app) watchCommand() *cobra.Command {
	var refresh time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show the company list and redraw it on every change",
		Long: `Subscribe to the company list and print it again whenever it changes,
until interrupted. With --refresh the list is marked stale periodically so
that changes made elsewhere show up.`,
		Args: cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			return a.watch(cmd.Context(), cmd, refresh)
		}),
	}

	cmd.Flags().DurationVar(&refresh, "refresh", 0, "refetch interval, 0 to disable")
	return cmd
}

func (a *app) watch(ctx context.Context, cmd *cobra.Command, refresh time.Duration) error {
	updates := make(chan controller.CompaniesState, 1)
	sub := a.console.Companies(func(s controller.CompaniesState) {
		// Keep only the latest state; the renderer may lag behind.
		for {
			select {
			case updates <- s:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	})
	defer sub.Unsubscribe()

	var tick <-chan time.Time
	if refresh > 0 {
		ticker := time.NewTicker(refresh)
		defer ticker.Stop()
		tick = ticker.C
	}

	out := cmd.OutOrStdout()
	renderState(out, a.console.Snapshot())
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			a.console.Invalidate()
		case s := <-updates:
			fmt.Fprintf(out, "--- %s\n", time.Now().Format(time.TimeOnly))
			renderState(out, s)
		}
	}
}
