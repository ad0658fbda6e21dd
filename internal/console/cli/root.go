// Package cli is the terminal front end of the company console: list, create,
// edit, delete and watch commands over a CompanyConsole.
package cli

import (
	"fmt"

	"github.com/gartstein/companyconsole/internal/config"
	"github.com/gartstein/companyconsole/internal/console/controller"
	"github.com/spf13/cobra"
)

// ConsoleFactory builds the console once flags and configuration are known.
// The returned release func, if not nil, runs after the console is closed;
// it is where the factory flushes whatever it set up, such as the logger.
type ConsoleFactory func(cfg config.ConsoleConfig) (console *controller.CompanyConsole, release func(), err error)

type app struct {
	newConsole ConsoleFactory
	prompter   Prompter

	configPath string
	apiURL     string
	apiToken   string

	console *controller.CompanyConsole
	release func()
}

// NewRootCommand returns the command tree. prompter asks for the values a
// command was not given as flags; nil uses interactive terminal forms.
func NewRootCommand(newConsole ConsoleFactory, prompter Prompter) *cobra.Command {
	if prompter == nil {
		prompter = FormPrompter{}
	}
	a := &app{newConsole: newConsole, prompter: prompter}

	rootCmd := &cobra.Command{
		Use:   "console",
		Short: "Manage the companies collection",
		Long: `console lists, creates, edits and deletes companies on the remote
companies endpoint.

Configuration is read from the file given with --config, then from the
environment (API_URL, API_TOKEN, REQUEST_TIMEOUT, STALE_TIME, GC_TIME,
LOG_LEVEL). Flags win over both.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "companies endpoint base URL (default http://localhost:3000)")
	rootCmd.PersistentFlags().StringVar(&a.apiToken, "token", "", "bearer token sent with every request")

	rootCmd.AddCommand(
		a.listCommand(),
		a.createCommand(),
		a.editCommand(),
		a.deleteCommand(),
		a.watchCommand(),
	)
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConsole(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("api-url") {
		cfg.APIURL = a.apiURL
	}
	if cmd.Flags().Changed("token") {
		cfg.APIToken = a.apiToken
	}

	a.console, a.release, err = a.newConsole(cfg)
	if err != nil {
		return fmt.Errorf("init console: %w", err)
	}
	return nil
}

// run closes the console and releases its resources once fn returns,
// whether or not it failed.
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer a.close()
		return fn(cmd, args)
	}
}

func (a *app) close() {
	if a.console != nil {
		a.console.Close()
		a.console = nil
	}
	if a.release != nil {
		a.release()
		a.release = nil
	}
}
