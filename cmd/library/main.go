package main

import (
	"fmt"
	"os"
	"time"

	"booklib/internal/config"
	"booklib/internal/library"
	"booklib/internal/logx"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries what the subcommands share once the root has run.
type app struct {
	// flags
	verbose  bool
	apiURL   string
	offline  bool
	snapshot string
	timeout  time.Duration
	name     string
	password string
	output   string

	cfg     config.Config
	logger  *zap.Logger
	service *library.Service
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "library",
		Short: "Browse and manage the book library",
		Long: `library reads books, users and the cart from the library API.

When the API cannot be reached it falls back to the static snapshot file and
then to built-in sample data. Output that did not come from the API is labelled.
Changes are only possible while the API is reachable.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&a.apiURL, "api", "", "API root URL (overrides LIBRARY_API_URL)")
	flags.BoolVar(&a.offline, "offline", false, "skip the API and read fallback data only")
	flags.StringVar(&a.snapshot, "snapshot", "", "snapshot file path (overrides LIBRARY_SNAPSHOT)")
	flags.DurationVar(&a.timeout, "timeout", 0, "per-source fetch timeout (overrides LIBRARY_FETCH_TIMEOUT)")
	flags.StringVar(&a.name, "name", "", "login name for commands that change data")
	flags.StringVar(&a.password, "password", "", "login password for commands that change data")
	flags.StringVarP(&a.output, "output", "o", formatTable, "output format: table, json or yaml")

	root.AddCommand(
		a.booksCmd(),
		a.bookCmd(),
		a.usersCmd(),
		a.userCmd(),
		a.cartCmd(),
		a.homeCmd(),
		a.summaryCmd(),
		a.addBookCmd(),
		a.updateBookCmd(),
		a.deleteBookCmd(),
		a.addUserCmd(),
		a.deleteUserCmd(),
		a.addToCartCmd(),
		a.removeFromCartCmd(),
		a.loginCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	if err := checkFormat(a.output); err != nil {
		return err
	}
	config.LoadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.apiURL != "" {
		cfg.APIURL = a.apiURL
	}
	if a.offline {
		cfg.RemoteEnabled = false
	}
	if cmd.Flags().Changed("snapshot") {
		cfg.SnapshotPath = a.snapshot
	}
	if a.timeout > 0 {
		cfg.FetchTimeout = a.timeout
	}
	if a.verbose {
		cfg.LogLevel = "debug"
	}

	logger, err := logx.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	a.service = library.NewFromConfig(cfg, logger)
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
