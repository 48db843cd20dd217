package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rmacdonaldsmith/railconsole/internal/authgate"
	"github.com/rmacdonaldsmith/railconsole/internal/config"
	"github.com/rmacdonaldsmith/railconsole/internal/logging"
	consolenotify "github.com/rmacdonaldsmith/railconsole/internal/notify"
	"github.com/rmacdonaldsmith/railconsole/pkg/httpclient"
	"github.com/rmacdonaldsmith/railconsole/pkg/navigation"
	"github.com/rmacdonaldsmith/railconsole/pkg/notify"
)

var (
	// Global flags
	cfgFile string
	verbose bool

	// Global state, set up by initializeClient
	cfg      *config.Config
	logger   *slog.Logger
	store    *authgate.SQLiteStore
	gate     *authgate.StoreGate
	terminal *consolenotify.Terminal
	client   *httpclient.Client
	routes   *navigation.Table
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "console-cli",
		Short: "Rail console command line interface",
		Long: `console-cli drives the rail console backend through the console's request
pipeline. Notifications are printed to stderr; the logged-in flag and token
are kept in a local client storage file between runs.`,
		PersistentPreRunE:  initializeClient,
		PersistentPostRunE: closeState,
		SilenceUsage:       true,
		SilenceErrors:      true,
	}

	// Add global flags; names match configuration keys with dashes for underscores
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ./"+config.DefaultConfigFileName+")")
	flags.String("server-url", config.DefaultServerURL, "Backend base address including the API prefix")
	flags.Duration("timeout", 30*time.Second, "Request timeout")
	flags.String("state-path", config.DefaultStatePath(), "Client storage file")
	flags.String("login-path", config.DefaultLoginPath, "Route of the login page")
	flags.Bool("notify-on-success", httpclient.DefaultNotifyOnSuccess, "Show a notification for successful requests")
	flags.String("log-level", config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	flags.String("log-format", config.DefaultLogFormat, "Log format (text, json)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Also show progress notifications")

	// Add subcommands
	rootCmd.AddCommand(newLoginCommand())
	rootCmd.AddCommand(newLogoutCommand())
	rootCmd.AddCommand(newStatusCommand())
	rootCmd.AddCommand(newComponentsCommand())
	rootCmd.AddCommand(newRequestCommand())
	rootCmd.AddCommand(newDownloadCommand())
	rootCmd.AddCommand(newUploadCommand())
	rootCmd.AddCommand(newNavigateCommand())
	rootCmd.AddCommand(newRoutesCommand())

	return rootCmd
}

// initializeClient loads configuration, opens client storage and sets up the
// request pipeline with terminal notifications.
func initializeClient(cmd *cobra.Command, args []string) error {
	// Skip initialization for help commands
	if cmd.Name() == "help" || cmd.Parent() == nil {
		return nil
	}

	var err error
	cfg, err = config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger = logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)

	routes, err = navigation.NewTable(cfg.LoginPath, navigation.DefaultRoutes()...)
	if err != nil {
		return fmt.Errorf("failed to build route table: %w", err)
	}

	store, err = authgate.OpenSQLiteStore(cmd.Context(), cfg.StatePath)
	if err != nil {
		return err
	}
	gate = authgate.NewStoreGate(store)

	terminal = newTerminal(cmd.ErrOrStderr())
	client, err = httpclient.NewClient(cfg.ClientConfig(),
		httpclient.WithDispatcher(terminal),
		httpclient.WithLogger(logger.With("component", "httpclient")),
	)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	token, err := gate.Token(cmd.Context())
	if err != nil {
		return err
	}
	client.SetToken(token)

	logger.Debug("client initialized", "server", cfg.ServerURL, "state", store.Path(), "authenticated", client.IsAuthenticated())
	return nil
}

func newTerminal(out io.Writer) *consolenotify.Terminal {
	if verbose {
		return consolenotify.NewTerminal(out)
	}
	return consolenotify.NewTerminal(out, notify.LevelInfo, notify.LevelLoading)
}

func closeState(cmd *cobra.Command, args []string) error {
	if store == nil {
		return nil
	}
	err := store.Close()
	store = nil
	return err
}

// requireAuthentication checks the persisted logged-in flag and the token
func requireAuthentication(ctx context.Context) error {
	if client == nil || gate == nil {
		return fmt.Errorf("client not initialized")
	}

	loggedIn, err := gate.IsLoggedIn(ctx)
	if err != nil {
		return err
	}
	if !loggedIn || !client.IsAuthenticated() {
		return fmt.Errorf("not authenticated - run 'console-cli login' first")
	}
	return nil
}

// requestContext bounds a command by the configured timeout
func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), cfg.Timeout)
}
