package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/rmacdonaldsmith/railconsole/internal/config"
	"github.com/rmacdonaldsmith/railconsole/internal/logging"
	"github.com/rmacdonaldsmith/railconsole/internal/metrics"
	"github.com/rmacdonaldsmith/railconsole/internal/webconsole"
	"github.com/rmacdonaldsmith/railconsole/pkg/httpclient"
	"github.com/rmacdonaldsmith/railconsole/pkg/navigation"
)

const (
	// Application info
	appName    = "Rail Console"
	appVersion = "0.1.0"
)

func main() {
	if err := newRootCommand(context.Background()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand(ctx context.Context) *cobra.Command {
	var (
		cfgFile     string
		showVersion bool
	)

	rootCmd := &cobra.Command{
		Use:   "console-web",
		Short: "Serve the rail console in a browser",
		Long: `console-web serves the console pages behind the navigation guard and streams
each browser session's notifications. Requests to the backend go through the
console's request pipeline.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showVersion {
				fmt.Fprintf(cmd.OutOrStdout(), "%s v%s\n", appName, appVersion)
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.ValidateWeb(); err != nil {
				return err
			}
			return run(ctx, cfg, cmd.ErrOrStderr())
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ./"+config.DefaultConfigFileName+")")
	flags.String("listen", config.DefaultListen, "Listen address for browsers")
	flags.String("server-url", config.DefaultServerURL, "Backend base address including the API prefix")
	flags.Duration("timeout", 30*time.Second, "Backend request timeout")
	flags.String("session-secret", "", "Session cookie signing key (at least 32 bytes)")
	flags.String("login-path", config.DefaultLoginPath, "Route of the login page")
	flags.Duration("session-idle", 30*time.Minute, "Drop notification state of sessions idle this long")
	flags.Bool("notify-on-success", httpclient.DefaultNotifyOnSuccess, "Show a notification for successful requests")
	flags.Bool("metrics", false, "Expose Prometheus metrics on /metrics")
	flags.String("log-level", config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	flags.String("log-format", config.DefaultLogFormat, "Log format (text, json)")
	flags.BoolVar(&showVersion, "version", false, "Show version and exit")

	return rootCmd
}

// run serves the console until ctx is cancelled or a shutdown signal arrives.
func run(ctx context.Context, cfg *config.Config, logOut io.Writer) error {
	logger := logging.New(logOut, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	logger.Info("starting "+appName, "version", appVersion)

	opts := []httpclient.Option{httpclient.WithLogger(logger.With("component", "httpclient"))}
	if cfg.Metrics {
		opts = append(opts, httpclient.WithObserver(metrics.Observer{}))
	}
	client, err := httpclient.NewClient(cfg.ClientConfig(), opts...)
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}

	table, err := navigation.NewTable(cfg.LoginPath, navigation.DefaultRoutes()...)
	if err != nil {
		return err
	}

	srv, err := webconsole.NewServer(webconsole.Config{
		Listen:        cfg.Listen,
		SessionSecret: cfg.SessionSecret,
		Client:        client,
		Table:         table,
		Clock:         clockwork.NewRealClock(),
		SessionIdle:   cfg.SessionIdle,
		Metrics:       cfg.Metrics,
		Logger:        logger.With("component", "webconsole"),
	})
	if err != nil {
		return fmt.Errorf("failed to create web console: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := setupGracefulShutdown(cancel, logger)
	defer stop()

	if err := srv.Serve(ctx); err != nil {
		return err
	}
	logger.Info(appName + " stopped")
	return nil
}

// setupGracefulShutdown cancels the serving context on SIGINT, SIGTERM or
// SIGHUP. The returned func stops listening for signals.
func setupGracefulShutdown(cancel context.CancelFunc, logger *slog.Logger) func() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	done := make(chan struct{})

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down gracefully", "signal", sig.String())
			cancel()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}
