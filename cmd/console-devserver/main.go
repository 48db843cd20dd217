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

	"github.com/spf13/cobra"

	"github.com/rmacdonaldsmith/railconsole/internal/config"
	"github.com/rmacdonaldsmith/railconsole/internal/devserver"
	"github.com/rmacdonaldsmith/railconsole/internal/logging"
)

const (
	// Application info
	appName    = "Rail Console devserver"
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
		Use:   "console-devserver",
		Short: "Run an in-memory backend for console development",
		Long: `console-devserver serves the component and railway vehicle API under ` + devserver.APIPrefix + `
with JWT login. Data is kept in memory and lost on exit.`,
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
			return run(ctx, cfg, cmd.ErrOrStderr())
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ./"+config.DefaultConfigFileName+")")
	flags.String("devserver-listen", config.DefaultDevListen, "Listen address")
	flags.String("devserver-secret", config.DefaultDevSecret, "JWT signing secret")
	flags.String("devserver-username", config.DefaultDevUsername, "Login username")
	flags.String("devserver-password", config.DefaultDevPassword, "Login password")
	flags.Duration("devserver-token-ttl", 24*time.Hour, "Lifetime of issued tokens")
	flags.String("log-level", config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	flags.String("log-format", config.DefaultLogFormat, "Log format (text, json)")
	flags.BoolVar(&showVersion, "version", false, "Show version and exit")

	return rootCmd
}

// run serves the backend until ctx is cancelled or a shutdown signal arrives.
func run(ctx context.Context, cfg *config.Config, logOut io.Writer) error {
	logger := logging.New(logOut, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	dev := cfg.DevServer
	if dev.Secret == config.DefaultDevSecret {
		logger.Warn("using the built-in JWT secret; set --devserver-secret outside local development")
	}

	srv, err := devserver.NewServer(devserver.Config{
		Listen:   dev.Listen,
		Secret:   dev.Secret,
		TokenTTL: dev.TokenTTL,
		Credentials: devserver.Credentials{
			Username: dev.Username,
			Password: dev.Password,
		},
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create development backend: %w", err)
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
