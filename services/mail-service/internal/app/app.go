package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/stoik/mailview/services/mail-service/internal/auth"
	"github.com/stoik/mailview/services/mail-service/internal/config"
	"github.com/stoik/mailview/services/mail-service/internal/db"
	"github.com/stoik/mailview/services/mail-service/internal/logger"
	"github.com/stoik/mailview/services/mail-service/internal/mailbox"
	"github.com/stoik/mailview/services/mail-service/internal/provider"
	"github.com/stoik/mailview/services/mail-service/internal/server"
	"github.com/stoik/mailview/services/mail-service/internal/users"
)

var rootCmd = &cobra.Command{
	Use:   "mail-service",
	Short: "Mailview mail service",
	Long:  "Serves mailbox listings, rendered threads and attachments from the Gmail API",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long:  "Serves the mail API until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			logger.Logger.Warn("Unknown log level, using info", zap.String("level", cfg.Log.Level))
		}
		defer logger.Logger.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		deps := server.Deps{
			Mailbox:       mailbox.NewService(provider.NewGmailProvider(cfg.Provider), cfg.Provider.PageSize),
			Sessions:      auth.NewSessions(cfg.Session.Secret, cfg.Session.TTL),
			FrontendURL:   cfg.OAuth.FrontendURL,
			SecureCookies: cfg.Server.GinMode == gin.ReleaseMode,
		}

		// Login needs both a database and OAuth credentials; the mail API
		// works without them.
		if cfg.Database.URL != "" && cfg.OAuth.ClientID != "" {
			pool, err := db.Connect(ctx, cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer pool.Close()
			deps.Users = users.NewStore(pool)
			deps.OAuth = auth.NewGoogle(cfg.OAuth)
		} else {
			logger.Logger.Info("Login routes disabled: database.url or oauth.client_id not set")
		}

		gin.SetMode(cfg.Server.GinMode)
		srv := &http.Server{
			Addr:    ":" + cfg.Server.Port,
			Handler: server.NewRouter(deps),
		}

		errChan := make(chan error, 1)
		go func() {
			logger.Logger.Info("Starting mail service",
				zap.String("addr", srv.Addr),
				zap.String("provider", cfg.Provider.APIURL),
			)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
			close(errChan)
		}()

		select {
		case <-ctx.Done():
			logger.Logger.Info("Shutting down gracefully", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		case err := <-errChan:
			return err
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("server.port", "8080", "HTTP listen port")
	flags.String("log.level", "info", "Log level: debug, info, warn or error")
	flags.String("provider.api_url", "https://gmail.googleapis.com/", "Mail provider API root")
	flags.String("database.url", "", "Database connection URL")

	for _, key := range []string{"server.port", "log.level", "provider.api_url", "database.url"} {
		viper.BindPFlag(key, flags.Lookup(key))
	}

	rootCmd.AddCommand(serveCmd)
}

func initConfig() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
	}

	config.SetDefaults(viper.GetViper())
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./services/mail-service")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
