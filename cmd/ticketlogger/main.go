package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ticketlogger/internal/config"
	"ticketlogger/internal/domain"
	"ticketlogger/internal/http/handlers"
	"ticketlogger/internal/http/server"
	"ticketlogger/internal/i18n"
	applog "ticketlogger/internal/log"
	"ticketlogger/internal/metrics"
	"ticketlogger/internal/repos"
	"ticketlogger/internal/services"
	"ticketlogger/internal/session"
	"ticketlogger/internal/validate"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	newUser struct {
		username, password, first, last string
		roles                           []string
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of ticketlogger",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ticketlogger version %s\n", version)
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the web application",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			return serve(cfg, err)
		},
	}

	userCmd = &cobra.Command{
		Use:   "user",
		Short: "Manage local accounts",
	}

	userCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "Create an enabled account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			return createUser(cmd.Context(), cfg, err)
		},
	}

	rootCmd = &cobra.Command{
		Use:   "ticketlogger",
		Short: "Ticket Logger",
		Long:  `Ticket Logger records supermarket purchase tickets and the master data behind them`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			return serve(cfg, err)
		},
	}
)

func init() {
	f := userCreateCmd.Flags()
	f.StringVar(&newUser.username, "username", "", "account name")
	f.StringVar(&newUser.password, "password", "", "initial password")
	f.StringVar(&newUser.first, "first", "", "first name")
	f.StringVar(&newUser.last, "last", "", "last name")
	f.StringSliceVar(&newUser.roles, "role", []string{domain.RoleUser}, "role(s) to grant, e.g. ROLE_MANAGER")
	_ = userCreateCmd.MarkFlagRequired("username")
	_ = userCreateCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userCreateCmd)
	rootCmd.AddCommand(serveCmd, userCmd, versionCmd)
}

func serve(cfg config.Config, cfgErr error) error {
	logger, err := applog.New(applog.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	applog.SetLogger(logger)
	defer logger.Sync()

	if cfgErr != nil {
		logger.Warn("config.file.fail", zap.Error(cfgErr))
	}
	logger.Info("config.loaded",
		zap.String("port", cfg.Port),
		zap.String("db_dsn", cfg.DBDSN),
		zap.String("upload_path", cfg.UploadPath),
		zap.String("log_file", cfg.LogFile),
		zap.String("session_store", cfg.SessionStore))

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	gdb, err := repos.OpenGorm(db)
	if err != nil {
		return err
	}

	store, storage, err := session.NewStore(cfg)
	if err != nil {
		return err
	}
	if storage != nil {
		defer storage.Close()
	}
	bundle, err := i18n.New(cfg.DefaultLang)
	if err != nil {
		return err
	}
	m := metrics.New()

	deps := handlers.NewDeps(db, gdb, cfg, store, bundle, m)
	app := server.New(cfg, deps, m)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("server.start", zap.String("port", cfg.Port), zap.String("version", version),
			zap.Strings("oauth2_providers", deps.OAuth.Providers()))
		errc <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("server.shutdown")
	return app.ShutdownWithTimeout(10 * time.Second)
}

func createUser(ctx context.Context, cfg config.Config, cfgErr error) error {
	if cfgErr != nil {
		return cfgErr
	}
	username, ok := validate.Username(newUser.username)
	if !ok {
		return fmt.Errorf("invalid username %q", newUser.username)
	}
	if !validate.Password(newUser.password) {
		return fmt.Errorf("password must be 8-64 characters with upper, lower, digit and symbol")
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	gdb, err := repos.OpenGorm(db)
	if err != nil {
		return err
	}

	auth := services.NewAuthService(repos.NewUserRepo(gdb))
	u := &domain.User{Username: username, FirstName: newUser.first, LastName: newUser.last}
	if err := auth.CreateUser(ctx, u, newUser.password, newUser.roles...); err != nil {
		return fmt.Errorf("create user %s: %w", username, err)
	}
	fmt.Printf("created user %s (id %d) with roles %v\n", u.Username, u.ID, newUser.roles)
	return nil
}

func main() {
	// cobra prints the error and usage
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
