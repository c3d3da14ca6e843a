package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mkrupp/simpletodo/internal/infra/config"
	"github.com/mkrupp/simpletodo/internal/infra/database"
	"github.com/mkrupp/simpletodo/internal/infra/logging"
	"github.com/mkrupp/simpletodo/internal/infra/transport/http"
	"github.com/mkrupp/simpletodo/internal/repo/token"
	"github.com/mkrupp/simpletodo/internal/repo/user"
	"github.com/mkrupp/simpletodo/internal/svc/authsvc"
	"github.com/mkrupp/simpletodo/internal/util/clock"
)

const (
	appName = "simpletodo"
	svcName = "authsvc"
)

type Config struct {
	config.EnvConfig

	Log        logging.LoggerConfig        `envPrefix:"LOG_"`
	Token      authsvc.TokenConfig         `envPrefix:"TOKEN_"`
	TokenStore token.Config                `envPrefix:"TOKEN_STORE_"`
	HTTP       authsvc.HTTPTransportConfig `envPrefix:"HTTP_"`
	Database   database.Config             `envPrefix:"DATABASE_"`
}

func main() {
	var (
		cfg Config

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		fmt.Fprintf(os.Stderr, "parse config: %v\n", err)
		os.Exit(2) //nolint:gocritic
	}

	if err := logging.Configure(ctx, cfg.Log, loggerName); err != nil {
		fmt.Fprintf(os.Stderr, "configure logging: %v\n", err)
		os.Exit(2)
	}

	if err := run(ctx, cfg); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config) (err error) {
	log := logging.GetLogger("cmd.authsvc")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "error", "error", err)
		} else {
			log.InfoContext(ctx, "shutdown")
		}
	}()

	clk := clock.System()

	issuer, err := authsvc.NewTokenIssuer(cfg.Token, clk)
	if err != nil {
		return fmt.Errorf("new token issuer: %w", err)
	}

	userRepoFactory, err := user.RepositoryFactoryFor(ctx, cfg.Database, clk)
	if err != nil {
		return fmt.Errorf("user repository: %w", err)
	}

	authSvc, err := authsvc.NewAuthService(
		userRepoFactory,
		token.RepositoryFactoryFor(cfg.TokenStore, clk),
		authsvc.PBKDF2Hasher{},
		issuer,
	)
	if err != nil {
		return fmt.Errorf("new auth service: %w", err)
	}
	defer authSvc.Close()

	log.InfoContext(ctx, "starting",
		"addr", cfg.HTTP.ServerAddr,
		"database", cfg.Database.Driver,
	)

	httpTransport := authsvc.NewHTTPTransport(authSvc, cfg.HTTP)

	if err := http.ListenAndServe(ctx, httpTransport, cfg.HTTP.HTTPTransportConfig); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}
