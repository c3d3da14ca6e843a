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
	"github.com/mkrupp/simpletodo/internal/repo/todo"
	"github.com/mkrupp/simpletodo/internal/repo/user"
	"github.com/mkrupp/simpletodo/internal/svc/authsvc/authclient"
	"github.com/mkrupp/simpletodo/internal/svc/todosvc"
	"github.com/mkrupp/simpletodo/internal/util/clock"
)

const (
	appName = "simpletodo"
	svcName = "todosvc"
)

type Config struct {
	config.EnvConfig

	Log        logging.LoggerConfig        `envPrefix:"LOG_"`
	Todo       todosvc.TodoConfig          `envPrefix:"TODO_"`
	HTTP       todosvc.HTTPTransportConfig `envPrefix:"HTTP_"`
	AuthClient authclient.HTTPClientConfig `envPrefix:"AUTH_CLIENT_"`
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
	log := logging.GetLogger("cmd.todosvc")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "error", "error", err)
		} else {
			log.InfoContext(ctx, "shutdown")
		}
	}()

	clk := clock.System()

	userRepoFactory, err := user.RepositoryFactoryFor(ctx, cfg.Database, clk)
	if err != nil {
		return fmt.Errorf("user repository: %w", err)
	}

	todoRepoFactory, err := todo.RepositoryFactoryFor(ctx, cfg.Database, clk)
	if err != nil {
		return fmt.Errorf("todo repository: %w", err)
	}

	todoSvc, err := todosvc.NewTodoService(userRepoFactory, todoRepoFactory, cfg.Todo)
	if err != nil {
		return fmt.Errorf("new todo service: %w", err)
	}
	defer todoSvc.Close()

	authClient := authclient.NewHTTPClient(cfg.AuthClient, nil)

	log.InfoContext(ctx, "starting",
		"addr", cfg.HTTP.ServerAddr,
		"auth_url", cfg.AuthClient.AuthURL,
		"database", cfg.Database.Driver,
	)

	httpTransport := todosvc.NewHTTPTransport(todoSvc, authClient, cfg.HTTP)

	if err := http.ListenAndServe(ctx, httpTransport, cfg.HTTP.HTTPTransportConfig); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}
