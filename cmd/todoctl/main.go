package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/mkrupp/simpletodo/internal/cli"
	"github.com/mkrupp/simpletodo/internal/infra/config"
	"github.com/mkrupp/simpletodo/internal/infra/logging"
	"github.com/mkrupp/simpletodo/internal/svc/authsvc/authclient"
	"github.com/mkrupp/simpletodo/internal/svc/todosvc/todoclient"
)

const (
	appName = "simpletodo"
	svcName = "todoctl"
)

type Config struct {
	config.EnvConfig

	Log         logging.LoggerConfig        `envPrefix:"LOG_"`
	AuthClient  authclient.HTTPClientConfig `envPrefix:"AUTH_CLIENT_"`
	TodoClient  todoclient.HTTPClientConfig `envPrefix:"TODO_CLIENT_"`
	HistoryFile string                      `env:"HISTORY_FILE" default:""`
}

func main() {
	var (
		cfg Config
		ctx = context.Background()

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		fmt.Fprintf(os.Stderr, "parse config: %v\n", err)
		os.Exit(2)
	}

	if err := logging.Configure(ctx, cfg.Log, loggerName); err != nil {
		fmt.Fprintf(os.Stderr, "configure logging: %v\n", err)
		os.Exit(2)
	}

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "todo> ",
		HistoryFile:     cfg.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	shell := cli.NewCLI(
		authclient.NewHTTPClient(cfg.AuthClient, nil),
		todoclient.NewHTTPClient(cfg.TodoClient, nil),
		rl,
		rl.Stdout(),
	)

	fmt.Fprintln(rl.Stdout(), "type 'help' for a list of commands")

	for {
		err := shell.Run(ctx)

		switch {
		case err == nil:
		case errors.Is(err, readline.ErrInterrupt):
			fmt.Fprintln(rl.Stdout(), "use 'exit' or ctrl-d to quit")
		case errors.Is(err, io.EOF), errors.Is(err, cli.ErrExitRequested):
			return nil
		default:
			fmt.Fprintln(rl.Stderr(), cli.FormatError(err))
		}
	}
}
