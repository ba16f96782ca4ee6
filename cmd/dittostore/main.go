package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/marmos91/dittostore/internal/logger"
	"github.com/marmos91/dittostore/internal/shell"
	"github.com/marmos91/dittostore/pkg/commands"
	"github.com/marmos91/dittostore/pkg/config"
	"github.com/marmos91/dittostore/pkg/console"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
	// exitSession reports that the user ended the session with EXIT
	exitSession = 78
)

// execFlags collects repeated -exec values.
type execFlags []string

func (e *execFlags) String() string     { return strings.Join(*e, "; ") }
func (e *execFlags) Set(v string) error { *e = append(*e, v); return nil }

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin *os.File, stdout, stderr io.Writer) int {
	if len(args) > 0 && args[0] == "init" {
		return runInit(args[1:], stdout, stderr)
	}

	flags := flag.NewFlagSet("dittostore", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/dittostore/config.yaml)")
	logLevel := flags.String("log-level", "", "Override log level (DEBUG, INFO, WARN, ERROR)")
	var execs execFlags
	flags.Var(&execs, "exec", "Run a command and exit (repeatable)")
	flags.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "Usage: dittostore [flags]\n       dittostore init [-force] [-path file]\n\nFlags:\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if flags.NArg() != 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected argument: %s\n", flags.Arg(0))
		flags.Usage()
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return exitError
	}
	if *logLevel != "" {
		cfg.Logging.Level = strings.ToUpper(*logLevel)
	}

	logCloser, err := logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Failed to initialize logging: %v\n", err)
		return exitError
	}
	defer func() { _ = logCloser.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if metricsServer := config.InitializeMetrics(cfg); metricsServer != nil {
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				logger.Error("Metrics server error: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Stop(shutdownCtx)
		}()
	}

	store, err := config.InitializeStorage(ctx, cfg)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Failed to initialize storage: %v\n", err)
		return exitError
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close drives: %v", err)
		}
	}()

	service, err := config.CreateCloudService(&cfg.Cloud)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "%v\n", err)
		return exitError
	}

	term := console.NewTerminal(stdin, stdout)
	registry := commands.NewRegistry()
	registry.AddAll(commands.All(commands.Env{Storage: store, Console: term, Service: service})...)
	sh := shell.New(registry, term, term)

	if len(execs) > 0 {
		return runBatch(ctx, sh, execs, stderr)
	}

	if !term.IsInteractive() {
		sh.SetPrompt("")
	} else {
		_ = term.Print("DittoStore. Type HELP for the list of commands.")
	}

	done := make(chan error, 1)
	go func() { done <- sh.Run(ctx) }()
	err = awaitSession(ctx, done, shutdownGrace)

	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, shell.ErrExit):
		return exitSession
	case errors.Is(err, context.Canceled):
		return exitOK
	default:
		_, _ = fmt.Fprintf(stderr, "%v\n", err)
		return exitError
	}
}

// shutdownGrace bounds how long a signalled session may spend finishing
// the command it is running before drives are closed.
const shutdownGrace = 2 * time.Second

// awaitSession waits for the session loop to return. Reads from stdin do
// not observe ctx, so once ctx is cancelled the loop gets grace to finish
// a running command; a loop still parked on input is abandoned.
func awaitSession(ctx context.Context, done <-chan error, grace time.Duration) error {
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case err := <-done:
		return err
	case <-timer.C:
		logger.Debug("Session still waiting for input at shutdown")
		return ctx.Err()
	}
}

// runBatch executes -exec commands in order, stopping at the first failure.
func runBatch(ctx context.Context, sh *shell.Shell, lines []string, stderr io.Writer) int {
	for _, line := range lines {
		err := sh.Execute(ctx, line)
		if errors.Is(err, shell.ErrExit) {
			return exitSession
		}
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "ERROR: %v\n", err)
			return exitError
		}
	}
	return exitOK
}

func runInit(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("init", flag.ContinueOnError)
	flags.SetOutput(stderr)
	force := flags.Bool("force", false, "Overwrite an existing config file")
	path := flags.String("path", "", "Write to this file instead of the default location")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	target := *path
	var err error
	if target == "" {
		target, err = config.InitConfig(*force)
	} else {
		err = config.InitConfigToPath(target, *force)
	}
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "%v\n", err)
		return exitError
	}

	_, _ = fmt.Fprintf(stdout, "Configuration written to %s\n", target)
	return exitOK
}
