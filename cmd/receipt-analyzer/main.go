package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/receipt-analyzer/internal/config"
	"github.com/zombor/receipt-analyzer/internal/receipt"
	"github.com/zombor/receipt-analyzer/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

// errAnalysisFailed exits non-zero after the failure has already been printed
var errAnalysisFailed = errors.New("analysis failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errAnalysisFailed) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// Version is only recognized in first position, ahead of any subcommand
	if len(args) > 0 {
		switch args[0] {
		case "--version", "-version", "-v":
			fmt.Fprintln(stdout, version)
			return nil
		}
	}

	// .env values sit below real environment variables and flags
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := config.LoadEnvFile(envFile); err != nil {
		return err
	}

	rootFlags := ff.NewFlagSet("receipt-analyzer")
	analysis := config.RegisterFlags(rootFlags)

	analyzeFlags := ff.NewFlagSet("analyze").SetParent(rootFlags)
	jsonOutput := analyzeFlags.BoolLong("json", "Print the outcome as JSON instead of text")

	serveFlags := ff.NewFlagSet("serve").SetParent(rootFlags)
	var (
		port        = serveFlags.IntLong("port", 8080, "HTTP server port")
		storagePath = serveFlags.StringLong("storage", filepath.Join(os.TempDir(), "receipt-analyzer"), "Scratch directory for uploads")
		authUser    = serveFlags.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass    = serveFlags.StringLong("auth-pass", "", "Basic auth password (optional)")
	)

	analyzeCmd := &ff.Command{
		Name:      "analyze",
		Usage:     "receipt-analyzer analyze [FLAGS] <image>",
		ShortHelp: "extract store, payment, items, total and category from a receipt image",
		Flags:     analyzeFlags,
		Exec: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("analyze requires exactly one image path")
			}
			cfg := analysis.Config()
			if err := cfg.Validate(); err != nil {
				return err
			}
			return analyzeFile(ctx, cfg, args[0], *jsonOutput, stdout, stderr)
		},
	}

	serveCmd := &ff.Command{
		Name:      "serve",
		Usage:     "receipt-analyzer serve [FLAGS]",
		ShortHelp: "serve the upload page and analysis API",
		Flags:     serveFlags,
		Exec: func(ctx context.Context, args []string) error {
			cfg := analysis.Config()
			if err := cfg.Validate(); err != nil {
				return err
			}
			basicAuth := receipt.BasicAuth{
				Username: *authUser,
				Password: *authPass,
			}
			return serve(ctx, cfg, fmt.Sprintf(":%d", *port), *storagePath, basicAuth)
		},
	}

	rootCmd := &ff.Command{
		Name:        "receipt-analyzer",
		Usage:       "receipt-analyzer [FLAGS] <SUBCOMMAND> ...",
		ShortHelp:   "analyze receipt images with a multimodal language model",
		Flags:       rootFlags,
		Subcommands: []*ff.Command{analyzeCmd, serveCmd},
	}

	if err := rootCmd.Parse(args, ff.WithEnvVars()); err != nil {
		selected := rootCmd.GetSelected()
		if selected == nil {
			selected = rootCmd
		}
		fmt.Fprintf(stderr, "%s\n", ffhelp.Command(selected))
		if errors.Is(err, ff.ErrHelp) {
			return nil
		}
		return err
	}

	if err := rootCmd.Run(ctx); err != nil {
		if errors.Is(err, ff.ErrNoExec) {
			fmt.Fprintf(stderr, "%s\n", ffhelp.Command(rootCmd))
		}
		return err
	}
	return nil
}

// analyzeFile runs one analysis through a Runner and prints the outcome
func analyzeFile(ctx context.Context, cfg config.Config, path string, asJSON bool, stdout, stderr io.Writer) error {
	runner := receipt.NewRunner(scanning.NewAnalyzer(cfg))
	result, err := runner.Start(ctx, path)
	if err != nil {
		return err
	}

	fmt.Fprintf(stderr, "Communicating with %s, please wait...\n", cfg.ModelName())
	outcome := <-result

	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(outcome); err != nil {
			return fmt.Errorf("encoding outcome: %w", err)
		}
	} else {
		fmt.Fprint(stdout, receipt.FormatOutcome(outcome))
		if !outcome.OK() {
			fmt.Fprintln(stdout)
		}
	}

	if !outcome.OK() {
		return errAnalysisFailed
	}
	return nil
}

// serve runs the web shell until ctx is cancelled
func serve(ctx context.Context, cfg config.Config, addr, storagePath string, basicAuth receipt.BasicAuth) error {
	if cfg.APIKey == "" {
		slog.Warn("No API key configured; every analysis will fail until API_KEY is set")
	}

	slog.Info("Initializing storage...", "path", storagePath)
	store, err := receipt.NewLocalStorage(storagePath)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	slog.Info("Initializing analyzer...", "provider", cfg.Provider, "model", cfg.ModelName(), "normalize", cfg.Normalize)
	service := receipt.NewService(receipt.NewRunner(scanning.NewAnalyzer(cfg)), store)
	server := receipt.NewServer(service, basicAuth)

	if basicAuth.Enabled() {
		slog.Info("Basic auth enabled", "user", basicAuth.Username)
	}
	slog.Info("Open the page in a browser", "url", fmt.Sprintf("http://localhost%s", addr))

	err = server.Start(ctx, addr)
	slog.Info("Shutting down...")
	return err
}
