package main

import (
	_ "embed"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/zombor/receipt-reel/internal/config"
	"github.com/zombor/receipt-reel/internal/frames"
	"github.com/zombor/receipt-reel/internal/ledger"
	"github.com/zombor/receipt-reel/internal/pipeline"
	"github.com/zombor/receipt-reel/internal/vision"
	"github.com/zombor/receipt-reel/internal/web"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// The config file path has to be known before the flag set is
	// built, because file values become the flag defaults.
	cfg, err := config.Load(configPathFromArgs(os.Args[1:]))
	if err != nil {
		slog.Error("Failed to load config file", "error", err)
		os.Exit(1)
	}

	fs := ff.NewFlagSet("receipt-reel")
	var (
		_           = fs.StringLong("config", "", "TOML config file path")
		port        = fs.IntLong("port", cfg.Port, "HTTP server port")
		dbPath      = fs.StringLong("db", cfg.DBPath, "Submission journal file path")
		artifacts   = fs.StringLong("artifacts", cfg.Artifacts, "Ledger artifact directory")
		tempDir     = fs.StringLong("temp-dir", cfg.TempDir, "Working directory for frame extraction")
		scannerType = fs.StringLong("scanner", cfg.Scanner, "Scanner type: 'gemini' or 'ollama'")
		geminiKey   = fs.StringLong("gemini-key", cfg.GeminiKey, "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel = fs.StringLong("gemini-model", cfg.GeminiModel, "Google Gemini model name")
		ollamaURL   = fs.StringLong("ollama-url", cfg.OllamaURL, "Ollama API base URL")
		ollamaModel = fs.StringLong("ollama-model", cfg.OllamaModel, "Ollama model name (e.g., llava, llava-phi3, bakllava, qwen2-vl)")
		ffmpegBin   = fs.StringLong("ffmpeg", cfg.FFmpeg, "ffmpeg binary")
		ffprobeBin  = fs.StringLong("ffprobe", cfg.FFprobe, "ffprobe binary")
		threshold   = fs.Float64Long("threshold", cfg.Threshold, "Similarity threshold below which a frame counts as new")
		pdfDPI      = fs.IntLong("pdf-dpi", cfg.PDFDPI, "Rasterization DPI for PDF pages")
		horizonDays = fs.IntLong("date-horizon-days", cfg.DateHorizonDays, "Reject receipt dates older than this many days")
		authUser    = fs.StringLong("auth-user", cfg.AuthUser, "Basic auth username (optional)")
		authPass    = fs.StringLong("auth-pass", cfg.AuthPass, "Basic auth password (optional)")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("RECEIPT_REEL"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	horizon := time.Duration(*horizonDays) * 24 * time.Hour

	// Initialize scanner based on type
	var scanner vision.Service
	switch *scannerType {
	case "gemini":
		// Get Gemini API key from flag or environment
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini scanner...", "model", *geminiModel)
		scanner, err = vision.NewGemini(apiKey, *geminiModel, horizon)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama scanner...", "url", *ollamaURL, "model", *ollamaModel)
		scanner, err = vision.NewOllama(*ollamaURL, *ollamaModel, horizon)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid scanner type", "type", *scannerType, "valid", "gemini or ollama")
		os.Exit(1)
	}
	defer scanner.Close()

	svc := pipeline.NewService(
		frames.NewSelector(*ffmpegBin, *ffprobeBin, *threshold),
		&frames.Rasterizer{DPI: float64(*pdfDPI)},
		frames.Still{},
		scanner,
		*tempDir,
	)

	// A positional argument means one-shot mode: process the file and
	// print the ledger instead of serving HTTP.
	if args := fs.GetArgs(); len(args) > 0 {
		if err := runOnce(svc, args[0]); err != nil {
			slog.Error("Processing failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// Initialize journal
	slog.Info("Initializing submission journal...")
	journal, err := web.NewBoltJournal(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize journal", "error", err)
		os.Exit(1)
	}
	defer journal.Close()

	// Initialize artifact storage
	slog.Info("Initializing artifact storage...")
	store, err := web.NewLocalArtifacts(*artifacts)
	if err != nil {
		slog.Error("Failed to initialize artifact storage", "error", err)
		os.Exit(1)
	}

	basicAuth := web.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := web.NewServer(svc, journal, store, *tempDir, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}

// configPathFromArgs finds the --config value without a full flag
// parse.
func configPathFromArgs(args []string) string {
	for i, arg := range args {
		switch {
		case arg == "--config" || arg == "-config":
			if i+1 < len(args) {
				return args[i+1]
			}
		case strings.HasPrefix(arg, "--config="):
			return strings.TrimPrefix(arg, "--config=")
		case strings.HasPrefix(arg, "-config="):
			return strings.TrimPrefix(arg, "-config=")
		}
	}
	return os.Getenv("RECEIPT_REEL_CONFIG")
}

// runOnce processes a single file, prints the ledger as a table, and
// writes the CSV next to the input.
func runOnce(svc *pipeline.Service, inputPath string) error {
	kind := pipeline.DetectKind(inputPath, "")
	if kind == pipeline.KindUnknown {
		return fmt.Errorf("unsupported input file %q", inputPath)
	}

	report := pipeline.ProgressFunc(func(line string) {
		fmt.Fprintln(os.Stderr, line)
	})

	result, err := svc.Process(context.Background(), inputPath, kind, report)
	if err != nil {
		return err
	}
	if len(result.Rows) == 0 {
		fmt.Fprintln(os.Stderr, "No items were extracted.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Date", "Quantity", "Item Name", "Cost Per Item ($)"})
	for _, row := range result.Rows {
		t.AppendRow(table.Row{row.Date, row.Quantity, row.Name, row.UnitPrice})
	}
	t.Render()

	outPath := strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".ledger.csv"
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := ledger.WriteCSV(out, result.Rows); err != nil {
		out.Close()
		return fmt.Errorf("writing ledger: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing output file: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", outPath)
	return nil
}
