// Command scenenorm converts a tree of scene description files (.brs, .atr,
// .cam, .lgt) into the numeric formats read by the renderer.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"scenenorm/internal/batch"
	"scenenorm/internal/config"
	"scenenorm/internal/convert"
	"scenenorm/internal/ctxlog"
	"scenenorm/internal/preview"
)

// exitError carries a process exit code.
type exitError struct {
	Code    int
	Message string
}

func (e *exitError) Error() string {
	return e.Message
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			if exitErr.Message != "" {
				fmt.Fprintln(os.Stderr, exitErr.Message)
			}
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("scenenorm", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configFile := fs.String("config", "", "Path to a .json or .hcl config file")
	source := fs.String("source", "", "Source directory to convert")
	dest := fs.String("dest", "", "Destination directory (default: <source>-normalized)")
	workers := fs.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	charset := fs.String("encoding", "", "Source file encoding, e.g. windows-1252 (default: utf-8)")
	previews := fs.Bool("preview", false, "Render a preview image for each mesh")
	previewFormat := fs.String("preview-format", "", "Preview image format: webp, tga or bmp (default: webp)")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn, error (default: info)")
	logFormat := fs.String("log-format", "", "Log format: text or json (default: text)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return &exitError{Code: 2, Message: err.Error()}
	}
	if *source == "" && fs.NArg() > 0 {
		*source = fs.Arg(0)
	}

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			return err
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		SourceDir:     *source,
		DestDir:       *dest,
		Charset:       *charset,
		Workers:       *workers,
		LogLevel:      *logLevel,
		LogFormat:     *logFormat,
		Preview:       *previews,
		PreviewFormat: *previewFormat,
	})
	if err := cfg.Validate(); err != nil {
		return &exitError{Code: 2, Message: err.Error()}
	}

	logger, err := ctxlog.New(stderr, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return &exitError{Code: 2, Message: err.Error()}
	}
	ctx = ctxlog.WithLogger(ctx, logger)

	enc, err := convert.Charset(cfg.Charset)
	if err != nil {
		return &exitError{Code: 2, Message: err.Error()}
	}

	jobs, err := batch.Discover(ctx, cfg.SourceDir, cfg.DestDir)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Fprintln(stdout, "No files to convert.")
		return nil
	}

	batchCfg := batch.Config{
		SourceDir: cfg.SourceDir,
		DestDir:   cfg.DestDir,
		Charset:   enc,
		Workers:   cfg.Workers,
	}
	if cfg.Preview.Enabled {
		batchCfg.Preview = &preview.Options{
			Format:      cfg.Preview.Format,
			Size:        cfg.Preview.Size,
			Supersample: cfg.Preview.Supersample,
		}
	}

	logger.Info("Starting conversion",
		"source", cfg.SourceDir, "dest", cfg.DestDir, "files", len(jobs), "workers", cfg.Workers)
	start := time.Now()

	results := batch.Run(ctx, batchCfg, jobs)

	// Count results
	success, failed := 0, 0
	for _, r := range results {
		if r.Success {
			success++
		} else {
			failed++
		}
	}
	logger.Info("Done", "converted", success, "failed", failed, "elapsed", time.Since(start).Round(time.Millisecond))

	// Write manifest
	manifestPath := cfg.Manifest
	if !filepath.IsAbs(manifestPath) {
		manifestPath = filepath.Join(cfg.DestDir, manifestPath)
	}
	if err := batch.WriteManifest(manifestPath, results); err != nil {
		logger.Warn("Manifest write failed", "path", manifestPath, "error", err)
	} else {
		fmt.Fprintf(stdout, "Manifest: %s\n", manifestPath)
	}

	fmt.Fprintf(stdout, "Converted: %d/%d\n", success, len(results))
	if failed > 0 {
		return &exitError{Code: 1, Message: fmt.Sprintf("%d file(s) failed", failed)}
	}
	return nil
}
