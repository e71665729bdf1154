package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/text/encoding"

	"scenenorm/internal/convert"
	"scenenorm/internal/ctxlog"
	"scenenorm/internal/preview"
	"scenenorm/internal/scene"
)

// Config holds all shared settings for a batch run.
type Config struct {
	SourceDir string
	DestDir   string
	Charset   encoding.Encoding
	Workers   int

	// Preview is nil when previews are disabled.
	Preview *preview.Options

	// ProgressEvery is the progress log interval; zero means 2s.
	ProgressEvery time.Duration
}

// Job is one source file to convert.
type Job struct {
	Source string
	Rel    string // path relative to the source root
	Kind   convert.Kind
}

// Result holds the outcome of processing one file.
type Result struct {
	Source   string
	Output   string
	Kind     convert.Kind
	Records  int
	Dialect  string
	Warnings []string
	Preview  string
	Success  bool
	Error    string
}

// Discover walks root and returns a job for every supported file, in
// lexical order. Files with other extensions are logged and skipped.
// Anything under skip (typically the destination tree) is not visited.
func Discover(ctx context.Context, root, skip string) ([]Job, error) {
	logger := ctxlog.FromContext(ctx)

	var skipAbs string
	if skip != "" {
		skipAbs, _ = filepath.Abs(skip)
	}

	var jobs []Job
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipAbs != "" && path != root {
				if abs, _ := filepath.Abs(path); abs == skipAbs {
					return filepath.SkipDir
				}
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		kind, ok := convert.KindOf(path)
		if !ok {
			logger.Warn("Skipping unsupported file", "path", rel)
			return nil
		}
		jobs = append(jobs, Job{Source: path, Rel: rel, Kind: kind})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("batch: walk %s: %w", root, err)
	}
	return jobs, nil
}

// Run processes all jobs using a worker pool. Once ctx is cancelled no new
// jobs are started; their results carry the context error.
func Run(ctx context.Context, cfg Config, jobs []Job) []Result {
	logger := ctxlog.FromContext(ctx)
	total := len(jobs)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()
	every := cfg.ProgressEvery
	if every <= 0 {
		every = 2 * time.Second
	}

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					logger.Info("Progress", "done", p, "total", total, "files_per_sec", float64(p)/elapsed)
				}
			}
		}
	}()

	// Worker pool
	workers := max(cfg.Workers, 1)
	jobChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				if err := ctx.Err(); err != nil {
					results[idx] = failed(cfg, jobs[idx], err)
				} else {
					results[idx] = processJob(ctx, cfg, jobs[idx])
				}
				processed.Add(1)
			}
		}()
	}

	// Send work
	for i := range jobs {
		jobChan <- i
	}
	close(jobChan)

	wg.Wait()
	close(done)

	return results
}

func outputPath(cfg Config, job Job) string {
	return filepath.Join(cfg.DestDir, job.Rel)
}

func failed(cfg Config, job Job, err error) Result {
	return Result{
		Source: job.Rel,
		Output: outputPath(cfg, job),
		Kind:   job.Kind,
		Error:  err.Error(),
	}
}

func processJob(ctx context.Context, cfg Config, job Job) Result {
	logger := ctxlog.FromContext(ctx).With("file", job.Rel, "kind", string(job.Kind))
	dst := outputPath(cfg, job)

	out, err := convert.File(job.Source, dst, convert.Options{Charset: cfg.Charset})
	if err != nil {
		logger.Error("Conversion failed", "error", err)
		return failed(cfg, job, err)
	}

	res := Result{
		Source:  job.Rel,
		Output:  dst,
		Kind:    job.Kind,
		Records: out.Records,
		Dialect: out.Dialect,
		Success: true,
	}
	for _, w := range out.Warnings {
		logger.Warn(w.Msg, "line", w.Line, "field", w.Field)
		res.Warnings = append(res.Warnings, w.String())
	}

	if job.Kind == convert.Mesh && cfg.Preview != nil {
		path, err := renderPreview(ctx, cfg, job, dst)
		if err != nil {
			logger.Warn("Preview failed", "error", err)
			res.Warnings = append(res.Warnings, err.Error())
		} else {
			res.Preview = path
		}
	}

	attrs := []any{"records", res.Records, "output", dst}
	if res.Dialect != "" {
		attrs = append(attrs, "dialect", res.Dialect)
	}
	logger.Info("Converted", attrs...)
	return res
}

// renderPreview draws the normalized mesh at dst, colored by the materials of
// the source file's sibling .atr when there is one.
func renderPreview(ctx context.Context, cfg Config, job Job, dst string) (string, error) {
	surfaces, err := siblingSurfaces(job.Source, cfg.Charset)
	if err != nil {
		ctxlog.FromContext(ctx).Debug("No preview materials", "file", job.Rel, "error", err)
	}
	return preview.File(dst, surfaces, *cfg.Preview)
}

func siblingSurfaces(src string, charset encoding.Encoding) ([]scene.Surface, error) {
	atrPath := strings.TrimSuffix(src, filepath.Ext(src)) + "." + string(convert.Material)
	f, err := os.Open(atrPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := convert.Decode(convert.Material, convert.Reader(f, charset), &buf); err != nil {
		return nil, err
	}
	return scene.LoadSurfaces(&buf)
}
