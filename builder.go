package lapindex

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-zglob"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Builder collects every session document in the sessions directory into a single Index.
type Builder struct {
	config     *Config
	summarizer Summarizer
	logger     Logger
}

func NewBuilder(config *Config, logger Logger) *Builder {
	return &Builder{
		config:     config,
		summarizer: config.Summarizer(),
		logger:     logger,
	}
}

type BuildStats struct {
	Files    int
	Sessions int
	Dropped  int
	Failed   int
	Laps     int
	Duration time.Duration
}

// Discover lists the session documents to index, sorted by path. The output file is never
// included even when it matches the pattern.
func (b *Builder) Discover() ([]string, error) {
	info, err := os.Stat(b.config.SessionsDir)

	if err != nil && os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrSessionsDirNotFound, "%s", b.config.SessionsDir)
	} else if err != nil {
		return nil, errors.Wrapf(err, "could not read sessions directory %s", b.config.SessionsDir)
	}

	if !info.IsDir() {
		return nil, errors.Wrapf(ErrSessionsDirNotFound, "%s is not a directory", b.config.SessionsDir)
	}

	matches, err := zglob.Glob(filepath.Join(b.config.SessionsDir, b.config.Pattern))

	if err != nil && os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "could not match %s in %s", b.config.Pattern, b.config.SessionsDir)
	}

	outputPath, err := filepath.Abs(b.config.OutputPath())

	if err != nil {
		return nil, err
	}

	sessionsDir, err := filepath.Abs(b.config.SessionsDir)

	if err != nil {
		return nil, err
	}

	// a file sharing the output's name is only the output when it lives in the sessions dir
	outputInSessionsDir := filepath.Dir(outputPath) == sessionsDir
	outputName := filepath.Base(outputPath)

	var paths []string

	for _, match := range matches {
		if outputInSessionsDir && filepath.Base(match) == outputName {
			continue
		}

		if abs, err := filepath.Abs(match); err == nil && abs == outputPath {
			continue
		}

		info, err := os.Stat(match)

		if err != nil || info.IsDir() {
			continue
		}

		paths = append(paths, match)
	}

	sort.Strings(paths)

	return paths, nil
}

type fileResult struct {
	path    string
	summary *SessionSummary
	err     error
}

// Build reads and summarizes every discovered file. Files that can't be read and records
// without a session_id are logged and counted, they don't stop the build.
func (b *Builder) Build(ctx context.Context) (*Index, *BuildStats, error) {
	started := time.Now()

	paths, err := b.Discover()

	if err != nil {
		return nil, nil, err
	}

	b.logger.Debugf("Found %d session files in %s", len(paths), b.config.SessionsDir)

	results := make([]fileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)

	if b.config.Workers > 0 {
		g.SetLimit(b.config.Workers)
	}

	for i, path := range paths {
		i, path := i, path

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			results[i] = b.summarizeFile(path)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	index := &Index{Sessions: make([]*SessionSummary, 0, len(results))}
	stats := &BuildStats{Files: len(results)}

	for _, result := range results {
		switch {
		case result.err == nil:
			index.Sessions = append(index.Sessions, result.summary)
			stats.Sessions++
			stats.Laps += result.summary.LapsCount
		case errors.Is(result.err, ErrNoSessionID):
			b.logger.Warnf("Skipping %s: no session_id", result.path)
			stats.Dropped++
		default:
			b.logger.WithError(result.err).Errorf("Could not read %s", result.path)
			stats.Failed++
		}
	}

	stats.Duration = time.Since(started)

	return index, stats, nil
}

func (b *Builder) summarizeFile(path string) fileResult {
	record, err := ReadSessionFile(path)

	if err != nil {
		return fileResult{path: path, err: err}
	}

	summary, ok := b.summarizer.Summarize(record)

	if !ok {
		return fileResult{path: path, err: ErrNoSessionID}
	}

	b.logger.Debugf("Summarized session %s from %s: %d valid laps", record.ID(), path, summary.LapsCount)

	return fileResult{path: path, summary: summary}
}

// Run builds the index and writes it to the configured output file.
func (b *Builder) Run(ctx context.Context) (*Index, *BuildStats, error) {
	index, stats, err := b.Build(ctx)

	if err != nil {
		return nil, nil, err
	}

	outputPath := b.config.OutputPath()

	n, err := WriteIndex(outputPath, index, b.config.Indent)

	if err != nil {
		return nil, nil, err
	}

	b.logger.Infof("Created %s (%s) with %d sessions", outputPath, humanize.Bytes(uint64(n)), stats.Sessions)

	if stats.Dropped > 0 || stats.Failed > 0 {
		b.logger.Warnf("%d files had no session_id, %d files could not be read", stats.Dropped, stats.Failed)
	}

	return index, stats, nil
}
