package ingest

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"

	"cortex/internal/domain"
	"cortex/internal/rag"
	"cortex/internal/walker"
)

// Stats reports ingestion results for a directory run.
type Stats struct {
	FilesTotal    int
	FilesIngested int
	FilesSkipped  int
	FilesFailed   int
	ChunksTotal   int
}

// ProgressFunc receives progress updates during ingestion.
type ProgressFunc func(path string, ingested, total int)

// Config configures a directory ingestion run.
type Config struct {
	Workspace string
	// Replace re-ingests paths that already exist instead of skipping them.
	Replace bool
	Workers int
}

// Run walks root for supported document files and ingests each through the
// service. Files ingest in parallel but each file is atomic: a failure in
// one document never leaves partial chunks for it, and never affects other
// documents. Already-ingested paths are skipped unless cfg.Replace is set.
func Run(ctx context.Context, root string, svc *rag.Service, cfg Config, onProgress ProgressFunc) (*Stats, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	fileCh, walkErrCh := walker.Walk(root, svc.Extensions())

	var (
		mu            sync.Mutex
		stats         Stats
		firstErr      error
		filesTotal    atomic.Int64
		filesIngested atomic.Int64
	)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for fi := range fileCh {
				filesTotal.Add(1)
				if ctx.Err() != nil {
					continue
				}

				data, err := os.ReadFile(fi.Path)
				if err != nil {
					recordFailure(&mu, &stats, &firstErr, fmt.Errorf("read %s: %w", fi.RelPath, err))
					continue
				}

				mimeHint := mime.TypeByExtension(filepath.Ext(fi.Path))
				res, err := svc.Ingest(ctx, fi.RelPath, data, mimeHint, cfg.Workspace, cfg.Replace)
				if err != nil {
					if errors.Is(err, domain.ErrDuplicateSource) {
						mu.Lock()
						stats.FilesSkipped++
						mu.Unlock()
						continue
					}
					recordFailure(&mu, &stats, &firstErr, fmt.Errorf("ingest %s: %w", fi.RelPath, err))
					continue
				}

				mu.Lock()
				stats.FilesIngested++
				stats.ChunksTotal += res.ChunkCount
				mu.Unlock()

				if onProgress != nil {
					onProgress(fi.RelPath, int(filesIngested.Add(1)), int(filesTotal.Load()))
				}
			}
		}()
	}
	wg.Wait()

	if err := <-walkErrCh; err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	if err := ctx.Err(); err != nil {
		return &stats, err
	}

	stats.FilesTotal = int(filesTotal.Load())
	if firstErr != nil {
		return &stats, firstErr
	}
	return &stats, nil
}

func recordFailure(mu *sync.Mutex, stats *Stats, firstErr *error, err error) {
	mu.Lock()
	stats.FilesFailed++
	if *firstErr == nil {
		*firstErr = err
	}
	mu.Unlock()
}
