// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfrecon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pdfrecon/pdfrecon/logger"
	"golang.org/x/sync/semaphore"
)

// Processor defines the contract for scanning PDF files for alteration
// indicators.
type Processor interface {
	ScanFile(ctx context.Context, path string) (*FileReport, error)
	ScanDir(ctx context.Context, dir string) ([]*FileReport, error)
}

// cacheKey identifies an unchanged file: same path, mtime, and size means
// the cached FileReport is still valid.
type cacheKey struct {
	path  string
	mtime int64
	size  int64
}

// processor fans per-file scans out across a bounded worker pool. Each scan
// is self-contained and shares no mutable state with any other; the only
// shared state is the read-only Config and the mutex-guarded report cache.
type processor struct {
	cfg      *Config
	sem      *semaphore.Weighted
	analyzer *Analyzer

	mu    sync.Mutex
	cache map[cacheKey]*FileReport
}

// NewProcessor validates the config and creates a new processor. Analyzer
// options (page renderer, extended metadata extractor) are passed through.
func NewProcessor(cfg *Config, opts ...AnalyzerOption) *processor {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	if cfg.Logger != nil {
		logger.SetLogger(cfg.Logger)
	}

	logger.Debug(fmt.Sprintf("Processor initialized: parsing_mode=%v, max_concurrent_pdfs=%d",
		cfg.ParsingMode, cfg.MaxConcurrentPDFs), true)

	return &processor{
		cfg:      cfg,
		sem:      semaphore.NewWeighted(int64(cfg.MaxConcurrentPDFs)),
		analyzer: NewAnalyzer(cfg, opts...),
		cache:    make(map[cacheKey]*FileReport),
	}
}

// ScanFile scans one file, consulting the (path, mtime, size) cache first.
func (p *processor) ScanFile(ctx context.Context, path string) (*FileReport, error) {
	if err := p.acquireSlot(ctx); err != nil {
		return nil, err
	}
	defer p.sem.Release(1)
	return p.scanCached(ctx, path)
}

func (p *processor) scanCached(ctx context.Context, path string) (*FileReport, error) {
	key, ok := statKey(path)
	if ok {
		p.mu.Lock()
		cached := p.cache[key]
		p.mu.Unlock()
		if cached != nil {
			logger.Debug(fmt.Sprintf("Cache hit: path=%s", path), true)
			return cached, nil
		}
	}

	report, err := p.scanWithRetries(ctx, path)
	if err != nil {
		return nil, err
	}

	if ok {
		p.mu.Lock()
		p.cache[key] = report
		p.mu.Unlock()
	}
	return report, nil
}

func (p *processor) scanWithRetries(ctx context.Context, path string) (*FileReport, error) {
	var report *FileReport
	var err error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		scanCtx, cancel := context.WithTimeout(ctx, p.cfg.WorkerTimeout)
		report, err = p.analyzer.Scan(scanCtx, path)
		cancel()
		if err == nil {
			return report, nil
		}
		if ctx.Err() != nil {
			// The enclosing context tripped, not the per-attempt timeout.
			return nil, ctx.Err()
		}
		logger.Debug(fmt.Sprintf("Retrying scan: path=%s attempt=%d err=%v", path, attempt, err), true)
	}
	return nil, err
}

// ScanDir scans every *.pdf under dir (non-recursive), in parallel up to
// MaxConcurrentPDFs, and returns the reports ordered by path.
func (p *processor) ScanDir(ctx context.Context, dir string) ([]*FileReport, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	logger.Debug(fmt.Sprintf("Scanning directory: dir=%s files=%d", dir, len(paths)), true)

	reports := make([]*FileReport, len(paths))
	var wg sync.WaitGroup
	for i, path := range paths {
		if err := p.acquireSlot(ctx); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			defer p.sem.Release(1)
			report, err := p.scanCached(ctx, path)
			if err != nil {
				logger.Error(fmt.Sprintf("scan failed: path=%s err=%v", path, err))
				return
			}
			reports[i] = report
		}(i, path)
	}
	wg.Wait()

	out := make([]*FileReport, 0, len(reports))
	for _, r := range reports {
		if r != nil {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (p *processor) acquireSlot(ctx context.Context) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire slot: %w", err)
	}
	return nil
}

func statKey(path string) (cacheKey, bool) {
	fi, err := os.Stat(path)
	if err != nil {
		return cacheKey{}, false
	}
	return cacheKey{path: path, mtime: fi.ModTime().UnixNano(), size: fi.Size()}, true
}
