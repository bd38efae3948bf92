// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfrecon

// Classification and report assembly, plus the Analyzer front door that
// runs the whole scan pipeline for one file. A scan is sequential and
// single-threaded; the caller decides how many scans run in parallel.

import (
	"context"
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pdfrecon/pdfrecon/logger"
)

// Classification is the per-file risk level.
type Classification string

const (
	Red    Classification = "Red"
	Yellow Classification = "Yellow"
	Green  Classification = "Green"
)

// TimelineEvent is one dated event merged from Info, XMP, XMP history, and
// signature timestamps.
type TimelineEvent struct {
	When   time.Time
	Source string
	Event  string
}

// FileReport is the per-file scan output. It exclusively owns its Findings
// and Revisions; every evidence string is a copy, nothing references the
// Document the scan parsed.
type FileReport struct {
	Path           string
	Size           int64
	MD5            string
	Findings       []Finding
	Revisions      []Revision
	Classification Classification
	Timeline       []TimelineEvent
	Errors         []ParseError
}

// Analyzer runs scans. One Analyzer is safe for concurrent use by multiple
// goroutines: it holds only the read-only Config and the injected
// collaborators.
type Analyzer struct {
	cfg      *Config
	renderer PageRenderer
	extMeta  ExtendedMetadataExtractor
}

// AnalyzerOption configures collaborators on an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithPageRenderer supplies the rendering capability the visual-identity
// check needs. Without it, revisions are never marked VisuallyIdentical.
func WithPageRenderer(r PageRenderer) AnalyzerOption {
	return func(a *Analyzer) { a.renderer = r }
}

// WithExtendedMetadata supplies an external metadata extractor whose
// qualified keys supplement the analyzer's own Info/XMP parsing.
func WithExtendedMetadata(e ExtendedMetadataExtractor) AnalyzerOption {
	return func(a *Analyzer) { a.extMeta = e }
}

func NewAnalyzer(cfg *Config, opts ...AnalyzerOption) *Analyzer {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	a := &Analyzer{cfg: cfg}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Scan performs the full pipeline on one file. It never panics and only
// returns a non-nil error on cancellation; every file-level failure is
// folded into the FileReport instead.
func (a *Analyzer) Scan(ctx context.Context, path string) (*FileReport, error) {
	report := &FileReport{Path: path, Classification: Green}

	data, err := os.ReadFile(path)
	if err != nil {
		report.Errors = append(report.Errors, ParseError{Category: "file", Message: err.Error()})
		return report, nil
	}
	report.Size = int64(len(data))
	report.MD5 = fmt.Sprintf("%x", md5.Sum(data))

	d, err := ParseBytes(path, data, a.cfg)
	if err != nil {
		// Fatal for the file: not a PDF. Empty findings, Green.
		report.Errors = append(report.Errors, ParseError{Category: "header", Message: err.Error()})
		return report, nil
	}
	if err := checkpoint(ctx); err != nil {
		return nil, err
	}

	// Strict mode refuses to reason about a file that did not parse
	// cleanly; the default best-effort mode presses on with whatever
	// structure was recovered.
	if a.cfg.ParsingMode == Strict && len(d.Errors) > 0 {
		report.Errors = append(report.Errors, d.Errors...)
		return report, nil
	}

	meta := d.Metadata()
	if a.extMeta != nil {
		if ext, err := a.extMeta.Extract(path); err != nil {
			d.noteErr("metadata", 0, fmt.Sprintf("extended extractor: %v", err))
		} else {
			for k, v := range ext {
				if _, ok := meta.XMP[k]; !ok {
					meta.XMP[k] = v
				}
			}
		}
	}
	if err := checkpoint(ctx); err != nil {
		return nil, err
	}

	d.ContentStats()
	if err := checkpoint(ctx); err != nil {
		return nil, err
	}

	report.Findings = EvaluateIndicators(d, a.cfg)
	if err := checkpoint(ctx); err != nil {
		return nil, err
	}

	outDir := a.cfg.RevisionOutputDir
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(filepath.Dir(path), outDir)
	}
	revisions, err := d.extractRevisions(outDir)
	if err != nil {
		d.noteErr("revision", 0, err.Error())
	}
	report.Revisions = revisions
	if err := checkpoint(ctx); err != nil {
		removeRevisionFiles(revisions)
		return nil, err
	}

	for _, e := range markVisuallyIdenticalRevisions(a.renderer, d, report.Revisions, a.cfg) {
		d.Errors = append(d.Errors, e)
	}
	if err := checkpoint(ctx); err != nil {
		removeRevisionFiles(revisions)
		return nil, err
	}

	report.Errors = append(report.Errors, d.Errors...)
	report.Timeline = buildTimeline(d)
	report.Classification = classify(report)

	logger.Debug("scan complete", "path", path,
		"classification", string(report.Classification),
		"findings", len(report.Findings), "revisions", len(report.Revisions))
	return report, nil
}

// ScanFile is the package-level convenience entry: one file, default
// collaborators, no cancellation.
func ScanFile(path string, cfg *Config) *FileReport {
	report, _ := NewAnalyzer(cfg).Scan(context.Background(), path)
	return report
}

func checkpoint(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func removeRevisionFiles(revisions []Revision) {
	for _, rev := range revisions {
		if rev.OutputPath != "" {
			_ = os.Remove(rev.OutputPath)
		}
	}
}

// classify applies the risk rule: Red on any High finding; Yellow on any
// Medium finding or any Valid revision; Green otherwise.
func classify(report *FileReport) Classification {
	for _, f := range report.Findings {
		if f.Severity == SeverityHigh {
			return Red
		}
	}
	if len(report.Findings) > 0 {
		return Yellow
	}
	for _, r := range report.Revisions {
		if r.Status == RevisionValid {
			return Yellow
		}
	}
	return Green
}

// buildTimeline merges every dated event the scan surfaced and stable-sorts
// by timestamp, so ties keep their insertion order.
func buildTimeline(d *Document) []TimelineEvent {
	meta := d.Metadata()
	var events []TimelineEvent
	add := func(when time.Time, source, event string) {
		if when.IsZero() {
			return
		}
		events = append(events, TimelineEvent{When: when, Source: source, Event: event})
	}

	add(meta.CreationDate, "Info", "CreationDate")
	add(meta.ModDate, "Info", "ModDate")
	add(meta.XMPCreate, "XMP", "xmp:CreateDate")
	add(meta.XMPModify, "XMP", "xmp:ModifyDate")
	add(meta.XMPMetadata, "XMP", "xmp:MetadataDate")
	for _, h := range meta.History {
		label := h.Action
		if h.SoftwareAgent != "" {
			label += " (" + h.SoftwareAgent + ")"
		}
		add(h.When, "XMP history", label)
	}
	for _, id := range d.sortedObjectIDs() {
		v := d.Objects[id].Value
		if v.Key("Type").Name() != "Sig" {
			continue
		}
		m := v.Key("M")
		if m.Kind() != KindString {
			continue
		}
		if t, err := ParsePDFDate(m.RawString()); err == nil {
			add(t, "Signature", fmt.Sprintf("signed (object %s)", id))
		}
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].When.Before(events[j].When) })
	return events
}
