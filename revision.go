// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfrecon

// Revision extraction: every %%EOF except the last delimits a complete
// prior version of the document; the bytes from the start of the file up to
// and including that marker are a standalone PDF. Extraction is a verbatim
// byte-prefix copy, with no repair and no rewriting.

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfrecon/pdfrecon/logger"
)

// RevisionStatus describes the state of an extracted prior version.
type RevisionStatus string

const (
	RevisionValid             RevisionStatus = "Valid"
	RevisionCorrupt           RevisionStatus = "Corrupt"
	RevisionVisuallyIdentical RevisionStatus = "VisuallyIdentical"
)

// Revision is one extracted prior version of a scanned file.
type Revision struct {
	// Index is 1-based in revision order: earliest save = 1. The latest
	// version is never materialized as a Revision, it is the file itself.
	Index      int
	ByteRange  [2]int64
	Status     RevisionStatus
	Reason     string
	OutputPath string
}

// ExtractRevisions parses the file at path and materializes each prior
// revision as <stem>_rev<K>.pdf under outDir. Callable independently of a
// full scan.
func ExtractRevisions(path, outDir string, cfg *Config) ([]Revision, error) {
	d, err := Open(path, cfg)
	if err != nil {
		return nil, err
	}
	return d.extractRevisions(outDir)
}

func (d *Document) extractRevisions(outDir string) ([]Revision, error) {
	if len(d.EOFOffsets) < 2 {
		return nil, nil
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}

	stem := strings.TrimSuffix(filepath.Base(d.Path), filepath.Ext(d.Path))
	var revisions []Revision
	for i := 0; i < len(d.EOFOffsets)-1; i++ {
		end := d.EOFOffsets[i]
		if end <= 0 || end > int64(len(d.SourceBytes)) {
			continue
		}
		rev := Revision{
			Index:      i + 1,
			ByteRange:  [2]int64{0, end},
			Status:     RevisionValid,
			OutputPath: filepath.Join(outDir, fmt.Sprintf("%s_rev%d.pdf", stem, i+1)),
		}
		prefix := d.SourceBytes[:end]

		// The prefix must itself parse to a revision with a usable xref
		// section; a corrupt one is still written out for manual
		// inspection but flagged so report writers can exclude it.
		if reason := checkRevisionParses(rev.OutputPath, prefix, d.cfg); reason != "" {
			rev.Status = RevisionCorrupt
			rev.Reason = reason
			logger.Debug("extracted revision is corrupt", "index", rev.Index, "reason", reason)
		}

		if err := os.WriteFile(rev.OutputPath, prefix, 0o644); err != nil {
			rev.Status = RevisionCorrupt
			rev.Reason = err.Error()
			rev.OutputPath = ""
		}
		revisions = append(revisions, rev)
	}
	return revisions, nil
}

// checkRevisionParses re-parses the candidate prefix and reports why it is
// unusable, or "" when it parses to at least one xref section.
func checkRevisionParses(path string, prefix []byte, cfg *Config) string {
	rd, err := ParseBytes(path, prefix, cfg)
	if err != nil {
		return err.Error()
	}
	if len(rd.XRefSections) == 0 {
		return "no parseable xref section in revision"
	}
	if len(rd.Objects) == 0 {
		return "no objects resolvable in revision"
	}
	return ""
}
