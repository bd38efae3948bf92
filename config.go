// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfrecon

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pdfrecon/pdfrecon/logger"
)

// ParsingMode controls how a scan treats local parse errors. The parser
// itself behaves the same in both modes and records each problem as a
// ParseError. Strict then stops the scan after the parse stage whenever any
// ParseError was recorded, returning a report that carries those errors and
// no findings; BestEffort keeps going with whatever structure was recovered,
// which is the analyzer's default posture since a forensic tool must still
// produce a report for a damaged file. A FatalError ends the scan in either
// mode.
type ParsingMode string

const (
	Strict     ParsingMode = "strict"
	BestEffort ParsingMode = "best-effort"
)

// Config is the read-only, process-wide configuration object: evaluator
// thresholds, the visual-check DPI, and stream/worker limits. One Config is
// shared read-only across every concurrent per-file scan; nothing in it is
// mutated after Validate succeeds.
type Config struct {
	MaxConcurrentPDFs int           `validate:"min=1,max=64"`
	WorkerTimeout     time.Duration `validate:"required"`
	ParsingMode       ParsingMode   `validate:"oneof=strict best-effort"`
	MaxRetries        int           `validate:"min=0,max=3"`
	DebugOn           bool

	// Indicator thresholds. These are policy, not physics. The white-fill
	// rectangle count (2), the CropBox/MediaBox area ratio (0.8) and the
	// Info/XMP date tolerance (1s) are fixed in the evaluators, not set here.
	TextPositioningThreshold int     `validate:"min=1"`
	DrawingOpsThreshold      int     `validate:"min=1"`
	OrphanObjectsThreshold   int     `validate:"min=0"`
	ObjectGapFraction        float64 `validate:"gt=0,lt=1"`
	FormFieldsThreshold      int     `validate:"min=1"`
	VisualCheckPages         int     `validate:"min=1"`
	VisualCheckDPI           int     `validate:"min=36,max=600"`
	MaxStreamSize            int64   `validate:"min=1"`

	RevisionOutputDir string `validate:"required"`

	Logger logger.LogFunc
}

func NewDefaultConfig() *Config {
	return &Config{
		MaxConcurrentPDFs: 5,
		WorkerTimeout:     30 * time.Second,
		ParsingMode:       BestEffort,
		MaxRetries:        3,
		DebugOn:           false,

		TextPositioningThreshold: 40,
		DrawingOpsThreshold:      50,
		OrphanObjectsThreshold:   10,
		ObjectGapFraction:        0.30,
		FormFieldsThreshold:      50,
		VisualCheckPages:         5,
		VisualCheckDPI:           72,
		MaxStreamSize:            64 << 20,

		RevisionOutputDir: "./Altered_files/",
	}
}

func (cfg *Config) Validate() error {
	logger.Debug("Validating Config Object")
	validate := validator.New()
	return validate.Struct(cfg)
}
