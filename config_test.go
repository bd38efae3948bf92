// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfrecon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	valid := func(mutate func(*Config)) *Config {
		cfg := NewDefaultConfig()
		mutate(cfg)
		return cfg
	}

	tests := []struct {
		name      string
		cfg       *Config
		shouldErr bool
	}{
		{
			name:      "default config is valid",
			cfg:       NewDefaultConfig(),
			shouldErr: false,
		},
		{
			name:      "invalid MaxConcurrentPDFs (too low)",
			cfg:       valid(func(c *Config) { c.MaxConcurrentPDFs = 0 }),
			shouldErr: true,
		},
		{
			name:      "missing WorkerTimeout",
			cfg:       valid(func(c *Config) { c.WorkerTimeout = 0 }),
			shouldErr: true,
		},
		{
			name:      "invalid ParsingMode",
			cfg:       valid(func(c *Config) { c.ParsingMode = "invalid-mode" }),
			shouldErr: true,
		},
		{
			name:      "invalid MaxRetries (too high)",
			cfg:       valid(func(c *Config) { c.MaxRetries = 10 }),
			shouldErr: true,
		},
		{
			name:      "zero TextPositioningThreshold",
			cfg:       valid(func(c *Config) { c.TextPositioningThreshold = 0 }),
			shouldErr: true,
		},
		{
			name:      "ObjectGapFraction out of range",
			cfg:       valid(func(c *Config) { c.ObjectGapFraction = 1.5 }),
			shouldErr: true,
		},
		{
			name:      "zero VisualCheckPages",
			cfg:       valid(func(c *Config) { c.VisualCheckPages = 0 }),
			shouldErr: true,
		},
		{
			name:      "DPI below minimum",
			cfg:       valid(func(c *Config) { c.VisualCheckDPI = 10 }),
			shouldErr: true,
		},
		{
			name:      "zero MaxStreamSize",
			cfg:       valid(func(c *Config) { c.MaxStreamSize = 0 }),
			shouldErr: true,
		},
		{
			name:      "empty RevisionOutputDir",
			cfg:       valid(func(c *Config) { c.RevisionOutputDir = "" }),
			shouldErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.shouldErr {
				assert.Error(t, err, "expected validation error")
			} else {
				assert.NoError(t, err, "expected validation to pass")
			}
		})
	}
}

func TestNewDefaultConfig_Thresholds(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.Equal(t, 40, cfg.TextPositioningThreshold)
	assert.Equal(t, 50, cfg.DrawingOpsThreshold)
	assert.Equal(t, 10, cfg.OrphanObjectsThreshold)
	assert.Equal(t, 0.30, cfg.ObjectGapFraction)
	assert.Equal(t, 50, cfg.FormFieldsThreshold)
	assert.Equal(t, 5, cfg.VisualCheckPages)
	assert.Equal(t, 72, cfg.VisualCheckDPI)
	assert.Equal(t, int64(64<<20), cfg.MaxStreamSize)
	assert.Equal(t, "./Altered_files/", cfg.RevisionOutputDir)
}
