// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfrecon

// External collaborators. The analyzer never renders pages or runs a
// third-party metadata tool itself; callers inject these and the analyzer
// degrades gracefully when they are absent.

import "image"

// PageRenderer rasterizes one page of a PDF held in memory. Used by the
// visual-identity check; when no renderer is supplied, revisions are never
// marked VisuallyIdentical.
type PageRenderer interface {
	// Render draws page pageIndex (0-based) at the given DPI.
	Render(documentBytes []byte, pageIndex int, dpi int) (image.Image, error)
}

// ExtendedMetadataExtractor supplies additional qualified-key metadata from
// an external tool. Optional; when absent the metadata reader relies solely
// on its own Info/XMP parsing.
type ExtendedMetadataExtractor interface {
	Extract(path string) (map[string]string, error)
}
