// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfrecon

// The visual-identity check renders the first pages of an extracted
// revision and of the final document through the injected PageRenderer and
// compares the bitmaps byte-for-byte after normalizing both to RGBA. A
// revision whose compared pages all match exactly carries no visible
// change and is marked VisuallyIdentical.

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"
)

// visuallyIdentical renders pages 0..pages-1 of both byte slices and
// reports whether every compared page matches exactly. Mismatched
// dimensions count as non-identical.
func visuallyIdentical(r PageRenderer, revBytes, finalBytes []byte, pages, dpi int) (bool, error) {
	for p := 0; p < pages; p++ {
		a, err := r.Render(revBytes, p, dpi)
		if err != nil {
			return false, fmt.Errorf("render revision page %d: %w", p+1, err)
		}
		b, err := r.Render(finalBytes, p, dpi)
		if err != nil {
			return false, fmt.Errorf("render final page %d: %w", p+1, err)
		}
		if !samePixels(a, b) {
			return false, nil
		}
	}
	return true, nil
}

// samePixels normalizes both images to RGBA and compares raw pixel bytes.
func samePixels(a, b image.Image) bool {
	if a.Bounds().Size() != b.Bounds().Size() {
		return false
	}
	ra := toRGBA(a)
	rb := toRGBA(b)
	if len(ra.Pix) != len(rb.Pix) {
		return false
	}
	for i := range ra.Pix {
		if ra.Pix[i] != rb.Pix[i] {
			return false
		}
	}
	return true
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	xdraw.Copy(dst, image.Point{}, img, img.Bounds(), xdraw.Src, nil)
	return dst
}

// markVisuallyIdenticalRevisions runs the visual check over each non-corrupt
// revision against the final document, upgrading matching revisions'
// status. Render failures are reported to the caller per revision.
func markVisuallyIdenticalRevisions(r PageRenderer, d *Document, revisions []Revision, cfg *Config) []ParseError {
	if r == nil || len(revisions) == 0 {
		return nil
	}
	pages := cfg.VisualCheckPages
	if pc := d.PageCount(); pc < pages {
		pages = pc
	}
	if pages == 0 {
		return nil
	}
	var errs []ParseError
	for i := range revisions {
		rev := &revisions[i]
		if rev.Status != RevisionValid {
			continue
		}
		identical, err := visuallyIdentical(r, d.SourceBytes[:rev.ByteRange[1]], d.SourceBytes, pages, cfg.VisualCheckDPI)
		if err != nil {
			errs = append(errs, ParseError{Category: "visual", Message: fmt.Sprintf("revision %d: %v", rev.Index, err)})
			continue
		}
		if identical {
			rev.Status = RevisionVisuallyIdentical
		}
	}
	return errs
}
