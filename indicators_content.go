// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfrecon

// Content-stream and metadata evaluators.

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

func evalSuspiciousTextPositioning(d *Document, cfg *Config) []Finding {
	var ev []string
	for i, st := range d.ContentStats() {
		if st.MaxPositioningPerBlock >= cfg.TextPositioningThreshold {
			ev = append(ev, fmt.Sprintf("page %d: %d positioning operators in one BT/ET block", i+1, st.MaxPositioningPerBlock))
		}
	}
	if len(ev) == 0 {
		return nil
	}
	return []Finding{{
		Kind:     SuspiciousTextPositioning,
		Severity: SeverityMedium,
		Evidence: ev,
		Summary:  "dense glyph-by-glyph text positioning: text was overlaid or reconstructed rather than typeset",
	}}
}

func evalWhiteRectangleOverlay(d *Document, _ *Config) []Finding {
	var ev []string
	for i, st := range d.ContentStats() {
		if st.WhiteFillRects >= 2 {
			ev = append(ev, fmt.Sprintf("page %d: %d white-filled rectangles", i+1, st.WhiteFillRects))
		}
	}
	if len(ev) == 0 {
		return nil
	}
	return []Finding{{
		Kind:     WhiteRectangleOverlay,
		Severity: SeverityMedium,
		Evidence: ev,
		Summary:  "white rectangles drawn over the page: content may be masked rather than removed",
	}}
}

func evalExcessiveDrawingOperations(d *Document, cfg *Config) []Finding {
	var ev []string
	for i, st := range d.ContentStats() {
		if st.DrawingOps > cfg.DrawingOpsThreshold {
			ev = append(ev, fmt.Sprintf("page %d: %d drawing operators", i+1, st.DrawingOps))
		}
	}
	if len(ev) == 0 {
		return nil
	}
	return []Finding{{
		Kind:     ExcessiveDrawingOperations,
		Severity: SeverityMedium,
		Evidence: ev,
		Summary:  "unusually many drawing operations on a page",
	}}
}

func evalXmpHistory(d *Document, _ *Config) []Finding {
	hist := d.Metadata().History
	if len(hist) == 0 {
		return nil
	}
	ev := make([]string, len(hist))
	for i, h := range hist {
		parts := []string{}
		if h.WhenRaw != "" {
			parts = append(parts, h.WhenRaw)
		}
		if h.Action != "" {
			parts = append(parts, h.Action)
		}
		if h.SoftwareAgent != "" {
			parts = append(parts, h.SoftwareAgent)
		}
		ev[i] = strings.Join(parts, " ")
	}
	return []Finding{{
		Kind:     XmpHistory,
		Severity: SeverityMedium,
		Evidence: ev,
		Summary:  fmt.Sprintf("XMP records %d editing event(s)", len(hist)),
	}}
}

// infoAtRevision parses the /Info dictionary as it stood in one xref
// section, using that section's own entry offsets so shadowed prior
// versions of the object are read, not the merged view.
func infoAtRevision(d *Document, sec XRefSection) map[string]string {
	ptr, ok := sec.Trailer[name("Info")].(objptr)
	if !ok {
		return nil
	}
	rec, ok := sec.Entries[ObjectID{Number: ptr.id, Generation: ptr.gen}]
	if !ok || rec.inStream {
		return nil
	}
	b := d.newBufferAt(rec.offset)
	def, ok := b.readObject().(objdef)
	if !ok {
		return nil
	}
	dk, ok := def.obj.(dict)
	if !ok {
		return nil
	}
	out := map[string]string{}
	for k, v := range dk {
		if s, ok := v.(string); ok {
			out[string(k)] = decodeTextString(s)
		}
	}
	return out
}

func decodeTextString(s string) string {
	if isUTF16(s) {
		return utf16Decode(s[2:])
	}
	return pdfDocDecode(s)
}

func evalMultipleCreatorsOrProducers(d *Document, _ *Config) []Finding {
	meta := d.Metadata()
	var ev []string

	infoCreator := meta.Info["Creator"]
	xmpCreator := meta.XMP["xmp:CreatorTool"]
	if infoCreator != "" && xmpCreator != "" && infoCreator != xmpCreator {
		ev = append(ev, fmt.Sprintf("Info /Creator %q != xmp:CreatorTool %q", infoCreator, xmpCreator))
	}
	infoProducer := meta.Info["Producer"]
	xmpProducer := meta.XMP["pdf:Producer"]
	if infoProducer != "" && xmpProducer != "" && infoProducer != xmpProducer {
		ev = append(ev, fmt.Sprintf("Info /Producer %q != pdf:Producer %q", infoProducer, xmpProducer))
	}

	creators := map[string]bool{}
	producers := map[string]bool{}
	for _, sec := range d.XRefSections {
		info := infoAtRevision(d, sec)
		if c := info["Creator"]; c != "" {
			creators[c] = true
		}
		if p := info["Producer"]; p != "" {
			producers[p] = true
		}
	}
	if len(creators) > 1 {
		ev = append(ev, "distinct /Creator values across revisions: "+joinSorted(creators))
	}
	if len(producers) > 1 {
		ev = append(ev, "distinct /Producer values across revisions: "+joinSorted(producers))
	}

	if len(ev) == 0 {
		return nil
	}
	return []Finding{{
		Kind:     MultipleCreatorsOrProducers,
		Severity: SeverityMedium,
		Evidence: ev,
		Summary:  "more than one application has written this file",
	}}
}

func joinSorted(set map[string]bool) string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, fmt.Sprintf("%q", k))
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}

// dateTolerance is the slack allowed between Info and XMP timestamps
// before DateInconsistency fires.
const dateTolerance = time.Second

func evalDateInconsistency(d *Document, _ *Config) []Finding {
	meta := d.Metadata()
	var ev []string
	check := func(label string, info, xmp time.Time) {
		if info.IsZero() || xmp.IsZero() {
			return
		}
		diff := info.Sub(xmp)
		if diff < 0 {
			diff = -diff
		}
		if diff > dateTolerance {
			ev = append(ev, fmt.Sprintf("%s: Info %s vs XMP %s", label,
				info.UTC().Format(time.RFC3339), xmp.UTC().Format(time.RFC3339)))
		}
	}
	check("CreationDate", meta.CreationDate, meta.XMPCreate)
	check("ModDate", meta.ModDate, meta.XMPModify)
	if len(ev) == 0 {
		return nil
	}
	return []Finding{{
		Kind:     DateInconsistency,
		Severity: SeverityMedium,
		Evidence: ev,
		Summary:  "Info and XMP timestamps disagree: one metadata layer was edited without the other",
	}}
}
