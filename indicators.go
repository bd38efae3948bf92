// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfrecon

// The indicator catalog is data, not code: one pure function per
// FindingKind, registered in the evaluators table below.
// Adding an indicator means adding a function and a table row; the
// classifier only ever looks at Severity. An evaluator that panics is
// contained here and recorded as an evaluator error, leaving every other
// evaluator unaffected.

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type evaluatorFunc func(d *Document, cfg *Config) []Finding

var evaluators = []struct {
	kind FindingKind
	fn   evaluatorFunc
}{
	{HasRevisions, evalHasRevisions},
	{TouchUpTextEdit, evalTouchUpTextEdit},
	{JavaScriptAutoExecute, evalJavaScriptAutoExecute},
	{MissingObjects, evalMissingObjects},
	{MultipleFontSubsets, evalMultipleFontSubsets},
	{MultipleCreatorsOrProducers, evalMultipleCreatorsOrProducers},
	{XmpHistory, evalXmpHistory},
	{MultipleDocumentIds, evalMultipleDocumentIds},
	{MultipleStartxref, evalMultipleStartxref},
	{ObjectsWithGenGreaterZero, evalObjectsWithGenGreaterZero},
	{MoreLayersThanPages, evalMoreLayersThanPages},
	{LinearizedAndUpdated, evalLinearizedAndUpdated},
	{HasPieceInfo, evalHasPieceInfo},
	{HasRedactions, evalHasRedactions},
	{HasAnnotations, evalHasAnnotations},
	{AcroFormNeedAppearances, evalAcroFormNeedAppearances},
	{HasDigitalSignature, evalHasDigitalSignature},
	{DateInconsistency, evalDateInconsistency},
	{MetadataVersionMismatch, evalMetadataVersionMismatch},
	{SuspiciousTextPositioning, evalSuspiciousTextPositioning},
	{WhiteRectangleOverlay, evalWhiteRectangleOverlay},
	{ExcessiveDrawingOperations, evalExcessiveDrawingOperations},
	{OrphanedObjects, evalOrphanedObjects},
	{LargeObjectNumberGaps, evalLargeObjectNumberGaps},
	{ContainsJavaScript, evalContainsJavaScript},
	{DuplicateImagesDifferentXref, evalDuplicateImages},
	{ImagesWithExif, evalImagesWithExif},
	{CropBoxMediaBoxMismatch, evalCropBoxMediaBoxMismatch},
	{ExcessiveFormFields, evalExcessiveFormFields},
	{DuplicateBookmarks, evalDuplicateBookmarks},
	{InvalidBookmarkDestinations, evalInvalidBookmarkDestinations},
}

// EvaluateIndicators runs every registered evaluator over the document and
// collects the emitted findings, in registry order.
func EvaluateIndicators(d *Document, cfg *Config) []Finding {
	var findings []Finding
	for _, ev := range evaluators {
		res, err := runEvaluator(ev.fn, d, cfg)
		if err != nil {
			d.noteErr("evaluator", 0, fmt.Sprintf("%s: %v", ev.kind, err))
			continue
		}
		findings = append(findings, res...)
	}
	return findings
}

func runEvaluator(fn evaluatorFunc, d *Document, cfg *Config) (res []Finding, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(d, cfg), nil
}

// sortedObjectIDs returns the document's defined object ids in stable
// (number, generation) order so evaluator output is deterministic.
func (d *Document) sortedObjectIDs() []ObjectID {
	ids := make([]ObjectID, 0, len(d.Objects))
	for id := range d.Objects {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Number != ids[j].Number {
			return ids[i].Number < ids[j].Number
		}
		return ids[i].Generation < ids[j].Generation
	})
	return ids
}

// forEachDict visits every dictionary in the document (object values,
// stream headers, and directly-nested sub-dictionaries) with the id of the
// enclosing indirect object. Direct nesting is a tree, so no visited set is
// needed below the object level.
func (d *Document) forEachDict(fn func(owner ObjectID, dk dict)) {
	var descend func(owner ObjectID, x object)
	descend = func(owner ObjectID, x object) {
		switch v := x.(type) {
		case dict:
			fn(owner, v)
			for _, e := range v {
				descend(owner, e)
			}
		case array:
			for _, e := range v {
				descend(owner, e)
			}
		case stream:
			descend(owner, v.hdr)
		}
	}
	for _, id := range d.sortedObjectIDs() {
		descend(id, d.Objects[id].Value.data)
	}
}

func evalHasRevisions(d *Document, _ *Config) []Finding {
	if len(d.EOFOffsets) < 2 {
		return nil
	}
	return []Finding{{
		Kind:     HasRevisions,
		Severity: SeverityHigh,
		Evidence: []string{fmt.Sprintf("%%%%EOF markers at byte offsets %v", d.EOFOffsets)},
		Summary:  fmt.Sprintf("file contains %d %%%%EOF markers: %d prior revision(s) are recoverable", len(d.EOFOffsets), len(d.EOFOffsets)-1),
	}}
}

func evalMultipleStartxref(d *Document, _ *Config) []Finding {
	if len(d.StartxrefEntries) < 2 {
		return nil
	}
	var ev []string
	for _, e := range d.StartxrefEntries {
		ev = append(ev, fmt.Sprintf("startxref@%d -> %d", e.MarkerOffset, e.DeclaredXrefOff))
	}
	return []Finding{{
		Kind:     MultipleStartxref,
		Severity: SeverityMedium,
		Evidence: ev,
		Summary:  fmt.Sprintf("%d startxref entries: the file has been saved more than once", len(d.StartxrefEntries)),
	}}
}

func evalLinearizedAndUpdated(d *Document, _ *Config) []Finding {
	if !d.Linearized || len(d.EOFOffsets) < 2 {
		return nil
	}
	return []Finding{{
		Kind:     LinearizedAndUpdated,
		Severity: SeverityMedium,
		Summary:  "linearized (web-optimized) file was later incrementally updated",
	}}
}

func evalMissingObjects(d *Document, _ *Config) []Finding {
	var missing []ObjectID
	for id := range d.ReferencedIDs {
		if !d.DefinedIDs[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Slice(missing, func(i, j int) bool {
		if missing[i].Number != missing[j].Number {
			return missing[i].Number < missing[j].Number
		}
		return missing[i].Generation < missing[j].Generation
	})
	ev := make([]string, len(missing))
	for i, id := range missing {
		ev[i] = id.String()
	}
	return []Finding{{
		Kind:     MissingObjects,
		Severity: SeverityHigh,
		Evidence: ev,
		Summary:  fmt.Sprintf("%d referenced object(s) are not defined anywhere in the file", len(missing)),
	}}
}

func evalObjectsWithGenGreaterZero(d *Document, _ *Config) []Finding {
	var ev []string
	for _, id := range d.sortedObjectIDs() {
		if id.Generation > 0 {
			ev = append(ev, id.String())
		}
	}
	if len(ev) == 0 {
		return nil
	}
	return []Finding{{
		Kind:     ObjectsWithGenGreaterZero,
		Severity: SeverityMedium,
		Evidence: ev,
		Summary:  fmt.Sprintf("%d object(s) have generation > 0: object numbers have been freed and reused", len(ev)),
	}}
}

func evalOrphanedObjects(d *Document, cfg *Config) []Finding {
	var orphans []ObjectID
	for _, id := range d.sortedObjectIDs() {
		if !d.ReferencedIDs[id] {
			orphans = append(orphans, id)
		}
	}
	if len(orphans) <= cfg.OrphanObjectsThreshold {
		return nil
	}
	ev := make([]string, len(orphans))
	for i, id := range orphans {
		ev[i] = id.String()
	}
	return []Finding{{
		Kind:     OrphanedObjects,
		Severity: SeverityMedium,
		Evidence: ev,
		Summary:  fmt.Sprintf("%d defined object(s) are never referenced: possible leftovers from removed content", len(orphans)),
	}}
}

func evalLargeObjectNumberGaps(d *Document, cfg *Config) []Finding {
	maxNum := uint32(0)
	for id := range d.DefinedIDs {
		if id.Number > maxNum {
			maxNum = id.Number
		}
	}
	if maxNum < 2 {
		return nil
	}
	present := map[uint32]bool{}
	for id := range d.DefinedIDs {
		present[id.Number] = true
	}
	missing := 0
	for n := uint32(1); n <= maxNum; n++ {
		if !present[n] {
			missing++
		}
	}
	frac := float64(missing) / float64(maxNum)
	if frac <= cfg.ObjectGapFraction {
		return nil
	}
	return []Finding{{
		Kind:     LargeObjectNumberGaps,
		Severity: SeverityMedium,
		Evidence: []string{fmt.Sprintf("%d of %d object numbers absent (%.0f%%)", missing, maxNum, frac*100)},
		Summary:  "large gaps in the object numbering suggest objects were deleted or the file was rewritten",
	}}
}

func evalTouchUpTextEdit(d *Document, _ *Config) []Finding {
	var ev []string
	d.forEachDict(func(owner ObjectID, dk dict) {
		if v, ok := dk[name("TouchUp_TextEdit")]; ok {
			if b, ok := v.(bool); ok && b {
				ev = append(ev, fmt.Sprintf("object %s", owner))
			}
		}
	})
	if len(ev) == 0 {
		return nil
	}
	return []Finding{{
		Kind:     TouchUpTextEdit,
		Severity: SeverityHigh,
		Evidence: ev,
		Summary:  "Acrobat's TouchUp text-edit marker is present: page text was edited in place",
	}}
}

func evalHasPieceInfo(d *Document, _ *Config) []Finding {
	var ev []string
	d.forEachDict(func(owner ObjectID, dk dict) {
		if _, ok := dk[name("PieceInfo")]; ok {
			ev = append(ev, fmt.Sprintf("object %s", owner))
		}
	})
	if len(ev) == 0 {
		return nil
	}
	return []Finding{{
		Kind:     HasPieceInfo,
		Severity: SeverityMedium,
		Evidence: ev,
		Summary:  "application-private /PieceInfo data is present: an editor stored its own state in the file",
	}}
}

func evalMultipleDocumentIds(d *Document, _ *Config) []Finding {
	firstIDs := map[string]bool{}
	for _, sec := range d.XRefSections {
		idArr, ok := sec.Trailer[name("ID")].(array)
		if !ok || len(idArr) == 0 {
			continue
		}
		if s, ok := idArr[0].(string); ok {
			firstIDs[fmt.Sprintf("%x", s)] = true
		}
	}
	var ev []string
	if len(firstIDs) > 1 {
		keys := make([]string, 0, len(firstIDs))
		for k := range firstIDs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ev = append(ev, "distinct /ID[0] values: "+strings.Join(keys, ", "))
	}
	meta := d.Metadata()
	orig, cur := meta.XMP["xmpMM:OriginalDocumentID"], meta.XMP["xmpMM:DocumentID"]
	if orig != "" && cur != "" && orig != cur {
		ev = append(ev, fmt.Sprintf("xmpMM:OriginalDocumentID %q != xmpMM:DocumentID %q", orig, cur))
	}
	if len(ev) == 0 {
		return nil
	}
	return []Finding{{
		Kind:     MultipleDocumentIds,
		Severity: SeverityMedium,
		Evidence: ev,
		Summary:  "the document identity changed between saves",
	}}
}

func evalMetadataVersionMismatch(d *Document, _ *Config) []Finding {
	headerVer, err := strconv.ParseFloat(strings.TrimSpace(d.PDFVersion), 64)
	if err != nil {
		return nil
	}

	usesXrefStreams := false
	usesObjStreams := false
	for _, sec := range d.XRefSections {
		if sec.Trailer[name("Type")] == name("XRef") {
			usesXrefStreams = true
		}
		for _, rec := range sec.Entries {
			if rec.inStream {
				usesObjStreams = true
			}
		}
	}

	var ev []string
	if headerVer < 1.5 && (usesXrefStreams || usesObjStreams) {
		features := []string{}
		if usesXrefStreams {
			features = append(features, "cross-reference streams")
		}
		if usesObjStreams {
			features = append(features, "object streams")
		}
		ev = append(ev, fmt.Sprintf("header declares PDF %s but file uses %s (require 1.5+)",
			d.PDFVersion, strings.Join(features, " and ")))
	}

	if claimed, ok := claimedPDFVersion(d); ok && claimed <= 1.4 && headerVer >= 1.6 {
		ev = append(ev, fmt.Sprintf("metadata claims PDF %.1f but header declares %s", claimed, d.PDFVersion))
	}

	if len(ev) == 0 {
		return nil
	}
	return []Finding{{
		Kind:     MetadataVersionMismatch,
		Severity: SeverityMedium,
		Evidence: ev,
		Summary:  "declared PDF version does not match the file's features or metadata claims",
	}}
}

// claimedPDFVersion extracts a PDF version claim from the XMP pdf:PDFVersion
// field or from a "PDF 1.x" phrase in the producer strings.
func claimedPDFVersion(d *Document) (float64, bool) {
	meta := d.Metadata()
	if v := meta.XMP["pdf:PDFVersion"]; v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f, true
		}
	}
	for _, s := range []string{meta.Info["Producer"], meta.XMP["pdf:Producer"]} {
		if i := strings.Index(s, "PDF 1."); i >= 0 && len(s) >= i+7 {
			if f, err := strconv.ParseFloat(s[i+4 : i+7], 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}
