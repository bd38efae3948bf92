// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfrecon

// Object-graph evaluators: indicators that walk the catalog, page tree,
// annotations, outlines, form fields, and image XObjects.

import (
	"crypto/sha256"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
)

// autoExecJS describes where automatically-executed JavaScript was found:
// the ids of indirect action objects, plus the ids of objects whose own
// nested dictionaries carry a direct JS action (catalog or page).
type autoExecJS struct {
	actionIDs    map[ObjectID]bool
	containerIDs map[ObjectID]bool
	evidence     []string
}

func findAutoExecJS(d *Document) autoExecJS {
	res := autoExecJS{actionIDs: map[ObjectID]bool{}, containerIDs: map[ObjectID]bool{}}
	root := d.Root()
	rootID := root.ObjectID()

	note := func(where string, action Value) {
		if action.Key("S").Name() != "JavaScript" {
			return
		}
		id := action.ObjectID()
		if id != (ObjectID{}) && id != rootID {
			res.actionIDs[id] = true
		} else {
			res.containerIDs[rootID] = true
		}
		res.evidence = append(res.evidence, where)
	}

	note("/OpenAction", root.Key("OpenAction"))
	aa := root.Key("AA")
	for _, k := range aa.Keys() {
		note("/AA /"+k, aa.Key(k))
	}
	for i := 0; i < d.PageCount(); i++ {
		page := d.Page(i)
		paa := page.Key("AA")
		for _, k := range paa.Keys() {
			action := paa.Key(k)
			if action.Key("S").Name() != "JavaScript" {
				continue
			}
			id := action.ObjectID()
			if id != (ObjectID{}) && id != page.ObjectID() {
				res.actionIDs[id] = true
			} else {
				res.containerIDs[page.ObjectID()] = true
			}
			res.evidence = append(res.evidence, fmt.Sprintf("page %d /AA /%s", i+1, k))
		}
	}
	return res
}

func evalJavaScriptAutoExecute(d *Document, _ *Config) []Finding {
	auto := findAutoExecJS(d)
	if len(auto.evidence) == 0 {
		return nil
	}
	return []Finding{{
		Kind:     JavaScriptAutoExecute,
		Severity: SeverityHigh,
		Evidence: auto.evidence,
		Summary:  "JavaScript runs automatically when the document is opened",
	}}
}

func evalContainsJavaScript(d *Document, _ *Config) []Finding {
	auto := findAutoExecJS(d)
	var ev []string
	d.forEachDict(func(owner ObjectID, dk dict) {
		if dk[name("S")] != name("JavaScript") {
			return
		}
		if auto.actionIDs[owner] || auto.containerIDs[owner] {
			return
		}
		ev = append(ev, fmt.Sprintf("object %s", owner))
	})
	if len(ev) == 0 {
		return nil
	}
	return []Finding{{
		Kind:     ContainsJavaScript,
		Severity: SeverityMedium,
		Evidence: ev,
		Summary:  fmt.Sprintf("%d JavaScript action(s) present (not auto-executing)", len(ev)),
	}}
}

func evalHasDigitalSignature(d *Document, _ *Config) []Finding {
	var ev []string
	for _, id := range d.sortedObjectIDs() {
		v := d.Objects[id].Value
		if v.Key("Type").Name() != "Sig" {
			continue
		}
		detail := fmt.Sprintf("signature object %s", id)
		br := v.Key("ByteRange")
		if br.Kind() == KindArray && br.Len() >= 4 {
			covered := br.Index(br.Len()-2).Int64() + br.Index(br.Len()-1).Int64()
			total := int64(len(d.SourceBytes))
			if covered < total {
				detail += fmt.Sprintf(", ByteRange does not cover the final %d byte(s)", total-covered)
			} else {
				detail += ", ByteRange covers the whole file"
			}
		}
		ev = append(ev, detail)
	}
	if len(ev) == 0 {
		return nil
	}
	return []Finding{{
		Kind:     HasDigitalSignature,
		Severity: SeverityMedium,
		Evidence: ev,
		Summary:  fmt.Sprintf("%d digital signature(s) present", len(ev)),
	}}
}

func evalHasAnnotations(d *Document, _ *Config) []Finding {
	var ev []string
	total := 0
	for i := 0; i < d.PageCount(); i++ {
		annots := d.Page(i).Key("Annots")
		if annots.Kind() == KindArray && annots.Len() > 0 {
			total += annots.Len()
			ev = append(ev, fmt.Sprintf("page %d: %d annotation(s)", i+1, annots.Len()))
		}
	}
	if total == 0 {
		return nil
	}
	return []Finding{{
		Kind:     HasAnnotations,
		Severity: SeverityMedium,
		Evidence: ev,
		Summary:  fmt.Sprintf("%d annotation(s) across %d page(s)", total, len(ev)),
	}}
}

func evalHasRedactions(d *Document, _ *Config) []Finding {
	var ev []string
	d.forEachDict(func(owner ObjectID, dk dict) {
		if dk[name("Subtype")] == name("Redact") {
			ev = append(ev, fmt.Sprintf("object %s", owner))
		}
	})
	if len(ev) == 0 {
		return nil
	}
	return []Finding{{
		Kind:     HasRedactions,
		Severity: SeverityMedium,
		Evidence: ev,
		Summary:  fmt.Sprintf("%d redaction annotation(s) present", len(ev)),
	}}
}

func evalAcroFormNeedAppearances(d *Document, _ *Config) []Finding {
	form := d.Root().Key("AcroForm")
	if !form.Key("NeedAppearances").Bool() {
		return nil
	}
	return []Finding{{
		Kind:     AcroFormNeedAppearances,
		Severity: SeverityMedium,
		Summary:  "form fields regenerate their appearance on open: displayed values may not match stored ones",
	}}
}

// countFormFields counts form-field dictionaries in the AcroForm tree,
// descending through /Kids with a visited set against malformed cycles.
func countFormFields(d *Document, fields Value, seen map[ObjectID]bool) int {
	count := 0
	for i := 0; i < fields.Len(); i++ {
		f := fields.Index(i)
		id := f.ObjectID()
		if id != (ObjectID{}) {
			if seen[id] {
				continue
			}
			seen[id] = true
		}
		if f.Kind() != KindDict {
			continue
		}
		count++
		if kids := f.Key("Kids"); kids.Kind() == KindArray {
			count += countFormFields(d, kids, seen)
		}
	}
	return count
}

func evalExcessiveFormFields(d *Document, cfg *Config) []Finding {
	fields := d.Root().Key("AcroForm").Key("Fields")
	n := countFormFields(d, fields, map[ObjectID]bool{})
	if n <= cfg.FormFieldsThreshold {
		return nil
	}
	return []Finding{{
		Kind:     ExcessiveFormFields,
		Severity: SeverityMedium,
		Evidence: []string{fmt.Sprintf("%d form fields", n)},
		Summary:  fmt.Sprintf("unusually high form-field count (%d)", n),
	}}
}

// subsetFontRe matches the 6-uppercase-letter subset prefix on /BaseFont.
var subsetFontRe = regexp.MustCompile(`^[A-Z]{6}\+`)

func evalMultipleFontSubsets(d *Document, _ *Config) []Finding {
	bySuffix := map[string]map[string]bool{}
	d.forEachDict(func(_ ObjectID, dk dict) {
		base, ok := dk[name("BaseFont")].(name)
		if !ok {
			return
		}
		s := string(base)
		if !subsetFontRe.MatchString(s) {
			return
		}
		suffix := s[7:]
		if bySuffix[suffix] == nil {
			bySuffix[suffix] = map[string]bool{}
		}
		bySuffix[suffix][s] = true
	})
	var ev []string
	for suffix, names := range bySuffix {
		if len(names) < 2 {
			continue
		}
		list := make([]string, 0, len(names))
		for n := range names {
			list = append(list, n)
		}
		sort.Strings(list)
		ev = append(ev, fmt.Sprintf("%s: %s", suffix, strings.Join(list, ", ")))
	}
	if len(ev) == 0 {
		return nil
	}
	sort.Strings(ev)
	return []Finding{{
		Kind:     MultipleFontSubsets,
		Severity: SeverityMedium,
		Evidence: ev,
		Summary:  "the same font was subset more than once: text was added in a separate editing session",
	}}
}

func evalMoreLayersThanPages(d *Document, _ *Config) []Finding {
	ocgs := d.Root().Key("OCProperties").Key("OCGs")
	distinct := map[ObjectID]bool{}
	for i := 0; i < ocgs.Len(); i++ {
		if id := ocgs.Index(i).ObjectID(); id != (ObjectID{}) {
			distinct[id] = true
		}
	}
	if len(distinct) <= d.PageCount() {
		return nil
	}
	return []Finding{{
		Kind:     MoreLayersThanPages,
		Severity: SeverityMedium,
		Evidence: []string{fmt.Sprintf("%d optional content groups, %d pages", len(distinct), d.PageCount())},
		Summary:  "more optional-content layers than pages: content may be hidden behind layer visibility",
	}}
}

// outlineItem is one flattened bookmark entry.
type outlineItem struct {
	title string
	dest  Value
}

func collectOutlines(d *Document) []outlineItem {
	var items []outlineItem
	seen := map[ObjectID]bool{}
	var walk func(v Value)
	walk = func(v Value) {
		for ; !v.IsNull(); v = v.Key("Next") {
			id := v.ObjectID()
			if id != (ObjectID{}) {
				if seen[id] {
					return
				}
				seen[id] = true
			}
			item := outlineItem{title: v.Key("Title").Text()}
			if dst := v.Key("Dest"); !dst.IsNull() {
				item.dest = dst
			} else if a := v.Key("A"); a.Key("S").Name() == "GoTo" {
				item.dest = a.Key("D")
			}
			if item.title != "" || !item.dest.IsNull() {
				items = append(items, item)
			}
			if first := v.Key("First"); !first.IsNull() {
				walk(first)
			}
		}
	}
	walk(d.Root().Key("Outlines").Key("First"))
	return items
}

func evalDuplicateBookmarks(d *Document, _ *Config) []Finding {
	counts := map[string]int{}
	for _, it := range collectOutlines(d) {
		if it.title != "" {
			counts[it.title]++
		}
	}
	var ev []string
	for title, n := range counts {
		if n > 1 {
			ev = append(ev, fmt.Sprintf("%q x%d", title, n))
		}
	}
	if len(ev) == 0 {
		return nil
	}
	sort.Strings(ev)
	return []Finding{{
		Kind:     DuplicateBookmarks,
		Severity: SeverityMedium,
		Evidence: ev,
		Summary:  "outline contains bookmarks with identical titles",
	}}
}

func evalInvalidBookmarkDestinations(d *Document, _ *Config) []Finding {
	pageIndex := map[ObjectID]int{}
	for i, id := range d.Pages {
		pageIndex[id] = i
	}
	var ev []string
	for _, it := range collectOutlines(d) {
		dst := it.dest
		if dst.Kind() != KindArray || dst.Len() == 0 {
			continue
		}
		first := dst.Index(0)
		switch first.Kind() {
		case KindInteger:
			if int(first.Int64()) >= d.PageCount() {
				ev = append(ev, fmt.Sprintf("%q -> page index %d of %d", it.title, first.Int64(), d.PageCount()))
			}
		case KindDict:
			if _, ok := pageIndex[first.ObjectID()]; !ok {
				ev = append(ev, fmt.Sprintf("%q -> object %s is not a page", it.title, first.ObjectID()))
			}
		}
	}
	if len(ev) == 0 {
		return nil
	}
	return []Finding{{
		Kind:     InvalidBookmarkDestinations,
		Severity: SeverityMedium,
		Evidence: ev,
		Summary:  "outline destinations point past the end of the document: pages were removed after the outline was built",
	}}
}

func evalDuplicateImages(d *Document, _ *Config) []Finding {
	byHash := map[[sha256.Size]byte][]ObjectID{}
	for _, id := range d.sortedObjectIDs() {
		rec := d.Objects[id]
		strm, ok := rec.Value.data.(stream)
		if !ok || strm.hdr[name("Subtype")] != name("Image") {
			continue
		}
		raw := d.streamRawBytes(strm)
		if len(raw) == 0 {
			continue
		}
		h := sha256.Sum256(raw)
		byHash[h] = append(byHash[h], id)
	}
	var ev []string
	for _, ids := range byHash {
		if len(ids) < 2 {
			continue
		}
		list := make([]string, len(ids))
		for i, id := range ids {
			list[i] = id.String()
		}
		ev = append(ev, "identical image data at objects "+strings.Join(list, "; "))
	}
	if len(ev) == 0 {
		return nil
	}
	sort.Strings(ev)
	return []Finding{{
		Kind:     DuplicateImagesDifferentXref,
		Severity: SeverityMedium,
		Evidence: ev,
		Summary:  "byte-identical images stored under different object ids: an image was re-inserted during editing",
	}}
}

func evalImagesWithExif(d *Document, _ *Config) []Finding {
	var ev []string
	for _, id := range d.sortedObjectIDs() {
		rec := d.Objects[id]
		strm, ok := rec.Value.data.(stream)
		if !ok || strm.hdr[name("Subtype")] != name("Image") {
			continue
		}
		data := d.streamRawBytes(strm)
		// DCT-encoded images keep their JPEG markers in the raw bytes; for
		// other filters look at the decoded bytes.
		if !isDCTEncoded(strm.hdr) {
			rc := rec.Value.Reader()
			decoded, err := io.ReadAll(rc)
			rc.Close()
			if err == nil {
				data = decoded
			}
		}
		if hasEXIFMarker(data) {
			ev = append(ev, fmt.Sprintf("object %s", id))
		}
	}
	if len(ev) == 0 {
		return nil
	}
	return []Finding{{
		Kind:     ImagesWithExif,
		Severity: SeverityMedium,
		Evidence: ev,
		Summary:  fmt.Sprintf("%d embedded image(s) carry EXIF metadata from a camera or editor", len(ev)),
	}}
}

func isDCTEncoded(hdr dict) bool {
	switch f := hdr[name("Filter")].(type) {
	case name:
		return f == "DCTDecode"
	case array:
		for _, e := range f {
			if e == name("DCTDecode") {
				return true
			}
		}
	}
	return false
}

// hasEXIFMarker looks for a JPEG APP1 segment announcing EXIF data.
func hasEXIFMarker(data []byte) bool {
	for i := 0; i+9 < len(data); i++ {
		if data[i] == 0xFF && data[i+1] == 0xE1 {
			if string(data[i+4:i+8]) == "Exif" {
				return true
			}
		}
	}
	return false
}

// inheritedPageAttr resolves a page attribute that may be inherited from an
// ancestor /Pages node, following /Parent with a visited set.
func inheritedPageAttr(page Value, key string) Value {
	seen := map[ObjectID]bool{}
	for v := page; !v.IsNull(); v = v.Key("Parent") {
		id := v.ObjectID()
		if id != (ObjectID{}) {
			if seen[id] {
				break
			}
			seen[id] = true
		}
		if attr := v.Key(key); !attr.IsNull() {
			return attr
		}
	}
	return Value{}
}

func rectArea(r Value) float64 {
	if r.Kind() != KindArray || r.Len() < 4 {
		return 0
	}
	w := r.Index(2).Float64() - r.Index(0).Float64()
	h := r.Index(3).Float64() - r.Index(1).Float64()
	if w < 0 {
		w = -w
	}
	if h < 0 {
		h = -h
	}
	return w * h
}

func evalCropBoxMediaBoxMismatch(d *Document, _ *Config) []Finding {
	var ev []string
	for i := 0; i < d.PageCount(); i++ {
		page := d.Page(i)
		media := rectArea(inheritedPageAttr(page, "MediaBox"))
		crop := rectArea(inheritedPageAttr(page, "CropBox"))
		if media <= 0 || crop <= 0 {
			continue
		}
		if crop < 0.8*media {
			ev = append(ev, fmt.Sprintf("page %d: CropBox area %.0f vs MediaBox area %.0f", i+1, crop, media))
		}
	}
	if len(ev) == 0 {
		return nil
	}
	return []Finding{{
		Kind:     CropBoxMediaBoxMismatch,
		Severity: SeverityMedium,
		Evidence: ev,
		Summary:  "the visible page area is much smaller than the physical page: content may be cropped out of view",
	}}
}
