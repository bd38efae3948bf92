// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfrecon

// Content-stream inspection: a single-pass operand-stack interpreter over
// page content streams, counting the operator classes the indicator catalog
// needs (text positioning, drawing, invisible-text render mode, solid-fill
// rectangles) without performing full text extraction or font decoding,
// which this analyzer has no forensic use for.

import (
	"bytes"
	"io"
)

// ContentStats summarizes one page's content stream for the indicator
// catalog.
type ContentStats struct {
	TextPositioningOps int // Td, TD, Tm, T* combined
	DrawingOps         int // path construction and painting: re, m, l, c, v, y, h, f, F, f*, S, s, B, b
	InvisibleTextRuns  int // Tj/TJ/'/\" emitted while Tr==3
	WhiteFillRects     int // re immediately filled while the nonstroking color is 1 1 1 (or /DeviceGray 1)
	TotalOperators     int

	// MaxPositioningPerBlock is the largest count of positioning operators
	// seen inside a single BT/ET block.
	MaxPositioningPerBlock int

	// InvisibleText holds the raw bytes shown by each invisible-text run,
	// captured until the rendering mode changes away from 3.
	InvisibleText []string
}

type csStack struct {
	vals []Value
}

func (s *csStack) push(v Value)  { s.vals = append(s.vals, v) }
func (s *csStack) reset()        { s.vals = s.vals[:0] }
func (s *csStack) args() []Value { return s.vals }

// interpretContent tokenizes raw content-stream bytes and invokes op for
// each operator encountered, with the accumulated operand stack.
func interpretContent(data []byte, op func(args []Value, operator string)) {
	b := newBuffer(bytes.NewReader(data), 0)
	var stk csStack
	for {
		tok := b.readToken()
		if tok == nil || tok == io.EOF {
			return
		}
		switch t := tok.(type) {
		case keyword:
			s := string(t)
			switch s {
			case "<<":
				d := b.readDict()
				stk.push(Value{data: d})
				continue
			case "[":
				a := b.readArray()
				stk.push(Value{data: a})
				continue
			case "BI":
				skipInlineImage(b)
				continue
			}
			op(stk.args(), s)
			stk.reset()
		case int64, float64, string, name, bool:
			stk.push(Value{data: t})
		default:
			stk.reset()
		}
	}
}

// skipInlineImage discards a BI...ID...EI inline image, whose binary data
// may otherwise be misparsed as tokens.
func skipInlineImage(b *buffer) {
	for {
		tok := b.readToken()
		if tok == nil || tok == io.EOF {
			return
		}
		if tok == keyword("ID") {
			break
		}
	}
	b.readByte() // single whitespace byte separating ID from image data
	prev := byte(0)
	for !b.eof {
		c := b.readByte()
		if prev == 'E' && c == 'I' {
			return
		}
		prev = c
	}
}

var drawingOperators = map[string]bool{
	"re": true, "m": true, "l": true, "c": true, "v": true, "y": true, "h": true,
	"f": true, "F": true, "f*": true, "S": true, "s": true,
	"B": true, "b": true,
}

var textPositioningOperators = map[string]bool{
	"Td": true, "TD": true, "Tm": true, "T*": true,
}

var textShowOperators = map[string]bool{
	"Tj": true, "TJ": true, "'": true, "\"": true,
}

// scanContentStats runs the content-stream interpreter over a page's
// (possibly filter-chained, possibly array-of-streams) Contents entry.
func scanContentStats(page Value) ContentStats {
	var stats ContentStats
	data := concatContents(page.Key("Contents"))
	if len(data) == 0 {
		return stats
	}

	// The nonstroking color and text rendering mode are part of the graphics
	// state, so q/Q must save and restore them for the white-fill and
	// invisible-text tracking to see the state the viewer would.
	type gstate struct {
		renderMode         int64
		nonstrokingIsWhite bool
	}
	gs := gstate{}
	var gsStack []gstate
	pendingWhiteFill := false
	blockPositioning := 0

	interpretContent(data, func(args []Value, operator string) {
		stats.TotalOperators++
		switch {
		case textPositioningOperators[operator]:
			stats.TextPositioningOps++
			blockPositioning++
			if blockPositioning > stats.MaxPositioningPerBlock {
				stats.MaxPositioningPerBlock = blockPositioning
			}
		case drawingOperators[operator]:
			stats.DrawingOps++
			if operator == "re" {
				pendingWhiteFill = true
				break
			}
			if pendingWhiteFill && gs.nonstrokingIsWhite && (operator == "f" || operator == "F" || operator == "f*") {
				stats.WhiteFillRects++
			}
			pendingWhiteFill = false
		case textShowOperators[operator]:
			if gs.renderMode == 3 {
				stats.InvisibleTextRuns++
				stats.InvisibleText = append(stats.InvisibleText, shownText(args))
			}
		case operator == "q":
			gsStack = append(gsStack, gs)
		case operator == "Q":
			if n := len(gsStack); n > 0 {
				gs = gsStack[n-1]
				gsStack = gsStack[:n-1]
			}
		case operator == "BT":
			blockPositioning = 0
		case operator == "Tr":
			if len(args) == 1 {
				gs.renderMode = args[0].Int64()
			}
		case operator == "rg":
			gs.nonstrokingIsWhite = len(args) == 3 && args[0].Float64() == 1 && args[1].Float64() == 1 && args[2].Float64() == 1
		case operator == "g":
			gs.nonstrokingIsWhite = len(args) == 1 && args[0].Float64() == 1
		case operator == "scn", operator == "sc":
			gs.nonstrokingIsWhite = allOne(args)
		}
	})
	return stats
}

// shownText extracts the string bytes handed to a text-show operator. TJ
// interleaves strings with kerning numbers; the numbers are dropped.
func shownText(args []Value) string {
	if len(args) == 0 {
		return ""
	}
	last := args[len(args)-1]
	if last.Kind() == KindString {
		return last.RawString()
	}
	if last.Kind() == KindArray {
		var b bytes.Buffer
		for i := 0; i < last.Len(); i++ {
			if e := last.Index(i); e.Kind() == KindString {
				b.WriteString(e.RawString())
			}
		}
		return b.String()
	}
	return ""
}

// ContentStats computes (and caches) per-page content-stream statistics
// for every page in the document, in page order.
func (d *Document) ContentStats() []ContentStats {
	if d.stats != nil {
		return d.stats
	}
	d.stats = make([]ContentStats, len(d.Pages))
	for i := range d.Pages {
		d.stats[i] = scanContentStats(d.Page(i))
	}
	return d.stats
}

func allOne(args []Value) bool {
	if len(args) == 0 {
		return false
	}
	for _, a := range args {
		if a.Kind() != KindInteger && a.Kind() != KindReal {
			return false
		}
		if a.Float64() != 1 {
			return false
		}
	}
	return true
}

// concatContents resolves a page's /Contents entry, which may be a single
// stream or an array of streams that concatenate (with an implied space
// between them, per PDF 32000-1:2008 §7.8.2).
func concatContents(contents Value) []byte {
	if contents.IsNull() {
		return nil
	}
	if contents.Kind() == KindStream {
		data, err := io.ReadAll(contents.Reader())
		if err != nil {
			return nil
		}
		return data
	}
	if contents.Kind() == KindArray {
		var buf bytes.Buffer
		for i := 0; i < contents.Len(); i++ {
			part := contents.Index(i)
			if part.Kind() != KindStream {
				continue
			}
			data, err := io.ReadAll(part.Reader())
			if err != nil {
				continue
			}
			buf.Write(data)
			buf.WriteByte(' ')
		}
		return buf.Bytes()
	}
	return nil
}
