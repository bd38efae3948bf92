// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfrecon

// Stream filter decoding: FlateDecode, ASCIIHexDecode, ASCII85Decode, and
// LZWDecode, chained per the declared /Filter array. A forensic tool cannot
// afford to abort a scan over one bad stream, so every failure here returns
// an error that the caller turns into a ParseError.

import (
	"compress/zlib"
	"encoding/ascii85"
	"fmt"
	"io"

	hhlzw "github.com/hhrutter/lzw"
)

// decodeStreamFilters applies the stream's declared /Filter chain (a single
// name or an array of names, each with a matching /DecodeParms entry) and
// returns a reader bounded by maxSize to guard against decompression bombs.
func decodeStreamFilters(raw io.Reader, strm Value, maxSize int64) (io.Reader, error) {
	var rd io.Reader = raw
	filter := strm.Key("Filter")
	params := strm.Key("DecodeParms")

	switch filter.Kind() {
	case KindNull:
		// stored uncompressed
	case KindName:
		var err error
		rd, err = applyFilter(rd, filter.Name(), params)
		if err != nil {
			return nil, err
		}
	case KindArray:
		for i := 0; i < filter.Len(); i++ {
			var err error
			rd, err = applyFilter(rd, filter.Index(i).Name(), params.Index(i))
			if err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("unsupported /Filter value kind")
	}

	if maxSize > 0 {
		rd = io.LimitReader(rd, maxSize)
	}
	return rd, nil
}

func applyFilter(rd io.Reader, filterName string, param Value) (io.Reader, error) {
	switch filterName {
	case "FlateDecode", "Fl":
		zr, err := zlib.NewReader(rd)
		if err != nil {
			return nil, fmt.Errorf("FlateDecode: %w", err)
		}
		return applyPredictor(zr, param)
	case "ASCII85Decode", "A85":
		return ascii85.NewDecoder(newWhitespaceStripper(rd)), nil
	case "ASCIIHexDecode", "AHx":
		return newASCIIHexReader(rd), nil
	case "LZWDecode", "LZW":
		early := int64(1)
		if v := param.Key("EarlyChange"); !v.IsNull() {
			early = v.Int64()
		}
		lzwr := hhlzw.NewReader(rd, early != 0)
		return applyPredictor(lzwr, param)
	default:
		return nil, fmt.Errorf("unsupported filter %q", filterName)
	}
}

// applyPredictor wraps r with the predictor that /DecodeParms requests: the
// TIFF predictor for 2, or the PNG predictor for 10-15, whose rows may use
// any of the None/Sub/Up/Average/Paeth filters. Predictor 1 or none leaves r
// as it is; any other value is an error.
func applyPredictor(r io.Reader, param Value) (io.Reader, error) {
	pred := param.Key("Predictor")
	if pred.IsNull() || pred.Int64() <= 1 {
		return r, nil
	}
	columns := param.Key("Columns").Int64()
	if columns <= 0 {
		columns = 1
	}
	colors := param.Key("Colors").Int64()
	if colors <= 0 {
		colors = 1
	}
	bpc := param.Key("BitsPerComponent").Int64()
	if bpc <= 0 {
		bpc = 8
	}
	bytesPerPixel := int((colors*bpc + 7) / 8)
	rowBytes := int((columns*colors*bpc + 7) / 8)

	switch pred.Int64() {
	case 2:
		return &tiffPredictorReader{r: r, bytesPerPixel: bytesPerPixel, rowBytes: rowBytes}, nil
	case 10, 11, 12, 13, 14, 15:
		return &pngPredictorReader{
			r:             r,
			bytesPerPixel: bytesPerPixel,
			prevRow:       make([]byte, rowBytes),
			curRow:        make([]byte, rowBytes),
			filterByte:    make([]byte, 1),
		}, nil
	default:
		return nil, fmt.Errorf("unknown predictor %d", pred.Int64())
	}
}

// pngPredictorReader undoes the PNG per-row filter (None/Sub/Up/Average/
// Paeth) applied before compression, per PDF 32000-1:2008 §7.4.4.4.
type pngPredictorReader struct {
	r             io.Reader
	bytesPerPixel int
	prevRow       []byte
	curRow        []byte
	filterByte    []byte
	pend          []byte
}

func (p *pngPredictorReader) Read(b []byte) (int, error) {
	n := 0
	for len(b) > 0 {
		if len(p.pend) > 0 {
			m := copy(b, p.pend)
			n += m
			b = b[m:]
			p.pend = p.pend[m:]
			continue
		}
		if _, err := io.ReadFull(p.r, p.filterByte); err != nil {
			if n > 0 {
				return n, nil
			}
			return n, err
		}
		if _, err := io.ReadFull(p.r, p.curRow); err != nil {
			return n, err
		}
		p.applyRowFilter()
		copy(p.prevRow, p.curRow)
		p.pend = p.curRow
	}
	return n, nil
}

func (p *pngPredictorReader) applyRowFilter() {
	bpp := p.bytesPerPixel
	switch p.filterByte[0] {
	case 0: // None
	case 1: // Sub
		for i := bpp; i < len(p.curRow); i++ {
			p.curRow[i] += p.curRow[i-bpp]
		}
	case 2: // Up
		for i := range p.curRow {
			p.curRow[i] += p.prevRow[i]
		}
	case 3: // Average
		for i := range p.curRow {
			var left byte
			if i >= bpp {
				left = p.curRow[i-bpp]
			}
			p.curRow[i] += byte((int(left) + int(p.prevRow[i])) / 2)
		}
	case 4: // Paeth
		for i := range p.curRow {
			var a, c byte
			if i >= bpp {
				a = p.curRow[i-bpp]
				c = p.prevRow[i-bpp]
			}
			p.curRow[i] += paeth(a, p.prevRow[i], c)
		}
	}
}

func paeth(a, b, c byte) byte {
	pa := absInt(int(b) - int(c))
	pb := absInt(int(a) - int(c))
	pc := absInt(int(a) + int(b) - 2*int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	default:
		return c
	}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// tiffPredictorReader undoes TIFF predictor 2 (per-component horizontal
// differencing).
type tiffPredictorReader struct {
	r             io.Reader
	bytesPerPixel int
	rowBytes      int
	pend          []byte
}

func (t *tiffPredictorReader) Read(b []byte) (int, error) {
	n := 0
	for len(b) > 0 {
		if len(t.pend) > 0 {
			m := copy(b, t.pend)
			n += m
			b = b[m:]
			t.pend = t.pend[m:]
			continue
		}
		row := make([]byte, t.rowBytes)
		if _, err := io.ReadFull(t.r, row); err != nil {
			if n > 0 {
				return n, nil
			}
			return n, err
		}
		for i := t.bytesPerPixel; i < len(row); i++ {
			row[i] += row[i-t.bytesPerPixel]
		}
		t.pend = row
	}
	return n, nil
}

// whitespaceStripper drops PDF whitespace bytes from an ASCII85 stream so
// producers that wrap lines at 80 columns still decode cleanly.
type whitespaceStripper struct{ r io.Reader }

func newWhitespaceStripper(r io.Reader) io.Reader { return &whitespaceStripper{r: r} }

func (a *whitespaceStripper) Read(p []byte) (int, error) {
	buf := make([]byte, len(p))
	n, err := a.r.Read(buf)
	out := 0
	for i := 0; i < n; i++ {
		c := buf[i]
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0 {
			continue
		}
		p[out] = c
		out++
	}
	return out, err
}

// asciiHexReader decodes ASCIIHexDecode-filtered data; a trailing '>'
// terminates the stream early, matching PDF 32000-1:2008 §7.4.2. A high
// nibble left over at a read boundary is carried into the next read and
// only zero-padded once the data ends.
type asciiHexReader struct {
	r       io.Reader
	done    bool
	pending int // buffered high nibble, -1 when empty
}

func newASCIIHexReader(r io.Reader) io.Reader { return &asciiHexReader{r: r, pending: -1} }

func (h *asciiHexReader) Read(p []byte) (int, error) {
	if h.done {
		if h.pending >= 0 && len(p) > 0 {
			p[0] = byte(h.pending << 4)
			h.pending = -1
			return 1, nil
		}
		return 0, io.EOF
	}
	buf := make([]byte, 2*len(p))
	n, rerr := h.r.Read(buf)
	out := 0
	for i := 0; i < n && !h.done; i++ {
		c := buf[i]
		switch {
		case c == '>':
			h.done = true
		case isHexDigit(c):
			if h.pending < 0 {
				h.pending = unhex(c)
			} else {
				p[out] = byte(h.pending<<4 | unhex(c))
				h.pending = -1
				out++
			}
		}
	}
	if rerr != nil {
		h.done = true
	}
	if h.done && h.pending >= 0 && out < len(p) {
		p[out] = byte(h.pending << 4)
		h.pending = -1
		out++
	}
	if out == 0 && h.done {
		return 0, io.EOF
	}
	return out, nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
