// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfrecon

// Cross-reference reading: parses classic xref tables and cross-reference
// streams, follows /Prev chains with cycle detection, and retains every hop
// as its own XRefSection alongside the merged table, since the per-revision
// view is what the indicator catalog reasons about.

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// xrefRec is one merged cross-reference table entry, addressed by object
// number.
type xrefRec struct {
	ptr      objptr
	inStream bool
	stream   objptr
	offset   int64
}

// XRefSection is one hop in the /Prev chain: the entries declared by a
// single xref table or xref stream, plus that section's trailer dictionary.
type XRefSection struct {
	ByteOffset int64
	Entries    map[ObjectID]xrefRec
	Trailer    dict
	PrevOffset *int64
}

func (d *Document) readXrefChain(startOffset int64) error {
	visited := map[int64]bool{}
	merged := map[uint32]xrefRec{}
	off := startOffset
	var firstTrailer dict

	for off != 0 {
		if visited[off] {
			d.noteErr("xref", off, "cyclic /Prev chain, stopping")
			break
		}
		visited[off] = true

		section, prev, err := d.readOneXrefSection(off)
		if err != nil {
			d.noteErr("xref", off, err.Error())
			break
		}
		d.XRefSections = append(d.XRefSections, *section)
		if firstTrailer == nil {
			firstTrailer = section.Trailer
		}
		for id, rec := range section.Entries {
			if _, ok := merged[id.Number]; !ok {
				merged[id.Number] = rec
			}
		}
		if prev == nil {
			break
		}
		off = *prev
	}

	maxID := uint32(0)
	for id := range merged {
		if id > maxID {
			maxID = id
		}
	}
	table := make([]xrefRec, maxID+1)
	for id, rec := range merged {
		table[id] = rec
	}
	d.xrefTable = table
	d.trailer = firstTrailer
	return nil
}

func (d *Document) readOneXrefSection(off int64) (*XRefSection, *int64, error) {
	b := d.newBufferAt(off)
	tok := b.readToken()
	if tok == keyword("xref") {
		return d.readXrefTableSection(b, off)
	}
	if _, ok := tok.(int64); ok {
		b.unreadToken(tok)
		return d.readXrefStreamSection(b, off)
	}
	return nil, nil, fmt.Errorf("no xref table or stream at offset %d", off)
}

func (d *Document) readXrefTableSection(b *buffer, off int64) (*XRefSection, *int64, error) {
	entries := map[ObjectID]xrefRec{}
	for {
		tok := b.readToken()
		if tok == keyword("trailer") {
			break
		}
		start, ok := tok.(int64)
		if !ok {
			if tok == io.EOF || tok == nil {
				break
			}
			return nil, nil, errors.New("malformed xref subsection header")
		}
		count, ok := b.readToken().(int64)
		if !ok {
			return nil, nil, errors.New("malformed xref subsection count")
		}
		for i := int64(0); i < count; i++ {
			offTok := b.readToken()
			genTok := b.readToken()
			kindTok := b.readToken()
			offsetVal, _ := offTok.(int64)
			genVal, _ := genTok.(int64)
			id := uint32(start + i)
			switch kindTok {
			case keyword("n"):
				key := ObjectID{Number: id, Generation: uint16(genVal)}
				entries[key] = xrefRec{ptr: objptr{id, uint16(genVal)}, offset: offsetVal}
			case keyword("f"):
				// free entry, nothing to record
			default:
				return nil, nil, fmt.Errorf("malformed xref entry at subsection %d index %d", start, i)
			}
		}
	}

	trailerObj := b.readObject()
	trailer, _ := trailerObj.(dict)
	var prev *int64
	if p, ok := trailer[name("Prev")].(int64); ok {
		prev = &p
	}
	// A hybrid-reference file points /XRefStm at a stream carrying entries
	// for compressed objects alongside this classic table.
	if xs, ok := trailer[name("XRefStm")].(int64); ok {
		if sub, _, err := d.readXrefStreamSection(d.newBufferAt(xs), xs); err == nil {
			for id, rec := range sub.Entries {
				if _, exists := entries[id]; !exists {
					entries[id] = rec
				}
			}
		}
	}
	return &XRefSection{ByteOffset: off, Entries: entries, Trailer: trailer, PrevOffset: prev}, prev, nil
}

func (d *Document) readXrefStreamSection(b *buffer, off int64) (*XRefSection, *int64, error) {
	b.allowObjptr = true
	b.allowStream = true
	obj := b.readObject()
	def, ok := obj.(objdef)
	if !ok {
		return nil, nil, fmt.Errorf("object at %d is not an object definition", off)
	}
	strm, ok := def.obj.(stream)
	if !ok {
		return nil, nil, fmt.Errorf("object at %d is not a stream", off)
	}
	if strm.hdr[name("Type")] != name("XRef") {
		return nil, nil, fmt.Errorf("stream at %d is not an XRef stream", off)
	}

	size, _ := strm.hdr[name("Size")].(int64)
	ww, ok := strm.hdr[name("W")].(array)
	if !ok || len(ww) < 3 {
		return nil, nil, errors.New("xref stream missing W array")
	}
	var w [3]int
	for i := 0; i < 3; i++ {
		iv, _ := ww[i].(int64)
		w[i] = int(iv)
	}

	index, _ := strm.hdr[name("Index")].(array)
	if index == nil {
		index = array{int64(0), size}
	}

	raw := d.streamRawBytes(strm)
	rd, err := decodeStreamFilters(bytes.NewReader(raw), Value{d: d, data: strm}, d.cfg.MaxStreamSize)
	if err != nil {
		return nil, nil, err
	}
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, nil, err
	}

	entries := map[ObjectID]xrefRec{}
	wtotal := w[0] + w[1] + w[2]
	pos := 0
	for len(index) >= 2 {
		start, _ := index[0].(int64)
		n, _ := index[1].(int64)
		index = index[2:]
		for i := int64(0); i < n; i++ {
			if pos+wtotal > len(data) {
				break
			}
			rec := data[pos : pos+wtotal]
			pos += wtotal
			f1 := decodeIntField(rec[0:w[0]], 1)
			f2 := decodeIntField(rec[w[0]:w[0]+w[1]], 0)
			f3 := decodeIntField(rec[w[0]+w[1]:wtotal], 0)
			id := uint32(start + i)
			switch f1 {
			case 0:
				// free
			case 1:
				entries[ObjectID{Number: id, Generation: uint16(f3)}] = xrefRec{ptr: objptr{id, uint16(f3)}, offset: f2}
			case 2:
				entries[ObjectID{Number: id, Generation: 0}] = xrefRec{ptr: objptr{id, 0}, inStream: true, stream: objptr{uint32(f2), 0}, offset: f3}
			}
		}
	}

	var prev *int64
	if p, ok := strm.hdr[name("Prev")].(int64); ok {
		prev = &p
	}
	return &XRefSection{ByteOffset: off, Entries: entries, Trailer: strm.hdr, PrevOffset: prev}, prev, nil
}

func decodeIntField(b []byte, defaultVal int64) int64 {
	if len(b) == 0 {
		return defaultVal
	}
	var x int64
	for _, c := range b {
		x = x<<8 | int64(c)
	}
	return x
}
