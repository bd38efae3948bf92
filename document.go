// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfrecon

// Document is a single parse of one input file's bytes. It owns the decoded
// object records and borrows the source byte slice; Values produced from it
// must not outlive it. The byte scan, object parse, and xref chain run
// eagerly in ParseBytes; metadata and content-stream statistics are filled
// lazily so a caller that only needs revision structure doesn't pay for
// them.

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

// ObjectID is the (number, generation) key identifying a PDF indirect object.
type ObjectID struct {
	Number     uint32
	Generation uint16
}

func (id ObjectID) String() string { return fmt.Sprintf("%d %d", id.Number, id.Generation) }

// ObjectRecord is one parsed indirect object.
type ObjectRecord struct {
	ByteOffset  int64
	Value       Value
	StreamBytes bool // true if this object is a stream
}

// Document is one parsed input file.
type Document struct {
	Path        string
	SourceBytes []byte
	cfg         *Config

	PDFVersion string
	Linearized bool

	EOFOffsets       []int64
	StartxrefEntries []StartxrefEntry
	XRefSections     []XRefSection

	Objects       map[ObjectID]*ObjectRecord
	DefinedIDs    map[ObjectID]bool
	ReferencedIDs map[ObjectID]bool

	Pages []ObjectID

	Errors []ParseError

	xrefTable []xrefRec
	trailer   dict
	meta      *Metadata
	stats     []ContentStats
}

// StartxrefEntry is one (marker_offset, declared_xref_offset) pair.
type StartxrefEntry struct {
	MarkerOffset    int64
	DeclaredXrefOff int64
}

func (d *Document) noteErr(category string, offset int64, msg string) {
	d.Errors = append(d.Errors, ParseError{Category: category, Offset: offset, Message: msg})
}

// ParseBytes runs C1-C3 over in-memory bytes and builds the object graph.
func ParseBytes(path string, src []byte, cfg *Config) (*Document, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	d := &Document{
		Path:          path,
		SourceBytes:   src,
		cfg:           cfg,
		Objects:       map[ObjectID]*ObjectRecord{},
		DefinedIDs:    map[ObjectID]bool{},
		ReferencedIDs: map[ObjectID]bool{},
	}

	if err := d.checkHeader(); err != nil {
		return d, err
	}

	tokens := scanTokens(src)
	d.EOFOffsets = tokens[TokEOF]
	d.scanStartxrefEntries()

	if len(d.StartxrefEntries) == 0 {
		d.noteErr("xref", 0, "no startxref token found")
	} else {
		last := d.StartxrefEntries[len(d.StartxrefEntries)-1]
		if err := d.readXrefChain(last.DeclaredXrefOff); err != nil {
			d.noteErr("xref", last.DeclaredXrefOff, err.Error())
		}
	}

	d.materializeObjects()
	d.walkObjectGraph()
	d.loadPages()
	d.detectLinearized()

	return d, nil
}

// Open reads a file from disk and parses it.
func Open(path string, cfg *Config) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseBytes(path, data, cfg)
}

func (d *Document) checkHeader() error {
	n := len(d.SourceBytes)
	if n == 0 {
		return FatalError{Message: "empty file"}
	}
	limit := n
	if limit > 1024 {
		limit = 1024
	}
	head := d.SourceBytes[:limit]
	i := bytes.Index(head, []byte("%PDF-"))
	if i < 0 {
		return FatalError{Message: "not a PDF file: missing %PDF- header in first 1024 bytes"}
	}
	line := head[i+len("%PDF-"):]
	end := bytes.IndexAny(line, "\r\n")
	if end < 0 {
		end = len(line)
	}
	d.PDFVersion = strings.TrimSpace(string(line[:end]))
	return nil
}

// scanStartxrefEntries resolves the declared integer offset following each
// "startxref" token (the byte scanner only records the keyword's position).
func (d *Document) scanStartxrefEntries() {
	src := d.SourceBytes
	marker := []byte("startxref")
	start := 0
	for {
		i := bytes.Index(src[start:], marker)
		if i < 0 {
			break
		}
		abs := start + i
		b := newBuffer(bytes.NewReader(src[abs+len(marker):]), int64(abs+len(marker)))
		tok := b.readToken()
		if off, ok := tok.(int64); ok {
			d.StartxrefEntries = append(d.StartxrefEntries, StartxrefEntry{MarkerOffset: int64(abs), DeclaredXrefOff: off})
		} else {
			d.noteErr("xref", int64(abs), "startxref not followed by integer")
		}
		start = abs + len(marker)
	}
}

func (d *Document) newBufferAt(off int64) *buffer {
	if off < 0 || off >= int64(len(d.SourceBytes)) {
		b := newBuffer(bytes.NewReader(nil), off)
		b.errs = &d.Errors
		return b
	}
	b := newBuffer(bytes.NewReader(d.SourceBytes[off:]), off)
	b.allowObjptr = true
	b.allowStream = true
	b.errs = &d.Errors
	return b
}

// materializeObjects parses every object the merged xref table points at.
func (d *Document) materializeObjects() {
	for id, rec := range d.xrefTable {
		if rec.ptr.id == 0 && rec.offset == 0 && !rec.inStream {
			continue
		}
		if rec.inStream {
			d.materializeCompressedObject(ObjectID{Number: uint32(id), Generation: rec.ptr.gen}, rec)
			continue
		}
		b := d.newBufferAt(rec.offset)
		obj := b.readObject()
		def, ok := obj.(objdef)
		if !ok {
			d.noteErr("object", rec.offset, "expected object definition")
			continue
		}
		oid := ObjectID{Number: def.ptr.id, Generation: def.ptr.gen}
		_, isStream := def.obj.(stream)
		d.Objects[oid] = &ObjectRecord{ByteOffset: rec.offset, Value: Value{d: d, ptr: def.ptr, data: def.obj}, StreamBytes: isStream}
		d.DefinedIDs[oid] = true
	}
}

func (d *Document) materializeCompressedObject(oid ObjectID, rec xrefRec) {
	strmRec, ok := d.Objects[ObjectID{Number: rec.stream.id, Generation: 0}]
	if !ok {
		// The object stream itself may not have been indexed yet if xref
		// ordering put it later; resolve it directly via the xref table.
		if int(rec.stream.id) < len(d.xrefTable) {
			sref := d.xrefTable[rec.stream.id]
			b := d.newBufferAt(sref.offset)
			obj := b.readObject()
			if def, ok := obj.(objdef); ok {
				strmRec = &ObjectRecord{ByteOffset: sref.offset, Value: Value{d: d, ptr: def.ptr, data: def.obj}}
			}
		}
	}
	if strmRec == nil {
		d.noteErr("object", rec.offset, "object stream not found for compressed object")
		return
	}
	strm, ok := strmRec.Value.data.(stream)
	if !ok {
		d.noteErr("object", rec.offset, "compressed object's container is not a stream")
		return
	}
	n := int(strmRec.Value.Key("N").Int64())
	first := strmRec.Value.Key("First").Int64()
	raw := d.streamRawBytes(strm)
	rd, err := decodeStreamFilters(bytes.NewReader(raw), strmRec.Value, d.cfg.MaxStreamSize)
	if err != nil {
		d.noteErr("stream", rec.offset, err.Error())
		return
	}
	data, err := io.ReadAll(rd)
	if err != nil {
		d.noteErr("stream", rec.offset, err.Error())
		return
	}
	b := newBuffer(bytes.NewReader(data), 0)
	b.errs = &d.Errors
	for i := 0; i < n; i++ {
		idTok, _ := b.readToken().(int64)
		offTok, _ := b.readToken().(int64)
		if uint32(idTok) != oid.Number {
			continue
		}
		if first+offTok < 0 || first+offTok >= int64(len(data)) {
			return
		}
		ob := newBuffer(bytes.NewReader(data[first+offTok:]), 0)
		ob.errs = &d.Errors
		obj := ob.readObject()
		d.Objects[oid] = &ObjectRecord{ByteOffset: -1, Value: Value{d: d, ptr: objptr{oid.Number, 0}, data: obj}}
		d.DefinedIDs[oid] = true
		return
	}
}

// resolve dereferences an indirect reference (or returns x itself wrapped
// as a Value). parent is the enclosing object id; this analyzer does not
// decrypt, so it is unused beyond bookkeeping.
func (d *Document) resolve(parent objptr, x object) Value {
	ptr, ok := x.(objptr)
	if !ok {
		return Value{d: d, ptr: parent, data: x}
	}
	oid := ObjectID{Number: ptr.id, Generation: ptr.gen}
	d.ReferencedIDs[oid] = true
	rec, ok := d.Objects[oid]
	if !ok {
		// try any generation
		for k, v := range d.Objects {
			if k.Number == ptr.id {
				return Value{d: d, ptr: ptr, data: v.Value.data}
			}
		}
		return Value{}
	}
	return Value{d: d, ptr: ptr, data: rec.Value.data}
}

// walkObjectGraph records every indirect reference found in the
// dictionaries and arrays of every parsed object.
func (d *Document) walkObjectGraph() {
	for _, rec := range d.Objects {
		walkValue(rec.Value.data, d.ReferencedIDs)
	}
	// Trailer dictionaries reference Root/Info/Encrypt without being
	// objects themselves.
	for _, sec := range d.XRefSections {
		walkValue(sec.Trailer, d.ReferencedIDs)
	}
}

func walkValue(x object, refs map[ObjectID]bool) {
	switch v := x.(type) {
	case objptr:
		refs[ObjectID{Number: v.id, Generation: v.gen}] = true
	case dict:
		for _, e := range v {
			walkValue(e, refs)
		}
	case array:
		for _, e := range v {
			walkValue(e, refs)
		}
	case stream:
		for _, e := range v.hdr {
			walkValue(e, refs)
		}
	}
}

// Trailer returns the merged trailer dictionary.
func (d *Document) Trailer() Value {
	return Value{d: d, data: d.trailer}
}

// Root returns the document catalog.
func (d *Document) Root() Value {
	return d.Trailer().Key("Root")
}

func (d *Document) loadPages() {
	root := d.Root()
	pagesRoot := root.Key("Pages")
	seen := map[ObjectID]bool{}
	var walk func(v Value)
	walk = func(v Value) {
		id := v.ObjectID()
		if id != (ObjectID{}) {
			if seen[id] {
				return
			}
			seen[id] = true
		}
		if v.Key("Type").Name() == "Pages" {
			kids := v.Key("Kids")
			for i := 0; i < kids.Len(); i++ {
				walk(kids.Index(i))
			}
			return
		}
		if v.Key("Type").Name() == "Page" {
			d.Pages = append(d.Pages, id)
		}
	}
	if !pagesRoot.IsNull() {
		walk(pagesRoot)
	}
}

func (d *Document) detectLinearized() {
	// A linearized PDF places a linearization dictionary as the very first
	// object in the file; scan the first object definition directly.
	var first *ObjectRecord
	for _, rec := range d.Objects {
		if rec.ByteOffset >= 0 && (first == nil || rec.ByteOffset < first.ByteOffset) {
			first = rec
		}
	}
	if first != nil && !first.Value.Key("Linearized").IsNull() {
		d.Linearized = true
	}
	if !d.Linearized {
		// fall back to presence of the /Linearized marker near the head.
		limit := 2048
		if limit > len(d.SourceBytes) {
			limit = len(d.SourceBytes)
		}
		d.Linearized = bytes.Contains(d.SourceBytes[:limit], []byte("/Linearized"))
	}
}

func (d *Document) PageCount() int { return len(d.Pages) }

func (d *Document) Page(i int) Value {
	if i < 0 || i >= len(d.Pages) {
		return Value{}
	}
	return d.resolveID(d.Pages[i])
}

func (d *Document) resolveID(id ObjectID) Value {
	rec, ok := d.Objects[id]
	if !ok {
		return Value{}
	}
	return Value{d: d, ptr: objptr{id.Number, id.Generation}, data: rec.Value.data}
}

// streamRawBytes returns the raw, still-encoded bytes of a stream object.
func (d *Document) streamRawBytes(s stream) []byte {
	length := int64(0)
	if lv, ok := s.hdr[name("Length")]; ok {
		switch lv := lv.(type) {
		case int64:
			length = lv
		case objptr:
			length = d.resolve(objptr{}, lv).Int64()
		}
	}
	start := s.offset
	end := start + length
	if start < 0 || start > int64(len(d.SourceBytes)) {
		return nil
	}
	if end > int64(len(d.SourceBytes)) || end <= start {
		end = int64(len(d.SourceBytes))
	}
	return d.SourceBytes[start:end]
}
