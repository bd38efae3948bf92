// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfrecon

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// Value is a read-only view over a parsed PDF object, resolving indirect
// references against the owning Document on demand. It never outlives the
// Document it was produced from; callers that need to keep evidence around
// after the scan must copy out plain strings, not Values.
type Value struct {
	d    *Document
	ptr  objptr
	data object
}

// ValueKind enumerates the PDF value kinds.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindInteger
	KindReal
	KindString
	KindName
	KindDict
	KindArray
	KindStream
)

func (v Value) IsNull() bool { return v.data == nil }

func (v Value) Kind() ValueKind {
	switch v.data.(type) {
	case bool:
		return KindBool
	case int64:
		return KindInteger
	case float64:
		return KindReal
	case string:
		return KindString
	case name:
		return KindName
	case dict:
		return KindDict
	case array:
		return KindArray
	case stream:
		return KindStream
	}
	return KindNull
}

func (v Value) Bool() bool {
	x, _ := v.data.(bool)
	return x
}

func (v Value) Int64() int64 {
	if x, ok := v.data.(int64); ok {
		return x
	}
	return 0
}

func (v Value) Float64() float64 {
	switch x := v.data.(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	}
	return 0
}

// RawString returns the raw bytes of a String value, undecoded.
func (v Value) RawString() string {
	x, _ := v.data.(string)
	return x
}

// Text decodes a String value as a PDF "text string": PDFDocEncoding or
// UTF-16BE with a leading BOM.
func (v Value) Text() string {
	x, ok := v.data.(string)
	if !ok {
		return ""
	}
	if isUTF16(x) {
		return utf16Decode(x[2:])
	}
	return pdfDocDecode(x)
}

func (v Value) Name() string {
	x, _ := v.data.(name)
	return string(x)
}

// child wraps a nested object as a Value, resolving indirect references
// when the Value is attached to a Document. Detached Values (as produced by
// the content-stream interpreter) return the nested object as-is.
func (v Value) child(x object) Value {
	if v.d == nil {
		return Value{data: x}
	}
	return v.d.resolve(v.ptr, x)
}

// Key looks up a dictionary entry (or a stream's header dictionary entry),
// resolving indirect references.
func (v Value) Key(key string) Value {
	x, ok := v.data.(dict)
	if !ok {
		strm, ok := v.data.(stream)
		if !ok {
			return Value{}
		}
		x = strm.hdr
	}
	return v.child(x[name(key)])
}

func (v Value) Keys() []string {
	x, ok := v.data.(dict)
	if !ok {
		strm, ok := v.data.(stream)
		if !ok {
			return nil
		}
		x = strm.hdr
	}
	keys := make([]string, 0, len(x))
	for k := range x {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	return keys
}

func (v Value) Index(i int) Value {
	x, ok := v.data.(array)
	if !ok || i < 0 || i >= len(x) {
		return Value{}
	}
	return v.child(x[i])
}

func (v Value) Len() int {
	x, ok := v.data.(array)
	if !ok {
		return 0
	}
	return len(x)
}

// ObjectID returns the indirect object id this Value was reached through,
// if any (zero value if the value was reached only through direct nesting).
func (v Value) ObjectID() ObjectID {
	return ObjectID{Number: v.ptr.id, Generation: v.ptr.gen}
}

// String renders a debug/evidence-friendly textual form of the value.
func (v Value) String() string { return objfmt(v.data) }

func objfmt(x interface{}) string {
	switch x := x.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(x)
	case name:
		return "/" + string(x)
	case dict:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, string(k))
		}
		sort.Strings(keys)
		var buf bytes.Buffer
		buf.WriteString("<<")
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(' ')
			}
			fmt.Fprintf(&buf, "/%s %s", k, objfmt(x[name(k)]))
		}
		buf.WriteString(">>")
		return buf.String()
	case array:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				buf.WriteByte(' ')
			}
			buf.WriteString(objfmt(e))
		}
		buf.WriteByte(']')
		return buf.String()
	case stream:
		return fmt.Sprintf("%s@%d", objfmt(x.hdr), x.offset)
	case objptr:
		return fmt.Sprintf("%d %d R", x.id, x.gen)
	default:
		return fmt.Sprint(x)
	}
}

// errorReadCloser always fails reads, used when Reader() is called on a
// non-stream Value.
type errorReadCloser struct{ err error }

func (e *errorReadCloser) Read([]byte) (int, error) { return 0, e.err }
func (e *errorReadCloser) Close() error             { return e.err }

// Reader returns the (filter-decoded) bytes of a stream Value.
func (v Value) Reader() io.ReadCloser {
	strm, ok := v.data.(stream)
	if !ok {
		return &errorReadCloser{fmt.Errorf("stream not present")}
	}
	raw := v.d.streamRawBytes(strm)
	rd, err := decodeStreamFilters(bytes.NewReader(raw), v, v.d.cfg.MaxStreamSize)
	if err != nil {
		return &errorReadCloser{err}
	}
	return io.NopCloser(rd)
}
