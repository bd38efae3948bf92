// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfrecon

// Synthetic PDF construction for tests. The builder tracks byte offsets as
// objects are written so the generated xref tables are correct without
// hand-counting, and supports incremental updates (a second xref section
// with /Prev) the way a real editor appends them.

import (
	"bytes"
	"compress/zlib"
	"fmt"
)

type pdfBuilder struct {
	buf      bytes.Buffer
	offsets  map[int]int64
	gens     map[int]int
	maxObj   int
	lastXref int64
}

func newPDFBuilder(version string) *pdfBuilder {
	b := &pdfBuilder{offsets: map[int]int64{}, gens: map[int]int{}}
	fmt.Fprintf(&b.buf, "%%PDF-%s\n%%\xe2\xe3\xcf\xd3\n", version)
	return b
}

func (b *pdfBuilder) obj(num int, body string) {
	b.objGen(num, 0, body)
}

func (b *pdfBuilder) objGen(num, gen int, body string) {
	b.offsets[num] = int64(b.buf.Len())
	b.gens[num] = gen
	if num > b.maxObj {
		b.maxObj = num
	}
	fmt.Fprintf(&b.buf, "%d %d obj\n%s\nendobj\n", num, gen, body)
}

func (b *pdfBuilder) streamObj(num int, hdrExtra string, data []byte) {
	b.offsets[num] = int64(b.buf.Len())
	b.gens[num] = 0
	if num > b.maxObj {
		b.maxObj = num
	}
	fmt.Fprintf(&b.buf, "%d 0 obj\n<< /Length %d %s >>\nstream\n", num, len(data), hdrExtra)
	b.buf.Write(data)
	b.buf.WriteString("\nendstream\nendobj\n")
}

// writeXref emits a classic xref section covering objects 0..maxObj, a
// trailer, startxref, and %%EOF. The second and later calls automatically
// chain to the prior section via /Prev, modelling an incremental save.
func (b *pdfBuilder) writeXref(trailerExtra string) {
	xrefOff := int64(b.buf.Len())
	fmt.Fprintf(&b.buf, "xref\n0 %d\n", b.maxObj+1)
	b.buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= b.maxObj; i++ {
		off, ok := b.offsets[i]
		if !ok {
			b.buf.WriteString("0000000000 65535 f \n")
			continue
		}
		fmt.Fprintf(&b.buf, "%010d %05d n \n", off, b.gens[i])
	}
	trailer := fmt.Sprintf("/Size %d", b.maxObj+1)
	if !bytes.Contains([]byte(trailerExtra), []byte("/Root")) {
		trailer += " /Root 1 0 R"
	}
	if b.lastXref > 0 {
		trailer += fmt.Sprintf(" /Prev %d", b.lastXref)
	}
	if trailerExtra != "" {
		trailer += " " + trailerExtra
	}
	fmt.Fprintf(&b.buf, "trailer\n<< %s >>\nstartxref\n%d\n%%%%EOF\n", trailer, xrefOff)
	b.lastXref = xrefOff
}

func (b *pdfBuilder) bytes() []byte { return b.buf.Bytes() }

// buildSimpleDoc returns a builder holding a minimal one-page document:
// catalog 1, pages 2, page 3, contents 4. Callers add objects or trailer
// entries before writing the xref.
func buildSimpleDoc(content string) *pdfBuilder {
	b := newPDFBuilder("1.4")
	b.obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.obj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.obj(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R >>")
	b.streamObj(4, "", []byte(content))
	return b
}

func mustParse(data []byte) *Document {
	d, err := ParseBytes("test.pdf", data, NewDefaultConfig())
	if err != nil {
		panic(err)
	}
	return d
}

func deflate(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}

// buildXrefStreamDoc builds a document whose cross-reference is carried in
// a /Type /XRef stream (W [1 4 1], flate-compressed), as PDF 1.5+ writers
// emit, but with the header version the caller asks for.
func buildXrefStreamDoc(version string) []byte {
	b := newPDFBuilder(version)
	b.obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.obj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.obj(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R >>")
	b.streamObj(4, "", []byte("BT (x) Tj ET"))

	const xrefNum = 5
	xrefOff := int64(b.buf.Len())

	var entries bytes.Buffer
	writeEntry := func(typ byte, f2 int64, f3 byte) {
		entries.WriteByte(typ)
		entries.WriteByte(byte(f2 >> 24))
		entries.WriteByte(byte(f2 >> 16))
		entries.WriteByte(byte(f2 >> 8))
		entries.WriteByte(byte(f2))
		entries.WriteByte(f3)
	}
	writeEntry(0, 0, 255) // object 0: free
	for i := 1; i <= 4; i++ {
		writeEntry(1, b.offsets[i], 0)
	}
	writeEntry(1, xrefOff, 0)

	compressed := deflate(entries.Bytes())
	fmt.Fprintf(&b.buf, "%d 0 obj\n<< /Type /XRef /Size %d /W [1 4 1] /Root 1 0 R /Filter /FlateDecode /Length %d >>\nstream\n",
		xrefNum, xrefNum+1, len(compressed))
	b.buf.Write(compressed)
	b.buf.WriteString("\nendstream\nendobj\n")
	fmt.Fprintf(&b.buf, "startxref\n%d\n%%%%EOF\n", xrefOff)
	return b.buf.Bytes()
}

func findingKinds(findings []Finding) map[FindingKind]bool {
	kinds := map[FindingKind]bool{}
	for _, f := range findings {
		kinds[f.Kind] = true
	}
	return kinds
}
