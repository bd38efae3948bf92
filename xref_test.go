// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfrecon

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_SimpleDocument(t *testing.T) {
	b := buildSimpleDoc("BT (hello) Tj ET")
	b.writeXref("")
	d := mustParse(b.bytes())

	assert.Equal(t, "1.4", d.PDFVersion)
	assert.Len(t, d.EOFOffsets, 1)
	assert.Len(t, d.StartxrefEntries, 1)
	require.Len(t, d.XRefSections, 1)
	assert.Equal(t, 1, d.PageCount())
	assert.Len(t, d.Objects, 4)
	assert.True(t, d.DefinedIDs[ObjectID{Number: 1}])
	assert.Equal(t, "Catalog", d.Root().Key("Type").Name())
}

func TestParse_IncrementalUpdateChainsPrev(t *testing.T) {
	b := buildSimpleDoc("BT (v1) Tj ET")
	b.writeXref("")
	// Incremental save: replace the page contents and append a new xref.
	b.streamObj(4, "", []byte("BT (v2) Tj ET"))
	b.writeXref("")

	d := mustParse(b.bytes())
	assert.Len(t, d.EOFOffsets, 2)
	assert.Len(t, d.StartxrefEntries, 2)
	require.Len(t, d.XRefSections, 2)

	// The chain is walked newest-first; the second section is the /Prev hop.
	assert.NotNil(t, d.XRefSections[0].PrevOffset)
	assert.Equal(t, d.XRefSections[1].ByteOffset, *d.XRefSections[0].PrevOffset)
	assert.Nil(t, d.XRefSections[1].PrevOffset)
}

func TestParse_CyclicPrevChainTerminates(t *testing.T) {
	b := buildSimpleDoc("BT (x) Tj ET")
	xrefOff := int64(b.buf.Len())
	// A /Prev pointing at this same section must not loop forever.
	fmt.Fprintf(&b.buf, "xref\n0 5\n0000000000 65535 f \n")
	for i := 1; i <= 4; i++ {
		fmt.Fprintf(&b.buf, "%010d 00000 n \n", b.offsets[i])
	}
	fmt.Fprintf(&b.buf, "trailer\n<< /Size 5 /Root 1 0 R /Prev %d >>\nstartxref\n%d\n%%%%EOF\n", xrefOff, xrefOff)

	d := mustParse(b.bytes())
	require.Len(t, d.XRefSections, 1)
	found := false
	for _, e := range d.Errors {
		if e.Category == "xref" {
			found = true
		}
	}
	assert.True(t, found, "cycle should be recorded as an xref error")
}

func TestParse_XrefStream(t *testing.T) {
	d := mustParse(buildXrefStreamDoc("1.5"))
	require.Len(t, d.XRefSections, 1)
	assert.Equal(t, name("XRef"), d.XRefSections[0].Trailer[name("Type")])
	assert.Equal(t, 1, d.PageCount())
	assert.True(t, d.DefinedIDs[ObjectID{Number: 4}])
}

func TestParse_MissingStartxref(t *testing.T) {
	d := mustParse([]byte("%PDF-1.4\n1 0 obj\n<< >>\nendobj\n"))
	assert.Empty(t, d.XRefSections)
	assert.NotEmpty(t, d.Errors)
}

func TestParse_NotAPDF(t *testing.T) {
	_, err := ParseBytes("x.bin", []byte("GIF89a not a pdf"), nil)
	require.Error(t, err)
	assert.IsType(t, FatalError{}, err)
}

func TestParse_EmptyFile(t *testing.T) {
	_, err := ParseBytes("empty.pdf", nil, nil)
	require.Error(t, err)
}

func TestParse_DeclaredOffsetPastEnd(t *testing.T) {
	src := []byte("%PDF-1.4\n1 0 obj\n<< >>\nendobj\nstartxref\n999999\n%%EOF\n")
	d := mustParse(src)
	assert.Empty(t, d.XRefSections)
	assert.NotEmpty(t, d.Errors)
}
