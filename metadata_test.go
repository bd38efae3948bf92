// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfrecon

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const xmpPacketTemplate = `<?xpacket begin="" id="W5M0MpCehiHzreSzNTczkc9d"?>
<x:xmpmeta xmlns:x="adobe:ns:meta/">
 <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <rdf:Description rdf:about=""
    xmlns:xmp="http://ns.adobe.com/xap/1.0/"
    xmlns:pdf="http://ns.adobe.com/pdf/1.3/"
    xmlns:xmpMM="http://ns.adobe.com/xap/1.0/mm/"
    xmlns:stEvt="http://ns.adobe.com/xap/1.0/sType/ResourceEvent#">
   <xmp:CreatorTool>%s</xmp:CreatorTool>
   <xmp:CreateDate>%s</xmp:CreateDate>
   <xmp:ModifyDate>%s</xmp:ModifyDate>
   <pdf:Producer>%s</pdf:Producer>
   <xmpMM:DocumentID>uuid:aaaa</xmpMM:DocumentID>
   <xmpMM:OriginalDocumentID>uuid:bbbb</xmpMM:OriginalDocumentID>
   <xmpMM:History>
    <rdf:Seq>
     <rdf:li stEvt:action="created" stEvt:when="2022-01-01T10:00:00Z" stEvt:softwareAgent="Writer 1.0"/>
     <rdf:li stEvt:action="saved" stEvt:when="2022-03-05T09:30:00Z" stEvt:softwareAgent="Editor 2.0"/>
    </rdf:Seq>
   </xmpMM:History>
  </rdf:Description>
 </rdf:RDF>
</x:xmpmeta>
<?xpacket end="w"?>`

func docWithMetadata(info, xmp string) *Document {
	b := newPDFBuilder("1.4")
	b.obj(1, "<< /Type /Catalog /Pages 2 0 R /Metadata 5 0 R >>")
	b.obj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.obj(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	b.obj(4, "<< "+info+" >>")
	b.streamObj(5, "/Type /Metadata /Subtype /XML", []byte(xmp))
	b.writeXref("/Info 4 0 R")
	return mustParse(b.bytes())
}

func TestMetadata_InfoDictionary(t *testing.T) {
	d := docWithMetadata(
		`/Title (Quarterly Report) /Creator (Word) /Producer (Acrobat Distiller) /CreationDate (D:20220101100000Z)`,
		"")
	m := d.Metadata()
	assert.Equal(t, "Quarterly Report", m.Info["Title"])
	assert.Equal(t, "Word", m.Info["Creator"])
	assert.Equal(t, "Acrobat Distiller", m.Info["Producer"])
	assert.Equal(t, time.Date(2022, 1, 1, 10, 0, 0, 0, time.UTC), m.CreationDate.UTC())
}

func TestMetadata_XMPQualifiedPaths(t *testing.T) {
	xmp := fmt.Sprintf(xmpPacketTemplate, "Word", "2022-01-01T10:00:00Z", "2022-03-05T09:30:00Z", "Acrobat")
	d := docWithMetadata(`/Title (x)`, xmp)
	m := d.Metadata()

	assert.Equal(t, "Word", m.XMP["xmp:CreatorTool"])
	assert.Equal(t, "Acrobat", m.XMP["pdf:Producer"])
	assert.Equal(t, "uuid:aaaa", m.XMP["xmpMM:DocumentID"])
	assert.Equal(t, "created", m.XMP["xmpMM:History/rdf:Seq/rdf:li[1]/stEvt:action"])
	assert.Equal(t, "2022-03-05T09:30:00Z", m.XMP["xmpMM:History/rdf:Seq/rdf:li[2]/stEvt:when"])
}

func TestMetadata_History(t *testing.T) {
	xmp := fmt.Sprintf(xmpPacketTemplate, "Word", "2022-01-01T10:00:00Z", "2022-03-05T09:30:00Z", "Acrobat")
	d := docWithMetadata("", xmp)
	hist := d.Metadata().History
	require.Len(t, hist, 2)
	assert.Equal(t, "created", hist[0].Action)
	assert.Equal(t, "Writer 1.0", hist[0].SoftwareAgent)
	assert.Equal(t, time.Date(2022, 3, 5, 9, 30, 0, 0, time.UTC), hist[1].When.UTC())
}

func TestParsePDFDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"D:20220101100000Z", time.Date(2022, 1, 1, 10, 0, 0, 0, time.UTC), false},
		{"D:20220101100000+02'00'", time.Date(2022, 1, 1, 10, 0, 0, 0, time.FixedZone("", 2*3600)), false},
		{"D:20220101100000-05'30'", time.Date(2022, 1, 1, 10, 0, 0, 0, time.FixedZone("", -(5*3600 + 30*60))), false},
		{"D:20220101", time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"D:2022", time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"20220101100000", time.Date(2022, 1, 1, 10, 0, 0, 0, time.UTC), false},
		{"not a date", time.Time{}, true},
		{"D:20229901", time.Time{}, true},
		{"", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePDFDate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
		})
	}
}

func TestParseISODate(t *testing.T) {
	for _, in := range []string{
		"2022-03-05T09:30:00Z",
		"2022-03-05T09:30:00+01:00",
		"2022-03-05T09:30:00",
		"2022-03-05",
	} {
		_, err := parseISODate(in)
		assert.NoError(t, err, in)
	}
	_, err := parseISODate("March 5th")
	assert.Error(t, err)
}

func TestMetadata_UnparseableDateRecorded(t *testing.T) {
	d := docWithMetadata(`/CreationDate (yesterday)`, "")
	m := d.Metadata()
	assert.True(t, m.CreationDate.IsZero())
	found := false
	for _, e := range d.Errors {
		if e.Category == "date" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestMetadata_UTF16Info(t *testing.T) {
	// UTF-16BE with BOM, written as a hex string.
	b := newPDFBuilder("1.4")
	b.obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.obj(2, "<< /Type /Pages /Kids [] /Count 0 >>")
	b.obj(3, "<< /Title <FEFF00480069> >>")
	b.writeXref("/Info 3 0 R")
	d := mustParse(b.bytes())
	assert.Equal(t, "Hi", d.Metadata().Info["Title"])
}
