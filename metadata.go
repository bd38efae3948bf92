// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfrecon

// Metadata reading: extracts the /Info dictionary and the XMP packet
// from /Root/Metadata, keeping both the flattened common fields and the
// fully-qualified element paths the indicator catalog compares against.
// Timestamps from both sources are normalized to time.Time; a date that
// won't parse is kept raw and recorded as a ParseError.

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pdfrecon/pdfrecon/logger"
)

// HistoryEvent is one xmpMM:History/rdf:Seq entry.
type HistoryEvent struct {
	When          time.Time
	WhenRaw       string
	Action        string
	SoftwareAgent string
	Parameters    string
}

// Metadata is the combined Info + XMP view of one document.
type Metadata struct {
	// Info holds the /Info dictionary as decoded text strings, keyed by
	// PDF name (Title, Author, Creator, Producer, CreationDate, ModDate...).
	Info map[string]string

	// XMPRaw is the undecoded packet; XMP maps fully-qualified element
	// paths (e.g. xmpMM:History/rdf:Seq/rdf:li[2]/stEvt:when) to values.
	XMPRaw []byte
	XMP    map[string]string

	History []HistoryEvent

	CreationDate time.Time
	ModDate      time.Time
	XMPCreate    time.Time
	XMPModify    time.Time
	XMPMetadata  time.Time
}

// InfoDict returns the raw /Info dictionary as a Value (may be Null).
func (d *Document) InfoDict() Value {
	return d.Trailer().Key("Info")
}

// Metadata reads and caches the document's Info + XMP metadata.
func (d *Document) Metadata() *Metadata {
	if d.meta != nil {
		return d.meta
	}
	m := &Metadata{Info: map[string]string{}, XMP: map[string]string{}}
	d.meta = m

	info := d.InfoDict()
	for _, k := range info.Keys() {
		v := info.Key(k)
		if v.Kind() == KindString {
			m.Info[k] = v.Text()
		} else if v.Kind() == KindName {
			m.Info[k] = v.Name()
		}
	}

	if raw, err := d.readXMP(); err != nil {
		d.noteErr("xmp", 0, err.Error())
	} else if len(raw) > 0 {
		logger.Debug("found XMP stream", true)
		m.XMPRaw = raw
		parseXMPPaths(raw, m.XMP)
		m.History = xmpHistory(m.XMP)
	}

	m.CreationDate = d.parseInfoDate(m.Info["CreationDate"])
	m.ModDate = d.parseInfoDate(m.Info["ModDate"])
	m.XMPCreate = d.parseXMPDate(m.XMP["xmp:CreateDate"])
	m.XMPModify = d.parseXMPDate(m.XMP["xmp:ModifyDate"])
	m.XMPMetadata = d.parseXMPDate(m.XMP["xmp:MetadataDate"])
	return m
}

// readXMP returns the raw XMP packet bytes from /Root/Metadata (nil if absent).
func (d *Document) readXMP() ([]byte, error) {
	md := d.Root().Key("Metadata")
	if md.Kind() != KindStream {
		return nil, nil
	}
	rc := md.Reader()
	defer rc.Close()
	return io.ReadAll(rc)
}

// xmpNamespaces maps namespace URLs to the conventional prefixes used in
// qualified paths. Unknown namespaces fall back to their local name only.
var xmpNamespaces = map[string]string{
	"http://www.w3.org/1999/02/22-rdf-syntax-ns#":      "rdf",
	"http://purl.org/dc/elements/1.1/":                 "dc",
	"http://ns.adobe.com/pdf/1.3/":                     "pdf",
	"http://ns.adobe.com/xap/1.0/":                     "xmp",
	"http://ns.adobe.com/xap/1.0/mm/":                  "xmpMM",
	"http://ns.adobe.com/xap/1.0/sType/ResourceEvent#": "stEvt",
	"http://ns.adobe.com/xap/1.0/sType/ResourceRef#":   "stRef",
	"http://ns.adobe.com/pdfx/1.3/":                    "pdfx",
	"http://www.aiim.org/pdfa/ns/id/":                  "pdfaid",
}

func qualify(n xml.Name) string {
	if p, ok := xmpNamespaces[n.Space]; ok {
		return p + ":" + n.Local
	}
	return n.Local
}

// parseXMPPaths walks the XMP packet with a non-strict XML decoder and
// records every text node and attribute under its fully-qualified path.
// rdf:li elements inside a container get a 1-based [k] suffix so repeated
// entries (History events, dc:creator seq members) stay distinct.
func parseXMPPaths(raw []byte, out map[string]string) {
	dec := xml.NewDecoder(strings.NewReader(string(raw)))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity

	type frame struct {
		path    string
		liCount int
	}
	var stack []frame

	for {
		tok, err := dec.Token()
		if err != nil {
			return
		}
		switch t := tok.(type) {
		case xml.StartElement:
			q := qualify(t.Name)
			parent := ""
			if len(stack) > 0 {
				parent = stack[len(stack)-1].path
			}
			if q == "rdf:li" && len(stack) > 0 {
				stack[len(stack)-1].liCount++
				q = fmt.Sprintf("rdf:li[%d]", stack[len(stack)-1].liCount)
			}
			// The packet wrappers contribute nothing to a qualified path;
			// paths start at the first real property element.
			wrapper := q == "xmpmeta" || q == "xpacket" || q == "rdf:RDF" || q == "rdf:Description"
			var path string
			switch {
			case wrapper:
				path = parent
			case parent == "":
				path = q
			default:
				path = parent + "/" + q
			}
			stack = append(stack, frame{path: path})
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" || a.Name.Space == "http://www.w3.org/2000/xmlns/" {
					continue
				}
				aq := qualify(a.Name)
				if aq == "about" || aq == "rdf:about" || aq == "rdf:parseType" {
					continue
				}
				key := aq
				if path != "" {
					key = path + "/" + aq
				}
				out[key] = strings.TrimSpace(a.Value)
			}
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			s := strings.TrimSpace(string(t))
			if s == "" || len(stack) == 0 {
				continue
			}
			p := stack[len(stack)-1].path
			if p == "" {
				continue
			}
			if prev, ok := out[p]; ok && prev != "" {
				continue
			}
			out[p] = s
		}
	}
}

// xmpHistory collects the xmpMM:History entries from the qualified-path map
// back into ordered structured events.
func xmpHistory(xmp map[string]string) []HistoryEvent {
	var events []HistoryEvent
	for i := 1; ; i++ {
		prefix := fmt.Sprintf("xmpMM:History/rdf:Seq/rdf:li[%d]/", i)
		ev := HistoryEvent{
			WhenRaw:       xmp[prefix+"stEvt:when"],
			Action:        xmp[prefix+"stEvt:action"],
			SoftwareAgent: xmp[prefix+"stEvt:softwareAgent"],
			Parameters:    xmp[prefix+"stEvt:parameters"],
		}
		if ev.WhenRaw == "" && ev.Action == "" && ev.SoftwareAgent == "" && ev.Parameters == "" {
			break
		}
		ev.When, _ = parseISODate(ev.WhenRaw)
		events = append(events, ev)
	}
	return events
}

func (d *Document) parseInfoDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := ParsePDFDate(s)
	if err != nil {
		d.noteErr("date", 0, fmt.Sprintf("unparseable Info date %q", s))
		return time.Time{}
	}
	return t
}

func (d *Document) parseXMPDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := parseISODate(s)
	if err != nil {
		d.noteErr("date", 0, fmt.Sprintf("unparseable XMP date %q", s))
		return time.Time{}
	}
	return t
}

// ParsePDFDate parses the PDF date form D:YYYYMMDDHHmmSS±HH'mm'. Every
// field after the year is optional; a missing timezone means UTC per the
// convention most producers follow.
func ParsePDFDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "D:")
	if len(s) < 4 {
		return time.Time{}, fmt.Errorf("date too short: %q", s)
	}

	digits := func(off, n, def int) (int, error) {
		if len(s) < off+n {
			return def, nil
		}
		v, err := strconv.Atoi(s[off : off+n])
		if err != nil {
			return 0, err
		}
		return v, nil
	}

	year, err := digits(0, 4, 0)
	if err != nil {
		return time.Time{}, err
	}
	month, err := digits(4, 2, 1)
	if err != nil {
		return time.Time{}, err
	}
	day, err := digits(6, 2, 1)
	if err != nil {
		return time.Time{}, err
	}
	hour, err := digits(8, 2, 0)
	if err != nil {
		return time.Time{}, err
	}
	min, err := digits(10, 2, 0)
	if err != nil {
		return time.Time{}, err
	}
	sec, err := digits(12, 2, 0)
	if err != nil {
		return time.Time{}, err
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("date out of range: %q", s)
	}

	loc := time.UTC
	if len(s) > 14 {
		tz := s[14:]
		switch tz[0] {
		case 'Z':
			// UTC
		case '+', '-':
			tz = strings.ReplaceAll(tz[1:], "'", "")
			tzh, tzm := 0, 0
			if len(tz) >= 2 {
				tzh, _ = strconv.Atoi(tz[:2])
			}
			if len(tz) >= 4 {
				tzm, _ = strconv.Atoi(tz[2:4])
			}
			offset := tzh*3600 + tzm*60
			if s[14] == '-' {
				offset = -offset
			}
			loc = time.FixedZone("", offset)
		}
	}
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, loc), nil
}

// parseISODate parses XMP's ISO-8601 date forms, which range from a bare
// year down to full date-time with offset.
func parseISODate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02",
		"2006-01",
		"2006",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable ISO-8601 date: %q", s)
}
