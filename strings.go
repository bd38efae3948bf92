// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfrecon

import "unicode/utf16"

// isUTF16 reports whether s begins with the UTF-16BE byte-order mark used
// by PDF "text strings".
func isUTF16(s string) bool {
	return len(s) >= 2 && s[0] == 0xFE && s[1] == 0xFF
}

// utf16Decode decodes big-endian UTF-16 bytes (without BOM) to a Go string.
func utf16Decode(s string) string {
	if len(s)%2 != 0 {
		s = s[:len(s)-1]
	}
	u := make([]uint16, len(s)/2)
	for i := range u {
		u[i] = uint16(s[2*i])<<8 | uint16(s[2*i+1])
	}
	return string(utf16.Decode(u))
}

// pdfDocEncodingHighRange maps the PDFDocEncoding bytes that differ from
// Latin-1 (0x18-0x1F, 0x80-0x9E and 0xA0) to Unicode; every other byte is
// translated as Latin-1.
var pdfDocEncodingHighRange = map[byte]rune{
	0x18: 0x02D8, 0x19: 0x02C7, 0x1A: 0x02C6, 0x1B: 0x02D9,
	0x1C: 0x02DD, 0x1D: 0x02DB, 0x1E: 0x02DA, 0x1F: 0x02DC,
	0x80: 0x2022, 0x81: 0x2020, 0x82: 0x2021, 0x83: 0x2026,
	0x84: 0x2014, 0x85: 0x2013, 0x86: 0x0192, 0x87: 0x2044,
	0x88: 0x2039, 0x89: 0x203A, 0x8A: 0x2212, 0x8B: 0x2030,
	0x8C: 0x201E, 0x8D: 0x201C, 0x8E: 0x201D, 0x8F: 0x2018,
	0x90: 0x2019, 0x91: 0x201A, 0x92: 0x2122, 0x93: 0xFB01,
	0x94: 0xFB02, 0x95: 0x0141, 0x96: 0x0152, 0x97: 0x0160,
	0x98: 0x0178, 0x99: 0x017D, 0x9A: 0x0131, 0x9B: 0x0142,
	0x9C: 0x0153, 0x9D: 0x0161, 0x9E: 0x017E, 0xA0: 0x20AC,
}

// pdfDocDecode decodes PDFDocEncoding bytes to a Go string.
func pdfDocDecode(s string) string {
	runes := make([]rune, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if r, ok := pdfDocEncodingHighRange[c]; ok {
			runes = append(runes, r)
			continue
		}
		runes = append(runes, rune(c))
	}
	return string(runes)
}
