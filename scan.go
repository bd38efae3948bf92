// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfrecon

// Byte scanning: a single linear pass over raw file bytes locating the
// structural ASCII markers. No decoding, no backtracking; mixed line
// endings are tolerated because matching is purely byte-literal.

import "bytes"

// TokenKind identifies one of the literal byte markers the scanner looks for.
type TokenKind int

const (
	TokPDFHeader TokenKind = iota
	TokEOF
	TokStartxref
	TokXref
	TokTrailer
	TokObj
	TokEndobj
	TokStream
	TokEndstream
	TokPrev
	TokEncrypt
	TokLinearized
)

var scanMarkers = []struct {
	kind    TokenKind
	literal []byte
}{
	{TokPDFHeader, []byte("%PDF-")},
	{TokEOF, []byte("%%EOF")},
	{TokStartxref, []byte("startxref")},
	{TokXref, []byte("xref")},
	{TokTrailer, []byte("trailer")},
	{TokObj, []byte(" obj")},
	{TokEndobj, []byte("endobj")},
	{TokStream, []byte("stream")},
	{TokEndstream, []byte("endstream")},
	{TokPrev, []byte("/Prev")},
	{TokEncrypt, []byte("/Encrypt")},
	{TokLinearized, []byte("/Linearized")},
}

// scanTokens performs the single linear pass and returns, per marker kind,
// the sorted sequence of byte offsets where it was found. For TokEOF the
// offset recorded is the position just past the marker, so a revision's
// byte range can end exactly there.
func scanTokens(src []byte) map[TokenKind][]int64 {
	out := make(map[TokenKind][]int64, len(scanMarkers))
	for _, m := range scanMarkers {
		out[m.kind] = nil
	}
	for abs := 0; abs < len(src); abs++ {
		for _, m := range scanMarkers {
			if !bytes.HasPrefix(src[abs:], m.literal) {
				continue
			}
			if m.kind == TokEOF {
				out[m.kind] = append(out[m.kind], int64(abs+len(m.literal)))
			} else {
				out[m.kind] = append(out[m.kind], int64(abs))
			}
		}
	}
	return out
}
