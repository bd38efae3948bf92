// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfrecon

import (
	"bytes"
	"encoding/ascii85"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestASCIIHexReader(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"48656C6C6F>", "Hello"},
		{"48 65 6C\n6C 6F>", "Hello"},
		{"48656c6c6f>", "Hello"},
		{"7>", "p"}, // odd nibble count pads with zero
		{">", ""},
	}
	for _, tt := range tests {
		got, err := io.ReadAll(newASCIIHexReader(strings.NewReader(tt.in)))
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(got), tt.in)
	}
}

func TestASCII85RoundTrip(t *testing.T) {
	plain := []byte("The quick brown fox jumps over the lazy dog")
	var enc bytes.Buffer
	w := ascii85.NewEncoder(&enc)
	w.Write(plain)
	w.Close()

	// Wrap lines the way PDF producers do; the stripper must cope.
	wrapped := enc.String()[:20] + "\n" + enc.String()[20:]
	got, err := io.ReadAll(ascii85.NewDecoder(newWhitespaceStripper(strings.NewReader(wrapped))))
	require.NoError(t, err)
	assert.Equal(t, plain, got)
}

func TestFlateDecode(t *testing.T) {
	plain := []byte("stream payload for flate")
	strm := streamValueWithFilter("/Filter /FlateDecode")
	rd, err := decodeStreamFilters(bytes.NewReader(deflate(plain)), strm, 1<<20)
	require.NoError(t, err)
	got, err := io.ReadAll(rd)
	require.NoError(t, err)
	assert.Equal(t, plain, got)
}

func TestFlateDecode_PNGUpPredictor(t *testing.T) {
	// Two rows of 4 bytes, Up-filtered: row 2 stores deltas from row 1.
	row1 := []byte{10, 20, 30, 40}
	row2 := []byte{11, 22, 33, 44}
	filtered := []byte{2}
	filtered = append(filtered, row1...)
	filtered = append(filtered, 2)
	for i := range row2 {
		filtered = append(filtered, row2[i]-row1[i])
	}

	strm := streamValueWithFilter("/Filter /FlateDecode /DecodeParms << /Predictor 12 /Columns 4 >>")
	rd, err := decodeStreamFilters(bytes.NewReader(deflate(filtered)), strm, 1<<20)
	require.NoError(t, err)
	got, err := io.ReadAll(rd)
	require.NoError(t, err)
	assert.Equal(t, append(append([]byte{}, row1...), row2...), got)
}

func TestDecodeStreamFilters_SizeLimit(t *testing.T) {
	big := bytes.Repeat([]byte{'A'}, 4096)
	strm := streamValueWithFilter("/Filter /FlateDecode")
	rd, err := decodeStreamFilters(bytes.NewReader(deflate(big)), strm, 100)
	require.NoError(t, err)
	got, _ := io.ReadAll(rd)
	assert.Len(t, got, 100)
}

func TestDecodeStreamFilters_UnknownFilter(t *testing.T) {
	strm := streamValueWithFilter("/Filter /JBIG2Decode")
	_, err := decodeStreamFilters(bytes.NewReader([]byte("x")), strm, 1<<20)
	assert.Error(t, err)
}

func TestDecodeStreamFilters_FilterChain(t *testing.T) {
	plain := []byte("chained")
	var hexed bytes.Buffer
	for _, c := range deflate(plain) {
		hexed.WriteString(strings.ToUpper(hexByte(c)))
	}
	hexed.WriteByte('>')

	strm := streamValueWithFilter("/Filter [/ASCIIHexDecode /FlateDecode]")
	rd, err := decodeStreamFilters(bytes.NewReader(hexed.Bytes()), strm, 1<<20)
	require.NoError(t, err)
	got, err := io.ReadAll(rd)
	require.NoError(t, err)
	assert.Equal(t, plain, got)
}

func hexByte(c byte) string {
	const digits = "0123456789ABCDEF"
	return string([]byte{digits[c>>4], digits[c&0xF]})
}

// streamValueWithFilter builds a detached stream Value whose header is
// parsed from src, for driving the filter chain directly.
func streamValueWithFilter(hdr string) Value {
	b := newBuffer(strings.NewReader("<< "+hdr+" >>"), 0)
	dk, _ := b.readObject().(dict)
	return Value{data: stream{hdr: dk}}
}
