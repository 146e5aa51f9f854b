package core

// streaming.go provides the reader chain placed in front of the CSV parser.
//
//   - bomSkipper drops a leading UTF-8 BOM (0xEF 0xBB 0xBF) written by Windows tools
//   - utf8Sanitizer replaces invalid UTF-8 bytes with '?' without changing length
//   - CountingReader records bytes consumed for load statistics
//
// Memory use is bounded by the bufio buffer regardless of source size.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type bomSkipper struct {
	br      *bufio.Reader
	checked bool
}

func newBOMSkipper(r io.Reader) *bomSkipper {
	return &bomSkipper{br: bufio.NewReader(r)}
}

func (b *bomSkipper) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		head, err := b.br.Peek(len(utf8BOM))
		if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
			return 0, err
		}
		if bytes.Equal(head, utf8BOM) {
			_, _ = b.br.Discard(len(utf8BOM))
		}
	}
	return b.br.Read(p)
}

// utf8Sanitizer holds back a trailing partial rune until the next read
// so multi-byte sequences split across reads are not mangled.
type utf8Sanitizer struct {
	r       io.Reader
	pending []byte
	err     error
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{r: r, pending: make([]byte, 0, utf8.UTFMax)}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if len(p) < utf8.UTFMax {
		return 0, io.ErrShortBuffer
	}
	for {
		if s.err != nil && len(s.pending) == 0 {
			return 0, s.err
		}

		n := copy(p, s.pending)
		s.pending = s.pending[:0]
		if s.err == nil && n < len(p) {
			var m int
			m, s.err = s.r.Read(p[n:])
			n += m
		}

		if n = s.scrub(p[:n], s.err != nil); n > 0 {
			return n, nil
		}
	}
}

// scrub rewrites invalid bytes in place and returns how many bytes of data
// are ready. A trailing incomplete rune is moved to pending unless atEOF.
func (s *utf8Sanitizer) scrub(data []byte, atEOF bool) int {
	for i := 0; i < len(data); {
		if data[i] < utf8.RuneSelf {
			i++
			continue
		}
		if !atEOF && !utf8.FullRune(data[i:]) {
			s.pending = append(s.pending, data[i:]...)
			return i
		}
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			data[i] = '?'
		}
		i += size
	}
	return len(data)
}

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	r         io.Reader
	BytesRead int64
}

// Read implements io.Reader.
func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.BytesRead += int64(n)
	return n, err
}

// WrapSource chains BOM removal, UTF-8 sanitization, and byte counting.
// The BOM must be stripped before sanitizing, otherwise it is kept as a valid rune.
func WrapSource(r io.Reader) *CountingReader {
	return &CountingReader{r: newUTF8Sanitizer(newBOMSkipper(r))}
}
