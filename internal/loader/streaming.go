package loader

// streaming.go wraps raw file readers before they reach a parser:
//
//   - bomSkipper drops a leading UTF-8 BOM (0xEF 0xBB 0xBF) written by Windows tools
//   - utf8Sanitizer replaces invalid UTF-8 sequences with U+FFFD
//   - CountingReader tracks bytes read for progress reporting
//
// Use Normalize to apply the first two in the correct order.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Normalize strips a UTF-8 BOM and repairs invalid UTF-8 on the fly.
// Memory use is bounded by the internal buffer, not the input size.
func Normalize(r io.Reader) io.Reader {
	return newUTF8Sanitizer(skipBOM(r))
}

// skipBOM returns a reader positioned after any leading BOM.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// utf8Sanitizer decodes runes from the underlying reader and re-encodes
// them, turning every invalid byte into the replacement character.
type utf8Sanitizer struct {
	br      *bufio.Reader
	pending []byte // tail of a rune that did not fit the caller's buffer
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &utf8Sanitizer{br: br}
}

// Read implements io.Reader.
func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	n := copy(p, s.pending)
	s.pending = s.pending[n:]

	var buf [utf8.UTFMax]byte
	for n < len(p) {
		// Hand back what we have rather than block on the next read.
		if n > 0 && s.br.Buffered() == 0 {
			break
		}
		r, _, err := s.br.ReadRune()
		if err != nil {
			if err == io.EOF && n > 0 {
				return n, nil
			}
			return n, err
		}
		// ReadRune reports invalid bytes as utf8.RuneError, which encodes as U+FFFD.
		size := utf8.EncodeRune(buf[:], r)
		c := copy(p[n:], buf[:size])
		n += c
		if c < size {
			s.pending = append(s.pending[:0], buf[c:size]...)
		}
	}
	return n, nil
}

// CountingReader tracks how many bytes have passed through it.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
	Total     int64 // 0 when unknown
}

// NewCountingReader wraps r. total is the expected size, or 0.
func NewCountingReader(r io.Reader, total int64) *CountingReader {
	return &CountingReader{reader: r, Total: total}
}

// Read implements io.Reader.
func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.reader.Read(p)
	c.BytesRead += int64(n)
	return n, err
}

// Progress returns read progress as a percentage, or 0 when the total is unknown.
func (c *CountingReader) Progress() int {
	if c.Total <= 0 {
		return 0
	}
	return int(c.BytesRead * 100 / c.Total)
}
