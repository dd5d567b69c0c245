package directory

// source.go opens the users file and streams its rows.
//
// Files exported from spreadsheets frequently start with a UTF-8 byte order
// mark and occasionally contain bytes that are not valid UTF-8. Both are
// cleaned up on the fly by wrapping the file in bomSkippingReader and
// utf8Sanitizer before it reaches encoding/csv, so the file is never held in
// memory as a whole.

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// bomSkippingReader drops a leading UTF-8 byte order mark.
type bomSkippingReader struct {
	r       *bufio.Reader
	checked bool
}

func newBOMSkippingReader(r io.Reader) *bomSkippingReader {
	return &bomSkippingReader{r: bufio.NewReader(r)}
}

func (b *bomSkippingReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		head, err := b.r.Peek(len(utf8BOM))
		if err == nil && string(head) == string(utf8BOM) {
			if _, err := b.r.Discard(len(utf8BOM)); err != nil {
				return 0, err
			}
		}
	}
	return b.r.Read(p)
}

// utf8Sanitizer replaces bytes that are not valid UTF-8 with '?'.
// A multi-byte sequence split across underlying reads is carried over and
// decoded once the rest of it arrives.
type utf8Sanitizer struct {
	r     io.Reader
	chunk []byte
	carry []byte // undecoded tail of the previous chunk
	out   []byte // sanitized bytes not yet returned
	err   error
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{r: r, chunk: make([]byte, 32*1024)}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	for len(s.out) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		s.fill()
	}
	n := copy(p, s.out)
	s.out = s.out[n:]
	return n, nil
}

func (s *utf8Sanitizer) fill() {
	n, err := s.r.Read(s.chunk)
	atEOF := err != nil

	data := make([]byte, 0, len(s.carry)+n)
	data = append(data, s.carry...)
	data = append(data, s.chunk[:n]...)
	s.carry = s.carry[:0]

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); {
		c := data[i]
		if c < utf8.RuneSelf {
			out = append(out, c)
			i++
			continue
		}
		if !atEOF && !utf8.FullRune(data[i:]) {
			s.carry = append(s.carry, data[i:]...)
			break
		}
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			out = append(out, '?')
			i++
			continue
		}
		out = append(out, data[i:i+size]...)
		i += size
	}

	s.out = out
	s.err = err
}

// headerIndex maps cleaned, lower-cased header names to column positions.
type headerIndex map[string]int

func makeHeaderIndex(header []string) headerIndex {
	idx := make(headerIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(cleanHeader(h))
		if _, dup := idx[key]; dup {
			// First occurrence wins, as in the CSV header map.
			continue
		}
		idx[key] = i
	}
	return idx
}

// cleanHeader trims whitespace and surrounding quotes from a header cell.
func cleanHeader(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

// lookup finds a column position by header name, ignoring case.
func (h headerIndex) lookup(name string) (int, bool) {
	pos, ok := h[strings.ToLower(cleanHeader(name))]
	return pos, ok
}

// resolveSourceFile returns the file to ingest. When path is a directory
// the most recently modified regular file in it is used.
func resolveSourceFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("users file: %w", err)
	}
	if !info.IsDir() {
		return path, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return "", fmt.Errorf("reading users directory %s: %w", path, err)
	}

	var (
		newest  string
		newestT int64
	)
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		if mod := fi.ModTime().UnixNano(); newest == "" || mod > newestT {
			newest = filepath.Join(path, entry.Name())
			newestT = mod
		}
	}
	if newest == "" {
		return "", fmt.Errorf("users directory %s contains no files", path)
	}
	return newest, nil
}

// rowSource reads the header and then data rows of one source file.
type rowSource struct {
	file   *os.File
	reader *csv.Reader
	header []string
}

// openRowSource opens path and reads its header row. A file with no
// header yields a source whose header is nil and which has no rows.
func openRowSource(path string) (*rowSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(newUTF8Sanitizer(newBOMSkippingReader(f)))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil && !errors.Is(err, io.EOF) {
		f.Close()
		return nil, fmt.Errorf("reading header: %w", err)
	}

	return &rowSource{file: f, reader: cr, header: header}, nil
}

// next returns the next data row and its line number, or io.EOF.
func (s *rowSource) next() ([]string, int, error) {
	if s.header == nil {
		return nil, 0, io.EOF
	}
	row, err := s.reader.Read()
	if err != nil {
		return nil, 0, err
	}
	line, _ := s.reader.FieldPos(0)
	return row, line, nil
}

func (s *rowSource) Close() error {
	return s.file.Close()
}
