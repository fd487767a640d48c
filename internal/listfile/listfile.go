// Package listfile reads and writes filter lists line by line while
// preserving their original bytes, line-ending style, and trailing newline.
// The dedup and trim modes rewrite lists through this package so untouched
// lines survive byte-for-byte.
package listfile

import (
	"os"
	"strings"
)

// Line endings a Document can carry.
const (
	LF   = "\n"
	CRLF = "\r\n"
)

// Line is one raw line of a filter list, without its line ending.
type Line struct {
	Number int // 1-based ordinal in the source
	Text   string
}

// Document is a filter list split on universal newlines.
type Document struct {
	Lines           []Line
	Ending          string
	TrailingNewline bool
}

// Parse splits raw content on universal newlines (LF, CRLF, lone CR). The
// detected ending style is CRLF if any CRLF sequence is present, LF
// otherwise.
func Parse(data []byte) *Document {
	doc := &Document{Ending: LF}
	if len(data) == 0 {
		return doc
	}

	s := string(data)
	if strings.Contains(s, CRLF) {
		doc.Ending = CRLF
	}
	s = strings.ReplaceAll(s, CRLF, "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	if strings.HasSuffix(s, "\n") {
		doc.TrailingNewline = true
		s = s[:len(s)-1]
	}

	parts := strings.Split(s, "\n")
	doc.Lines = make([]Line, len(parts))
	for i, text := range parts {
		doc.Lines[i] = Line{Number: i + 1, Text: text}
	}
	return doc
}

// Read loads and parses a filter list file.
func Read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data), nil
}

// Bytes serializes the document with its original ending style.
func (d *Document) Bytes() []byte {
	if len(d.Lines) == 0 {
		return nil
	}
	parts := make([]string, len(d.Lines))
	for i, l := range d.Lines {
		parts[i] = l.Text
	}
	out := strings.Join(parts, d.Ending)
	if d.TrailingNewline {
		out += d.Ending
	}
	return []byte(out)
}

// Write serializes the document to path.
func (d *Document) Write(path string) error {
	return os.WriteFile(path, d.Bytes(), 0644)
}
