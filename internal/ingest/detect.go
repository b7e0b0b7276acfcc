package ingest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Dialect is the detected shape of the raw export file.
type Dialect struct {
	Delimiter rune
	HasBOM    bool
}

// openDecoded opens the export and returns a reader that strips any
// byte-order mark and transcodes UTF-16 input to UTF-8. Files without a
// BOM pass through unchanged.
func openDecoded(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	return &decodedFile{f: f, r: transform.NewReader(f, dec)}, nil
}

type decodedFile struct {
	f *os.File
	r io.Reader
}

func (d *decodedFile) Read(p []byte) (int, error) { return d.r.Read(p) }
func (d *decodedFile) Close() error               { return d.f.Close() }

// DetectDialect inspects the first line of the export and picks the most
// plausible delimiter among semicolon, comma, and tab.
func DetectDialect(path string) (Dialect, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dialect{}, fmt.Errorf("open export: %w", err)
	}
	defer f.Close()

	head := make([]byte, 3)
	n, _ := io.ReadFull(f, head)
	hasBOM := n == 3 && head[0] == 0xef && head[1] == 0xbb && head[2] == 0xbf

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return Dialect{}, fmt.Errorf("seek export: %w", err)
	}
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	br := bufio.NewReader(transform.NewReader(f, dec))
	first, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return Dialect{}, fmt.Errorf("read header line: %w", err)
	}

	nSemi := strings.Count(first, ";")
	nComma := strings.Count(first, ",")
	nTab := strings.Count(first, "\t")

	delim := ','
	switch {
	case nSemi > nComma && nSemi > nTab:
		delim = ';'
	case nTab > nComma:
		delim = '\t'
	}
	return Dialect{Delimiter: delim, HasBOM: hasBOM}, nil
}
