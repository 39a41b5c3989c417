package labtex

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
)

const namesStep = "export the colour name list (one name per line, matrix column order)"

var namePrefixRegExp = regexp.MustCompile(`^\d+\s*\.\s*`)

// cleanName strips quotes, commas and a "<n>." prefix from one names line.
// Case is kept; colour lookups fold it.
func cleanName(line string) string {
	line = strings.Trim(strings.TrimSpace(line), `'",`)
	line = namePrefixRegExp.ReplaceAllString(line, "")
	return strings.TrimSpace(line)
}

// legacyEncoding guesses the single-byte charset of a names file that is not
// UTF-8. Undetectable input is taken as Windows-1252.
func legacyEncoding(data []byte) encoding.Encoding {
	r, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil {
		return charmap.Windows1252
	}
	enc, err := ianaindex.IANA.Encoding(r.Charset)
	if err != nil || enc == nil {
		return charmap.Windows1252
	}
	return enc
}

// ParseNames reads a colour name list. Line order is the column order of
// the probability matrix. Files that are not UTF-8 are decoded from their
// detected charset.
func ParseNames(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		if data, err = legacyEncoding(data).NewDecoder().Bytes(data); err != nil {
			return nil, err
		}
	}

	var names []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) == "" {
			continue
		}
		names = append(names, cleanName(sc.Text()))
	}
	if err = sc.Err(); err != nil {
		return nil, err
	}
	if len(names) != NumColorNames {
		return nil, schemaMismatch("%d colour names, want %d", len(names), NumColorNames)
	}
	return names, nil
}

func LoadNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &MissingArtifactError{Path: path, Step: namesStep}
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	names, err := ParseNames(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return names, nil
}
