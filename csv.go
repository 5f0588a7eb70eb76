package sidekick

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
)

// HeaderRewriter renames the columns of a CSV header before it is bound to a
// record type. It is used for exports with blank or duplicated column names.
type HeaderRewriter func(header []string) []string

// DecodeCSV reads the CSV file at path into out, a pointer to a slice of
// records tagged with `csv:"..."`.
func DecodeCSV(path string, comma rune, rewrite HeaderRewriter, out any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	if err := gocsv.UnmarshalCSV(&headerReader{Reader: r, rewrite: rewrite}, out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

// ReadHeader returns the header of the CSV file at path.
func ReadHeader(path string, comma rune) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.Comma = comma
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}
	return cleanHeader(header), nil
}

// headerReader is a gocsv.CSVReader rewriting the first record.
type headerReader struct {
	*csv.Reader
	rewrite HeaderRewriter
	done    bool
}

func (h *headerReader) Read() ([]string, error) {
	rec, err := h.Reader.Read()
	if err != nil || h.done {
		return rec, err
	}
	h.done = true
	rec = cleanHeader(rec)
	if h.rewrite != nil {
		rec = h.rewrite(rec)
	}
	return rec, nil
}

func (h *headerReader) ReadAll() ([][]string, error) {
	var all [][]string
	for {
		rec, err := h.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return all, nil
			}
			return all, err
		}
		all = append(all, rec)
	}
}

// cleanHeader drops the byte order mark and surrounding spaces.
func cleanHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		out[i] = strings.TrimSpace(h)
	}
	return out
}
