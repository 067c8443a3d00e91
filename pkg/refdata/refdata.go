// Package refdata reads the area-code reference file and resolves a
// user-supplied area filter into the subarea codes to crawl.
package refdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Column names required in the reference file header.
const (
	ColumnAreaCode       = "area_code"
	ColumnParentAreaCode = "parent_area_code"
)

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing column")

// AreaRef is one row of the reference file: a subarea and the area above it.
type AreaRef struct {
	AreaCode       string
	ParentAreaCode string
}

// LoadFile reads the reference file at path.
func LoadFile(path string) ([]AreaRef, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference file: %w", err)
	}
	defer f.Close()

	refs, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return refs, nil
}

// Load parses a reference CSV. Extra columns are ignored, as are rows with
// an empty area code.
func Load(r io.Reader) ([]AreaRef, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: %s (empty file)", ErrMissingColumn, ColumnAreaCode)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	areaIdx, parentIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case ColumnAreaCode:
			areaIdx = i
		case ColumnParentAreaCode:
			parentIdx = i
		}
	}
	if areaIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnAreaCode)
	}
	if parentIdx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnParentAreaCode)
	}

	var refs []AreaRef
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		ref := AreaRef{
			AreaCode:       field(row, areaIdx),
			ParentAreaCode: field(row, parentIdx),
		}
		if ref.AreaCode == "" {
			continue
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func field(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Resolve returns the subarea codes selected by filter.
//
// An empty filter selects every subarea. Otherwise a subarea is selected when
// a filter entry equals its parent code or its own code. Codes are returned
// once each, in reference file order.
func Resolve(refs []AreaRef, filter []string) []string {
	wanted := make(map[string]struct{}, len(filter))
	for _, f := range filter {
		if f = strings.TrimSpace(f); f != "" {
			wanted[f] = struct{}{}
		}
	}

	seen := make(map[string]struct{}, len(refs))
	codes := make([]string, 0, len(refs))
	for _, ref := range refs {
		if len(wanted) > 0 && !matches(wanted, ref) {
			continue
		}
		if _, dup := seen[ref.AreaCode]; dup {
			continue
		}
		seen[ref.AreaCode] = struct{}{}
		codes = append(codes, ref.AreaCode)
	}
	return codes
}

func matches(wanted map[string]struct{}, ref AreaRef) bool {
	if _, ok := wanted[ref.ParentAreaCode]; ok {
		return true
	}
	_, ok := wanted[ref.AreaCode]
	return ok
}

// SplitList splits a comma-separated flag value into trimmed, non-empty entries.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
