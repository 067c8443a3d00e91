package directory

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Sternrassler/school-directory-crawler/pkg/record"
)

// ErrMalformedResponse is returned when a 200 body does not have the expected shape.
var ErrMalformedResponse = errors.New("malformed upstream response")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func decodeJSON(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(v)
}

type subareaEnvelope struct {
	Data []struct {
		District record.Record `json:"district"`
	} `json:"data"`
}

// parseSubareas extracts the district objects of a descendants response.
func parseSubareas(body []byte) ([]record.Record, error) {
	var env subareaEnvelope
	if err := decodeJSON(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	out := make([]record.Record, 0, len(env.Data))
	for i, item := range env.Data {
		if item.District == nil {
			return nil, fmt.Errorf("%w: data[%d] has no district", ErrMalformedResponse, i)
		}
		out = append(out, item.District)
	}
	return out, nil
}

type metaEnvelope struct {
	Meta struct {
		LastUpdatedAt any `json:"lastUpdatedAt"`
	} `json:"meta"`
}

// parseLastUpdated reads meta.lastUpdatedAt. A missing value yields nil.
func parseLastUpdated(body []byte) (any, error) {
	var env metaEnvelope
	if err := decodeJSON(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return env.Meta.LastUpdatedAt, nil
}

type detailEnvelope struct {
	Meta struct {
		LastUpdatedAt any `json:"lastUpdatedAt"`
	} `json:"meta"`
	SatuanPendidikan record.Record `json:"satuanPendidikan"`
}

// parseDetail extracts the satuanPendidikan payload and its timestamp.
func parseDetail(body []byte) (record.Record, any, error) {
	var env detailEnvelope
	if err := decodeJSON(body, &env); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if env.SatuanPendidikan == nil {
		return nil, nil, fmt.Errorf("%w: no satuanPendidikan", ErrMalformedResponse)
	}
	return env.SatuanPendidikan, env.Meta.LastUpdatedAt, nil
}

// parseSchoolCSV turns a CSV download with a header row into records keyed
// by the header. Short rows leave the missing columns out; extra cells are ignored.
func parseSchoolCSV(body []byte) ([]record.Record, error) {
	body = bytes.TrimPrefix(body, utf8BOM)
	if len(bytes.TrimSpace(body)) == 0 {
		return []record.Record{}, nil
	}

	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: csv header: %w", ErrMalformedResponse, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var out []record.Record
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: csv row %d: %w", ErrMalformedResponse, len(out)+2, err)
		}

		rec := make(record.Record, len(header))
		for i, name := range header {
			if i < len(row) {
				rec[name] = row[i]
			}
		}
		out = append(out, rec)
	}
	if out == nil {
		out = []record.Record{}
	}
	return out, nil
}
