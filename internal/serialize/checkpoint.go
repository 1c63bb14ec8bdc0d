package serialize

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tphakala/go-hrtf-table/internal/sampleset"
)

// ErrInvalidCheckpoint is returned for a checkpoint that does not decode
// into sample entries.
var ErrInvalidCheckpoint = errors.New("invalid checkpoint")

// checkpointKey is the {"r","a","e"} object heading every record.
type checkpointKey struct {
	R int `json:"r"`
	A int `json:"a"`
	E int `json:"e"`
}

// record is one [key, [[left bands], [right bands]]] pair.
type record struct {
	key          checkpointKey
	coefficients [][]float64
}

func (r record) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{r.key, r.coefficients})
}

func (r *record) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("record has %d elements, want 2", len(pair))
	}
	if err := json.Unmarshal(pair[0], &r.key); err != nil {
		return fmt.Errorf("key: %w", err)
	}
	if err := json.Unmarshal(pair[1], &r.coefficients); err != nil {
		return fmt.Errorf("coefficients: %w", err)
	}
	return nil
}

// WriteSparseJSON writes the set's entries, sorted by (azimuth, elevation),
// as a JSON array of [{"r":R,"a":A,"e":E}, [[...], [...]]] records. Keys are
// written in table convention, after any elevation normalization.
func WriteSparseJSON(w io.Writer, set *sampleset.Set) error {
	if set == nil || set.Len() == 0 {
		return sampleset.ErrEmptySampleSet
	}
	entries := set.Entries()
	records := make([]record, len(entries))
	for i, e := range entries {
		records[i] = record{
			key:          checkpointKey{R: e.Key.Radius, A: e.Key.Azimuth, E: e.Key.Elevation},
			coefficients: e.Coefficients,
		}
	}

	bw := bufio.NewWriter(w)
	if err := json.NewEncoder(bw).Encode(records); err != nil {
		return fmt.Errorf("encoding checkpoint: %w", err)
	}
	return bw.Flush()
}

// ReadSparseJSON decodes a checkpoint written by WriteSparseJSON. Keys are
// taken as-is; no elevation normalization is applied. Each entry's Source
// names its record index.
func ReadSparseJSON(r io.Reader) ([]sampleset.Entry, error) {
	var records []record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCheckpoint, err)
	}
	if len(records) == 0 {
		return nil, sampleset.ErrEmptySampleSet
	}

	entries := make([]sampleset.Entry, len(records))
	for i, rec := range records {
		entries[i] = sampleset.Entry{
			Key: sampleset.Key{
				Radius:    rec.key.R,
				Azimuth:   rec.key.A,
				Elevation: rec.key.E,
			},
			Coefficients: rec.coefficients,
			Source:       fmt.Sprintf("record %d", i),
		}
	}
	return entries, nil
}
