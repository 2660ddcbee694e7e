package source

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"booklib/internal/resolve"
)

// ErrMissingCollection is returned when a dataset document has no array under the collection key.
var ErrMissingCollection = errors.New("collection missing from dataset")

// Snapshot serves queries from a JSON document on disk with top-level keys
// books, cart and users. The file is read on every fetch so edits are picked up.
type Snapshot struct {
	path string
}

// NewSnapshot creates a snapshot source for the file at path.
func NewSnapshot(path string) *Snapshot {
	return &Snapshot{path: path}
}

// Path returns the file location.
func (s *Snapshot) Path() string {
	return s.path
}

// Fetch implements resolve.Fetcher. Single-record queries get the whole
// collection; the resolver selects the record.
func (s *Snapshot) Fetch(ctx context.Context, q resolve.Query) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	return collectionFrom(doc, q.Kind.Collection())
}

//go:embed sample.json
var sampleDataset []byte

// Embedded serves the small sample dataset compiled into the binary.
type Embedded struct {
	doc []byte
}

// NewEmbedded returns the built-in sample dataset source.
func NewEmbedded() *Embedded {
	return &Embedded{doc: sampleDataset}
}

// NewEmbeddedFrom builds an embedded source over an in-memory document.
func NewEmbeddedFrom(doc []byte) *Embedded {
	return &Embedded{doc: doc}
}

// Fetch implements resolve.Fetcher.
func (e *Embedded) Fetch(ctx context.Context, q resolve.Query) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return collectionFrom(e.doc, q.Kind.Collection())
}

// SampleDataset returns a copy of the built-in dataset document.
func SampleDataset() []byte {
	return append([]byte(nil), sampleDataset...)
}

func collectionFrom(doc []byte, collection string) ([]byte, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(doc, &top); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	raw, ok := top[collection]
	if !ok || len(raw) == 0 || raw[0] != '[' {
		return nil, fmt.Errorf("%w: %s", ErrMissingCollection, collection)
	}
	return raw, nil
}
