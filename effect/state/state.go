// Package state saves and restores the parameter store as a YAML document.
//
// The document keys values by the stable parameter names. Restoring is
// tolerant: missing keys keep their current value and unknown keys are
// ignored. Float values are written in shortest round-trip form, so a
// save/restore cycle is bit exact.
package state

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/cwbudde/parcomp/dsp/core"
	"github.com/cwbudde/parcomp/effect/params"
)

const (
	// Format tags documents written by this package.
	Format = "parcomp"

	// Version is the current document version.
	Version = 1
)

var (
	// ErrMalformed is returned for documents that cannot be restored.
	ErrMalformed = errors.New("malformed state document")

	// ErrUnsupportedVersion is returned for documents newer than Version.
	ErrUnsupportedVersion = errors.New("unsupported state version")
)

// Document is the persisted form of the effect state.
type Document struct {
	Format     string             `yaml:"format"`
	Version    int                `yaml:"version"`
	Name       string             `yaml:"name,omitempty"`
	Parameters map[string]float64 `yaml:"parameters"`
}

// Capture builds a document from the current store values.
func Capture(store *params.Store, name string) Document {
	return Document{
		Format:     Format,
		Version:    Version,
		Name:       name,
		Parameters: store.Values(),
	}
}

// Save serializes the store.
func Save(store *params.Store) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, Capture(store, "")); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes doc as YAML.
func Encode(w io.Writer, doc Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return nil
}

// Decode parses and validates a document.
func Decode(r io.Reader) (Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Document{}, fmt.Errorf("decode state: empty document: %w", ErrMalformed)
		}
		return Document{}, fmt.Errorf("decode state: %v: %w", err, ErrMalformed)
	}
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Validate checks the document header and values.
func (d Document) Validate() error {
	if d.Format != "" && d.Format != Format {
		return fmt.Errorf("state format %q: %w", d.Format, ErrMalformed)
	}
	if d.Version > Version {
		return fmt.Errorf("state version %d: %w", d.Version, ErrUnsupportedVersion)
	}
	if d.Parameters == nil {
		return fmt.Errorf("state has no parameters section: %w", ErrMalformed)
	}
	for name, v := range d.Parameters {
		if !core.IsFinite(v) {
			return fmt.Errorf("state parameter %q is not finite: %w", name, ErrMalformed)
		}
	}
	return nil
}

// Apply writes the document's known parameters into store. Unknown names
// are skipped and reported in the returned slice.
func (d Document) Apply(store *params.Store) (ignored []string, err error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	for _, desc := range params.Descriptors() {
		v, ok := d.Parameters[desc.Name]
		if !ok {
			continue
		}
		if err := store.Set(desc.ID, v); err != nil {
			return nil, fmt.Errorf("apply state: %w", err)
		}
	}

	for name := range d.Parameters {
		if _, err := params.Lookup(name); err != nil {
			ignored = append(ignored, name)
		}
	}
	return ignored, nil
}

// Load restores the store from data. On error the store is unchanged.
func Load(store *params.Store, data []byte) error {
	doc, err := Decode(bytes.NewReader(data))
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Load",
			"bytes":    len(data),
			"error":    err.Error(),
		}).Warn("Rejected state document")
		return err
	}

	ignored, err := doc.Apply(store)
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"function": "Load",
		"name":     doc.Name,
		"restored": len(doc.Parameters) - len(ignored),
		"ignored":  ignored,
	}).Debug("Restored state")
	return nil
}
