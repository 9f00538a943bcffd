// Package source produces assertion batches: scene files, remote clients and
// the demo animation.
package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/scenegl/pkg/assertion"
)

// ErrUnknownFormat is returned for scene files with an unrecognized extension.
var ErrUnknownFormat = errors.New("unknown scene file format")

// Sink accepts batches for the assertion consumer. It reports false once the
// pipeline is shut down.
type Sink interface {
	Send(assertion.Batch) bool
}

// Document is a scene file: batches applied in order.
type Document struct {
	Batches []DocumentBatch `json:"batches" yaml:"batches" toml:"batches"`
}

// DocumentBatch is one atomic batch of a scene file.
type DocumentBatch struct {
	Name       string             `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Assertions []assertion.Record `json:"assertions" yaml:"assertions" toml:"assertions"`
}

// Format is a scene file encoding.
type Format int

const (
	FormatYAML Format = iota
	FormatTOML
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatTOML:
		return "toml"
	case FormatJSON:
		return "json"
	}
	return "unknown"
}

// FormatOf picks the encoding from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// ParseDocument decodes a scene document.
func ParseDocument(data []byte, format Format) (*Document, error) {
	var doc Document
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	case FormatTOML:
		err = toml.Unmarshal(data, &doc)
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&doc)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s scene: %w", format, err)
	}
	return &doc, nil
}

// LoadDocument reads a scene file. Relative texture paths are resolved
// against the file's directory.
func LoadDocument(path string) (*Document, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene file: %w", err)
	}
	doc, err := ParseDocument(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.resolveURIs(filepath.Dir(path))
	return doc, nil
}

// Marshal encodes the document.
func (d *Document) Marshal(format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(d)
	case FormatTOML:
		return toml.Marshal(d)
	case FormatJSON:
		return json.MarshalIndent(d, "", "  ")
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, format)
}

// Decode converts every batch. The first bad record fails the document.
func (d *Document) Decode() ([]assertion.Batch, error) {
	batches := make([]assertion.Batch, 0, len(d.Batches))
	for i, b := range d.Batches {
		batch, err := assertion.Decode(b.Assertions)
		if err != nil {
			return nil, fmt.Errorf("batch %d %q: %w", i, b.Name, err)
		}
		batches = append(batches, batch)
	}
	return batches, nil
}

// Count returns the number of assertions per kind.
func (d *Document) Count() map[string]int {
	counts := make(map[string]int)
	for _, b := range d.Batches {
		for _, r := range b.Assertions {
			counts[r.Kind]++
		}
	}
	return counts
}

func (d *Document) resolveURIs(dir string) {
	for i := range d.Batches {
		for j := range d.Batches[i].Assertions {
			r := &d.Batches[i].Assertions[j]
			if r.Kind == assertion.KindTexture.String() {
				r.URI = resolveURI(dir, r.URI)
			}
		}
	}
}

func resolveURI(dir, uri string) string {
	const scheme = "file://"
	switch {
	case strings.HasPrefix(uri, scheme):
		p := strings.TrimPrefix(uri, scheme)
		if filepath.IsAbs(p) {
			return uri
		}
		return scheme + filepath.Join(dir, p)
	case strings.Contains(uri, "://"), filepath.IsAbs(uri):
		return uri
	}
	return filepath.Join(dir, uri)
}
