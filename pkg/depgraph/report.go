// Package depgraph loads a bundler module report and finds the files that do
// not take part in a selector's usage chain.
package depgraph

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/afero"
	"github.com/xeipuuv/gojsonschema"
)

// DefaultCommonChunkName is the chunk whose modules are shared across entries.
const DefaultCommonChunkName = "common-chunks"

// Sentinel errors.
var (
	// ErrInvalidReport is returned when the report does not match the schema.
	ErrInvalidReport = errors.New("invalid dependency report")

	// ErrNoGraph is returned when a traversal runs without a usable report.
	ErrNoGraph = errors.New("no dependency graph loaded")

	// ErrOrphanedFile is returned when a leaf template has no importer.
	ErrOrphanedFile = errors.New("dead file, please remove it")
)

// SchemaFS contains the embedded report schema.
//
//go:embed report-schema.json
var SchemaFS embed.FS

// Module is one bundled module.
type Module struct {
	Name       string `json:"name"`
	IssuerName string `json:"issuerName"`
	Identifier string `json:"identifier"`
}

// Chunk groups modules under one or more names.
type Chunk struct {
	Names   []string `json:"names"`
	Modules []Module `json:"modules"`
}

// Compilation is one child compilation of the report.
type Compilation struct {
	Chunks  []Chunk  `json:"chunks"`
	Modules []Module `json:"modules"`
}

// Report is the subset of `webpack --json` output that is traversed. The
// first child compilation is a separate entry and is ignored.
type Report struct {
	Children []Compilation `json:"children"`
}

// App returns the application compilation.
func (r *Report) App() Compilation {
	return r.Children[1]
}

// ParseReport validates data against the embedded schema and decodes it.
func ParseReport(data []byte) (*Report, error) {
	schema, err := SchemaFS.ReadFile("report-schema.json")
	if err != nil {
		return nil, fmt.Errorf("read embedded schema: %w", err)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidReport, err)
	}

	if !result.Valid() {
		descriptions := make([]string, 0, len(result.Errors()))
		for _, verr := range result.Errors() {
			descriptions = append(descriptions, verr.Field()+": "+verr.Description())
		}

		return nil, fmt.Errorf("%w: %s", ErrInvalidReport, strings.Join(descriptions, "; "))
	}

	var report Report

	err = json.NewDecoder(bytes.NewReader(data)).Decode(&report)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidReport, err)
	}

	return &report, nil
}

// LoadReport reads and parses the report at path.
func LoadReport(fsys afero.Fs, path string) (*Report, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read report %s: %w", path, err)
	}

	return ParseReport(data)
}

// LoadGraph loads the report at path and indexes it. Failures are logged with
// MissingReportHint and yield a nil graph, which traversals reject with
// ErrNoGraph.
func LoadGraph(fsys afero.Fs, path, commonChunk string, logger *slog.Logger) *Graph {
	report, err := LoadReport(fsys, path)
	if err != nil {
		logger.Error(MissingReportHint, "error", err)

		return nil
	}

	return NewGraph(report, commonChunk)
}
