// Package rawdoc handles already-formed tradespace search documents uploaded
// for submission as they are.
package rawdoc

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/davecgh/go-spew/spew"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidDocument is returned for uploads that are not usable JSON
// documents or that fail schema validation.
var ErrInvalidDocument = errors.New("invalid tradespace document")

const maxDocumentBytes = 32 << 20

//go:embed schema.json
var schemaSource string

const schemaURL = "https://tradespace.schemas.local/tradespace-search.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// Document is an uploaded request. Raw keeps the bytes as read so the
// document can be forwarded unmodified; Value is the decoded form used for
// display and validation.
type Document struct {
	Raw   json.RawMessage
	Value any
}

// Load reads and parses one JSON document.
func Load(r io.Reader) (*Document, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxDocumentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if len(raw) > maxDocumentBytes {
		return nil, fmt.Errorf("%w: larger than %d bytes", ErrInvalidDocument, maxDocumentBytes)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidDocument)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after document", ErrInvalidDocument)
	}
	if _, ok := value.(map[string]any); !ok {
		return nil, fmt.Errorf("%w: top level must be an object", ErrInvalidDocument)
	}
	return &Document{Raw: json.RawMessage(raw), Value: value}, nil
}

// Render writes the document indented for reading.
func (d *Document) Render(w io.Writer) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, d.Raw, "", "  "); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}

// Dump writes a Go-value view of the decoded document.
func (d *Document) Dump(w io.Writer) {
	cfg := spew.ConfigState{Indent: "  ", SortKeys: true, DisablePointerAddresses: true, DisableCapacities: true}
	cfg.Fdump(w, d.Value)
}

// Validate checks the document against the embedded tradespace search schema.
func (d *Document) Validate() error {
	schema, err := loadSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(d.Value); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return nil
}

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(schemaURL, bytes.NewReader([]byte(schemaSource))); err != nil {
			schemaErr = fmt.Errorf("schema load failed: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(schemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("schema compile failed: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}
