// Package resource describes the collections served by the panel API: their
// names, the messages used in error envelopes and how request bodies are
// validated and turned into typed patches.
package resource

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Infinity2209/user/cmd/panelapi/internal/repository"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// ErrMalformedInput wraps every body that cannot be turned into a patch.
var ErrMalformedInput = errors.New("malformed input")

const (
	KindUsers    = "users"
	KindProducts = "products"
)

// Descriptor describes one resource collection.
type Descriptor struct {
	Kind     string // URL segment and collection name
	Singular string // "User", used in error messages

	createSchema *jsonschema.Schema
	patchSchema  *jsonschema.Schema
	decode       func(map[string]any) (Patch, error)
}

// NotFoundMessage is the envelope message for an absent id.
func (d *Descriptor) NotFoundMessage() string {
	return d.Singular + " not found"
}

// IDRequiredMessage is the envelope message for a mutation without an id.
func (d *Descriptor) IDRequiredMessage() string {
	return d.Singular + " ID required"
}

// ParseCreate validates a create body and returns the fields to store.
// Any "id" in the body is dropped; the store assigns one.
func (d *Descriptor) ParseCreate(body []byte) (repository.Record, error) {
	return d.parse(body, d.createSchema)
}

// ParsePatch validates an update body and returns only the fields it sets.
func (d *Descriptor) ParsePatch(body []byte) (repository.Record, error) {
	return d.parse(body, d.patchSchema)
}

func (d *Descriptor) parse(body []byte, schema *jsonschema.Schema) (repository.Record, error) {
	obj, err := decodeObject(body)
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(obj); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedInput, formatValidationError(err))
	}

	delete(obj, repository.IDField)
	patch, err := d.decode(obj)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return patch.Fields(), nil
}

func decodeObject(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: unexpected end of JSON input", ErrMalformedInput)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: unexpected data after JSON object", ErrMalformedInput)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: body must be a JSON object", ErrMalformedInput)
	}
	return obj, nil
}

// formatValidationError renders the first failing location as "$.field: reason".
func formatValidationError(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}

	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}

	path := "$"
	var parts []string
	for _, part := range leaf.InstanceLocation {
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) > 0 {
		path = "$." + strings.Join(parts, ".")
	}

	msg := leaf.Error()
	if len(msg) > 200 {
		msg = msg[:200] + "... (truncated)"
	}
	return fmt.Sprintf("validation failed at '%s': %s", path, msg)
}

// Registry holds the descriptors of every served resource.
type Registry struct {
	byKind map[string]*Descriptor
}

// NewRegistry compiles the embedded schemas for users and products.
func NewRegistry() (*Registry, error) {
	users, err := newDescriptor(KindUsers, "User", decodePatch[UserPatch, *UserPatch])
	if err != nil {
		return nil, err
	}
	products, err := newDescriptor(KindProducts, "Product", decodePatch[ProductPatch, *ProductPatch])
	if err != nil {
		return nil, err
	}
	return &Registry{byKind: map[string]*Descriptor{
		users.Kind:    users,
		products.Kind: products,
	}}, nil
}

// MustNewRegistry is NewRegistry for package initialisation and tests.
func MustNewRegistry() *Registry {
	r, err := NewRegistry()
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the descriptor for a URL segment.
func (r *Registry) Lookup(kind string) (*Descriptor, bool) {
	d, ok := r.byKind[kind]
	return d, ok
}

// Kinds lists the served resources in sorted order.
func (r *Registry) Kinds() []string {
	out := make([]string, 0, len(r.byKind))
	for k := range r.byKind {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func newDescriptor(kind, singular string, decode func(map[string]any) (Patch, error)) (*Descriptor, error) {
	create, err := compileSchema(kind + ".create.json")
	if err != nil {
		return nil, err
	}
	patch, err := compileSchema(kind + ".patch.json")
	if err != nil {
		return nil, err
	}
	return &Descriptor{
		Kind:         kind,
		Singular:     singular,
		createSchema: create,
		patchSchema:  patch,
		decode:       decode,
	}, nil
}

func compileSchema(name string) (*jsonschema.Schema, error) {
	raw, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", name, err)
	}
	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", name, err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.DefaultDraft(jsonschema.Draft7)
	if err := compiler.AddResource(name, parsed); err != nil {
		return nil, fmt.Errorf("add schema resource %s: %w", name, err)
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return schema, nil
}
