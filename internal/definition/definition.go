// Package definition models the multi-part serialized form of a platform
// item (semantic model, report, notebook, pipeline) and the operations the
// provisioning workflows need: part lookup, payload decode/encode, part
// replacement, and identifier rewriting.
//
// The package is deliberately format-agnostic. A part payload is addressed
// by path and treated as opaque bytes; what "model.bim" or
// "notebook-content.ipynb" means is the caller's business.
package definition

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// PayloadType tags how a part payload is encoded on the wire.
type PayloadType string

// InlineBase64 is the platform default for inline payloads. Parts fetched
// from or sent to the platform carry base64 text so binary-safe content
// survives JSON transport.
const InlineBase64 PayloadType = "InlineBase64"

// ErrPartNotFound is returned when a definition has no part at the
// requested path.
var ErrPartNotFound = errors.New("definition part not found")

// DecodeError wraps a payload decode failure with the part path so callers
// can name the failing part without inspecting platform logs.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode payload of part %q: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Part is one named, independently addressable segment of a Definition.
// Path is forward-slash-delimited and may represent a virtual subfolder
// (e.g. "StaticResources/SharedResources/BaseThemes/CY24SU02.json").
type Part struct {
	Path        string      `json:"path"`
	Payload     string      `json:"payload"`
	PayloadType PayloadType `json:"payloadType"`
}

// Definition is an ordered collection of parts plus an optional format hint
// ("TMSL", "TMDL", "ipynb", ...) that tells the platform how to interpret
// them. Part paths are unique within a definition.
type Definition struct {
	Parts  []Part `json:"parts"`
	Format string `json:"format,omitempty"`
}

// NewInlineBase64Part encodes content and returns a part carrying the
// platform's default inline encoding.
func NewInlineBase64Part(path string, content []byte) Part {
	return Part{
		Path:        path,
		Payload:     base64.StdEncoding.EncodeToString(content),
		PayloadType: InlineBase64,
	}
}

// Decode returns the raw bytes of the part payload. Payloads tagged
// InlineBase64 are base64-decoded; anything else is returned verbatim.
func (p Part) Decode() ([]byte, error) {
	if p.PayloadType != InlineBase64 {
		return []byte(p.Payload), nil
	}
	content, err := base64.StdEncoding.DecodeString(p.Payload)
	if err != nil {
		return nil, &DecodeError{Path: p.Path, Err: err}
	}
	return content, nil
}

// FindPart returns the part at the exact path.
func (d Definition) FindPart(path string) (Part, error) {
	for _, part := range d.Parts {
		if part.Path == path {
			return part, nil
		}
	}
	return Part{}, fmt.Errorf("%w: %q", ErrPartNotFound, path)
}

// ReplacePart returns a copy of the definition with the part at path
// replaced. The new part is stored under path regardless of its own Path
// field, keeping part paths unique. The replaced part is removed and
// re-appended, so callers must not rely on part ordering after a replace.
func (d Definition) ReplacePart(path string, part Part) (Definition, error) {
	if _, err := d.FindPart(path); err != nil {
		return Definition{}, err
	}
	part.Path = path

	out := Definition{Format: d.Format, Parts: make([]Part, 0, len(d.Parts))}
	for _, existing := range d.Parts {
		if existing.Path == path {
			continue
		}
		out.Parts = append(out.Parts, existing)
	}
	out.Parts = append(out.Parts, part)
	return out, nil
}
