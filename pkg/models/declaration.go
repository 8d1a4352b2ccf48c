package models

import (
	"strings"
	"unicode"
)

// Declaration is the capability the opportunity detector needs from a
// parsed method. Language-specific parse trees never leak past it.
type Declaration interface {
	Identifier() string
	ResultType() string
	Params() []Parameter
	BodyText() string
}

// Parameter is a single formal parameter descriptor.
type Parameter struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Text string `json:"text,omitempty"` // Source text, including modifiers and defaults
}

// String renders the parameter the way it would appear in a signature.
func (p Parameter) String() string {
	if p.Text != "" {
		return p.Text
	}
	if p.Type == "" {
		return p.Name
	}
	return p.Type + " " + p.Name
}

// MethodSignature is a method extracted from a class declaration.
// It is immutable once the parser hands it out.
type MethodSignature struct {
	Name       string      `json:"name"`
	ReturnType string      `json:"return_type"`
	Parameters []Parameter `json:"parameters"`
	Body       string      `json:"body"`
	StartLine  uint32      `json:"start_line"`
	EndLine    uint32      `json:"end_line"`
	Modifiers  []string    `json:"modifiers,omitempty"`

	// Class is the enclosing declaration. It is restored by ClassUnit.Link
	// after decoding.
	Class *ClassUnit `json:"-"`
}

func (m *MethodSignature) Identifier() string  { return m.Name }
func (m *MethodSignature) ResultType() string  { return m.ReturnType }
func (m *MethodSignature) Params() []Parameter { return m.Parameters }
func (m *MethodSignature) BodyText() string    { return m.Body }

// Signature renders "ReturnType Name(params)" for reports.
func (m *MethodSignature) Signature() string {
	params := make([]string, len(m.Parameters))
	for i, p := range m.Parameters {
		params[i] = p.String()
	}
	sig := m.Name + "(" + strings.Join(params, ", ") + ")"
	if m.ReturnType != "" {
		sig = m.ReturnType + " " + sig
	}
	return sig
}

// ClassUnit is a named class-like declaration and its methods in
// declaration order.
type ClassUnit struct {
	Name      string             `json:"name"`
	Path      string             `json:"path"`
	Language  string             `json:"language"`
	StartLine uint32             `json:"start_line"`
	EndLine   uint32             `json:"end_line"`
	Methods   []*MethodSignature `json:"methods"`
}

// Link points every method back at c. Decoded units must be linked before use.
func (c *ClassUnit) Link() *ClassUnit {
	for _, m := range c.Methods {
		m.Class = c
	}
	return c
}

// descriptorPunct lists characters around which whitespace carries no meaning
// in a type descriptor.
const descriptorPunct = "<>[](),?*&"

// NormalizeDescriptor removes formatting-only whitespace from a type or
// parameter descriptor: runs of whitespace collapse to one space and
// whitespace next to descriptor punctuation is dropped.
func NormalizeDescriptor(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	pending := false
	var last rune
	for _, r := range s {
		if unicode.IsSpace(r) {
			pending = true
			continue
		}
		if pending && b.Len() > 0 &&
			!strings.ContainsRune(descriptorPunct, last) &&
			!strings.ContainsRune(descriptorPunct, r) {
			b.WriteByte(' ')
		}
		pending = false
		b.WriteRune(r)
		last = r
	}
	return b.String()
}
