package module

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// OutputDeclarer is implemented by components whose output shape is fixed
// ahead of execution.
type OutputDeclarer interface {
	DeclaredOutput() Shape
}

// Fingerprints computes structural descriptions of components. Two
// components fingerprint equal when their types, configurations, tensor
// shapes and nested structure match. Child names are not part of a
// fingerprint.
type Fingerprints struct {
	cache map[Component]string
}

// NewFingerprints creates an empty fingerprint cache.
func NewFingerprints() *Fingerprints {
	return &Fingerprints{cache: make(map[Component]string)}
}

// Of returns the fingerprint of c.
func (f *Fingerprints) Of(c Component) string {
	if fp, ok := f.cache[c]; ok {
		return fp
	}

	// A placeholder ends recursion through cyclic graphs.
	f.cache[c] = "@" + c.Type()

	var sb strings.Builder
	sb.WriteString(c.Type())
	sb.WriteByte('{')
	sb.WriteString(canonicalConfig(c.Config()))
	sb.WriteByte('}')
	writeTensors(&sb, c)
	if d, ok := c.(OutputDeclarer); ok && d.DeclaredOutput() != nil {
		sb.WriteString("->")
		sb.WriteString(d.DeclaredOutput().String())
	}
	sb.WriteByte('(')
	for i, child := range c.Children() {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(f.Of(child.Component))
	}
	sb.WriteByte(')')

	fp := sb.String()
	f.cache[c] = fp
	return fp
}

// Fingerprint is a convenience for a single uncached lookup.
func Fingerprint(c Component) string {
	return NewFingerprints().Of(c)
}

// writeTensors appends "[params;buffers]" when c holds any tensors.
func writeTensors(sb *strings.Builder, c Component) {
	params, bufs := c.Parameters(), c.Buffers()
	if len(params) == 0 && len(bufs) == 0 {
		return
	}
	sb.WriteByte('[')
	for i, p := range params {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(sb, "%s:%s:%d", p.Name, p.Shape, p.ElemBytes)
		if !p.Trainable {
			sb.WriteString(":frozen")
		}
	}
	sb.WriteByte(';')
	for i, b := range bufs {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(sb, "%s:%s:%d", b.Name, b.Shape, b.ElemBytes)
	}
	sb.WriteByte(']')
}

// canonicalConfig renders a configuration value as JSON. cty sorts object
// attributes, so equal values always render identically.
func canonicalConfig(v cty.Value) string {
	if v.IsNull() {
		return "null"
	}
	if !v.IsWhollyKnown() {
		return v.GoString()
	}
	b, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return v.GoString()
	}
	return string(b)
}
