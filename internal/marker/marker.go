// Package marker builds and recognizes the invisible fingerprint that ties a posted
// comment to the context that produced it.
package marker

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultTag is the tool name written at the start of every fingerprint.
	DefaultTag = "werkschrift"

	openDelimiter  = "<!--"
	closeDelimiter = "-->"
	separator      = ", "
)

var (
	// ErrEmptyContext is returned when a context has no string-valued attributes.
	ErrEmptyContext = errors.New("context has no string attributes")
	// ErrUnsafeValue is returned when a tag, name or value would terminate the HTML comment early.
	ErrUnsafeValue = errors.New("context attribute contains comment delimiter")
)

// Attribute is a single named value of a Context.
type Attribute struct {
	// Name is the attribute name, e.g. "workflow".
	Name string
	// Value is the attribute value. Only string values take part in the fingerprint.
	Value any
}

// Context is an ordered set of attributes identifying one logical comment.
type Context []Attribute

// Strings builds a Context from alternating name/value pairs.
func Strings(pairs ...string) Context {
	out := make(Context, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, Attribute{Name: pairs[i], Value: pairs[i+1]})
	}
	return out
}

// Codec encodes contexts into fingerprints under a fixed tag.
type Codec struct {
	tag string
}

// New returns a Codec using tag, or DefaultTag when tag is blank.
func New(tag string) Codec {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		tag = DefaultTag
	}
	return Codec{tag: tag}
}

// Tag returns the tool name used by the codec.
func (c Codec) Tag() string {
	if c.tag == "" {
		return DefaultTag
	}
	return c.tag
}

// Encode renders ctx as `<!-- tag name='value', ... -->`.
// Attributes keep their order; non-string values are skipped.
func (c Codec) Encode(ctx Context) (string, error) {
	if strings.Contains(c.Tag(), closeDelimiter) {
		return "", fmt.Errorf("tag %q: %w", c.Tag(), ErrUnsafeValue)
	}
	parts := make([]string, 0, len(ctx))
	for _, attr := range ctx {
		value, ok := attr.Value.(string)
		if !ok {
			continue
		}
		if strings.Contains(attr.Name, closeDelimiter) || strings.Contains(value, closeDelimiter) {
			return "", fmt.Errorf("attribute %q: %w", attr.Name, ErrUnsafeValue)
		}
		parts = append(parts, fmt.Sprintf("%s='%s'", attr.Name, value))
	}
	if len(parts) == 0 {
		return "", ErrEmptyContext
	}
	return fmt.Sprintf("%s %s %s %s", openDelimiter, c.Tag(), strings.Join(parts, separator), closeDelimiter), nil
}

// Skipped returns the names of attributes Encode ignores because their value is not a string.
func (c Codec) Skipped(ctx Context) []string {
	var names []string
	for _, attr := range ctx {
		if _, ok := attr.Value.(string); !ok {
			names = append(names, attr.Name)
		}
	}
	return names
}

// Matches reports whether body carries fingerprint.
func Matches(body, fingerprint string) bool {
	return strings.Contains(body, fingerprint)
}
