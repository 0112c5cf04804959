// Package markup is the small HTML writer the console's templ components are
// built on. Text and attribute values are always escaped with templ's
// escaper; Raw is reserved for trusted, already-sanitized markup.
package markup

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// boolAttrs are written bare when their value is non-empty and omitted
// otherwise.
var boolAttrs = map[string]bool{
	"checked":  true,
	"disabled": true,
	"hidden":   true,
	"multiple": true,
	"required": true,
	"selected": true,
	"open":     true,
	"defer":    true,
}

// W writes HTML to an io.Writer, remembering the first write error.
type W struct {
	w   io.Writer
	err error
}

// New wraps w.
func New(w io.Writer) *W { return &W{w: w} }

// Err returns the first write error, if any.
func (h *W) Err() error { return h.err }

// Raw writes s unescaped.
func (h *W) Raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

// Text writes s escaped.
func (h *W) Text(s string) { h.Raw(templ.EscapeString(s)) }

// Textf formats and writes escaped text.
func (h *W) Textf(format string, args ...any) { h.Text(fmt.Sprintf(format, args...)) }

// Open writes a start tag. attrs are name/value pairs.
func (h *W) Open(tag string, attrs ...string) {
	h.Raw("<" + tag)
	h.attrs(attrs)
	h.Raw(">")
}

// Void writes a tag that has no end tag (input, meta, link, br).
func (h *W) Void(tag string, attrs ...string) { h.Open(tag, attrs...) }

// Close writes an end tag.
func (h *W) Close(tag string) { h.Raw("</" + tag + ">") }

// Elem writes a complete element whose only child is escaped text.
func (h *W) Elem(tag, text string, attrs ...string) {
	h.Open(tag, attrs...)
	h.Text(text)
	h.Close(tag)
}

// Render renders a nested component into the same writer.
func (h *W) Render(ctx context.Context, c templ.Component) {
	if h.err != nil || c == nil {
		return
	}
	h.err = c.Render(ctx, h.w)
}

func (h *W) attrs(attrs []string) {
	for i := 0; i+1 < len(attrs); i += 2 {
		name, value := attrs[i], attrs[i+1]
		if boolAttrs[name] {
			if value != "" {
				h.Raw(" " + name)
			}
			continue
		}
		h.Raw(" " + name + `="` + templ.EscapeString(value) + `"`)
	}
}

// Component adapts a writer function into a templ.Component.
func Component(fn func(ctx context.Context, h *W)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := New(w)
		fn(ctx, h)
		return h.Err()
	})
}

// If returns v when cond holds, else "". Used for boolean attributes and
// optional classes.
func If(cond bool, v string) string {
	if cond {
		return v
	}
	return ""
}
