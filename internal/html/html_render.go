// Package html writes highlighted source as HTML.
package html

import (
	"html"
	"io"
	"strings"
	"unicode/utf8"
)

var (
	spanStart = []byte("<span")
	spanEnd   = []byte("</span>")
)

// Writer writes escaped text and spans to an io.Writer. The first error is kept and
// returned by every later call.
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter creates a Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) write(b []byte) error {
	if w.err != nil {
		return w.err
	}
	_, w.err = w.w.Write(b)
	return w.err
}

// Err returns the first error.
func (w *Writer) Err() error {
	return w.err
}

// Text writes source escaped for HTML. Carriage returns are dropped and invalid
// UTF-8 is written as U+FFFD.
func (w *Writer) Text(source []byte) error {
	text := strings.ReplaceAll(string(source), "\r", "")
	if text == "" {
		return w.err
	}
	text = strings.ToValidUTF8(text, string(utf8.RuneError))
	return w.write([]byte(html.EscapeString(text)))
}

// StartSpan opens a span with the given attributes, e.g. class="hl-keyword".
func (w *Writer) StartSpan(attributes []byte) error {
	if err := w.write(spanStart); err != nil {
		return err
	}

	if len(attributes) > 0 {
		if err := w.write([]byte(" ")); err != nil {
			return err
		}
		if err := w.write(attributes); err != nil {
			return err
		}
	}

	return w.write([]byte(">"))
}

// EndSpan closes a span.
func (w *Writer) EndSpan() error {
	return w.write(spanEnd)
}
