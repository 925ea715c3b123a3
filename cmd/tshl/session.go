package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"

	highlight "github.com/noclaps/go-tree-sitter-langtree"
	"github.com/noclaps/go-tree-sitter-langtree/internal/queries"
	"github.com/noclaps/go-tree-sitter-langtree/internal/textedit"
	"github.com/noclaps/go-tree-sitter-langtree/languagetree"
	"github.com/noclaps/go-tree-sitter-langtree/treesitter"
	"github.com/noclaps/go-tree-sitter-langtree/types"
)

// session highlights one file across its changes.
type session struct {
	path   string
	cfg    Config
	theme  highlight.Theme
	logger *slog.Logger

	engine      *treesitter.Engine
	buf         *types.Buffer
	tree        *languagetree.LanguageTree
	registry    *highlight.Registry[string]
	host        *highlight.LineHost
	highlighter *highlight.Highlighter
}

func newSession(ctx context.Context, path string, source []byte, cfg Config, theme highlight.Theme, logger *slog.Logger) (*session, error) {
	lang, ok := queries.ByExtension[filepath.Ext(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownLanguage, path)
	}

	eng := treesitter.New(queries.Go()...)
	buf := types.NewBuffer(slices.Clone(source))
	tree, err := languagetree.New(eng, buf, lang, languagetree.WithLogger(logger))
	if err != nil {
		eng.Close()
		return nil, err
	}

	registry := highlight.NewRegistry[string](eng,
		highlight.WithLogger(logger),
		highlight.WithQueryExpiration(cfg.QueryExpiration),
	)
	host := &highlight.LineHost{}
	h, err := registry.Attach(ctx, path, tree, host)
	if err != nil {
		tree.Destroy()
		eng.Close()
		return nil, err
	}

	return &session{
		path:        path,
		cfg:         cfg,
		theme:       theme,
		logger:      logger,
		engine:      eng,
		buf:         buf,
		tree:        tree,
		registry:    registry,
		host:        host,
		highlighter: h,
	}, nil
}

func (s *session) Close() {
	s.registry.Close()
	s.tree.Destroy()
	s.engine.Close()
}

func (s *session) rows() uint {
	return uint(bytes.Count(s.buf.Bytes(), []byte("\n"))) + 1
}

// highlight runs a redraw epoch over the given row spans.
func (s *session) highlight(ctx context.Context, spans []highlight.RowSpan) error {
	s.host.Reset()
	if err := s.highlighter.OnRedrawEpochStart(ctx); err != nil {
		return err
	}
	for _, span := range spans {
		for row := span.Start; row <= span.End; row++ {
			s.highlighter.OnLine(row)
		}
	}
	return nil
}

// all returns every row of the file.
func (s *session) all() []highlight.RowSpan {
	return []highlight.RowSpan{{Start: 0, End: s.rows() - 1}}
}

// update replaces the content of the file and returns the rows to render again.
func (s *session) update(ctx context.Context, source []byte) ([]highlight.RowSpan, error) {
	edits := textedit.Edits(s.buf.Bytes(), source)
	if len(edits) == 0 {
		return nil, nil
	}

	for _, edit := range edits {
		s.buf.Replace(edit.StartByte, edit.OldEndByte, source[edit.StartByte:edit.NewEndByte])
		s.tree.NotifyBytes(edit)
		// inserted and deleted rows shift everything below them
		if edit.OldEndPoint.Row != edit.NewEndPoint.Row {
			s.host.Redraw(edit.StartPoint.Row, s.rows()-1)
		} else {
			s.host.Redraw(edit.StartPoint.Row, edit.NewEndPoint.Row)
		}
	}
	s.logger.Debug("source changed", slog.String("path", s.path), slog.Int("edits", len(edits)))

	// the parse reports the changed rows to the host
	if err := s.highlighter.OnRedrawEpochStart(ctx); err != nil {
		return nil, err
	}

	last := s.rows() - 1
	var spans []highlight.RowSpan
	for _, span := range s.host.TakeRedraws() {
		if span.Start > last {
			continue
		}
		span.End = min(span.End, last)
		spans = append(spans, span)
	}
	return spans, s.highlight(ctx, spans)
}

// render writes the rows of spans, each preceded by a header with its one-based
// line numbers if headers is set.
func (s *session) render(w io.Writer, spans []highlight.RowSpan, headers bool) error {
	source := s.buf.Bytes()
	annotations := s.host.Annotations()

	for _, span := range spans {
		text, clipped := sliceRows(source, annotations, span)
		if headers {
			if _, err := fmt.Fprintf(w, "@@ %d-%d @@\n", span.Start+1, span.End+1); err != nil {
				return err
			}
		}

		var err error
		switch s.cfg.Format {
		case FormatHTML:
			err = highlight.RenderHTML(w, text, clipped, highlight.ClassAttributes(s.cfg.ClassPrefix))
		default:
			err = highlight.RenderANSI(w, text, clipped, s.theme)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// sliceRows returns the text of the rows of span and the annotations overlapping it,
// with byte offsets relative to the text.
func sliceRows(source []byte, annotations []highlight.Annotation, span highlight.RowSpan) ([]byte, []highlight.Annotation) {
	start := rowOffset(source, span.Start)
	end := rowOffset(source, span.End+1)

	var clipped []highlight.Annotation
	for _, a := range annotations {
		if a.Range.EndByte <= start || a.Range.StartByte >= end {
			continue
		}
		a.Range.StartByte = max(a.Range.StartByte, start) - start
		a.Range.EndByte = min(a.Range.EndByte, end) - start
		clipped = append(clipped, a)
	}
	return source[start:end], clipped
}

// rowOffset returns the byte offset row starts at, or the length of source past the
// last row.
func rowOffset(source []byte, row uint) uint {
	offset := 0
	for ; row > 0; row-- {
		i := bytes.IndexByte(source[offset:], '\n')
		if i == -1 {
			return uint(len(source))
		}
		offset += i + 1
	}
	return uint(offset)
}
