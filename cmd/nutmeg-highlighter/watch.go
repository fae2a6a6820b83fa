package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spicery/nutmeg-highlighter/internal/log"
	"github.com/spicery/nutmeg-highlighter/internal/watcher"
	"github.com/spicery/nutmeg-highlighter/pkg/document"
	"github.com/spicery/nutmeg-highlighter/pkg/highlight"
	"github.com/spicery/nutmeg-highlighter/pkg/render"
	"github.com/spicery/nutmeg-highlighter/pkg/syntax"
)

func newWatchCmd(a *app) *cobra.Command {
	var syntaxName string
	cmd := &cobra.Command{
		Use:   "watch file",
		Short: "Re-highlight a file whenever it or a syntax definition changes",
		Long: `Print the file with terminal colors, then keep watching it and the
configured syntax directories. File edits are re-highlighted incrementally
and only the repainted lines are printed, prefixed with their line number;
definition edits reload every definition and reprint the whole file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.watch(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], syntaxName)
		},
	}
	cmd.Flags().StringVarP(&syntaxName, "syntax", "s", "", "syntax definition name")
	return cmd
}

// session is the state of one watched file.
type session struct {
	a          *app
	out        io.Writer
	errOut     io.Writer
	path       string
	syntaxName string
	catalog    *highlight.Catalog
	h          *highlight.Highlighter
	buf        *document.Buffer
}

func (a *app) newSession(out, errOut io.Writer, path, syntaxName, text string) *session {
	s := &session{
		a:          a,
		out:        out,
		errOut:     errOut,
		path:       filepath.Clean(path),
		syntaxName: syntaxName,
		catalog:    highlight.NewCatalog(),
		buf:        document.New(text),
	}
	s.buf.OnRepaint(s.repaint)
	return s
}

func (a *app) watch(ctx context.Context, out, errOut io.Writer, path, syntaxName string) error {
	text, err := readFromFile(path)
	if err != nil {
		return fmt.Errorf("reading file '%s': %w", path, err)
	}
	s := a.newSession(out, errOut, path, syntaxName, text)
	defer s.catalog.Close()

	reloads := s.catalog.Subscribe(ctx)
	s.reload()

	var dirs []string
	for _, d := range a.cfg.SyntaxDirs {
		if info, err := os.Stat(d); err == nil && info.IsDir() {
			dirs = append(dirs, d)
		}
	}
	w, err := watcher.New(watcher.Config{
		Files:       []string{path},
		Dirs:        dirs,
		Filter:      syntax.IsDefinitionFile,
		DebounceDur: a.cfg.Debounce,
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()
	changes, err := w.Start()
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-reloads:
			if !ok {
				return nil
			}
			log.Info(log.CatCLI, "definitions reloaded", "count", len(ev.Payload.Names))
			s.rehighlight()
		case change := <-changes:
			s.handle(change)
		}
	}
}

// handle applies one batch of file system changes.
func (s *session) handle(change watcher.Change) {
	fileChanged, defsChanged := false, false
	for _, p := range change.Paths {
		if p == s.path {
			fileChanged = true
			continue
		}
		s.a.loader.Invalidate(p)
		defsChanged = true
	}
	if defsChanged {
		s.reload()
	}
	if fileChanged {
		text, err := readFromFile(s.path)
		if err != nil {
			// Editors may replace the file in several steps; the next
			// event carries the final content.
			log.ErrorErr(log.CatCLI, "reading watched file", err, "path", s.path)
			return
		}
		s.applyText(text)
	}
}

// reload rebuilds the definitions and installs them, which publishes a
// reload event.
func (s *session) reload() {
	s.catalog.Install(s.a.highlighters(s.errOut)...)
}

// rehighlight picks the highlighter again and scans the whole buffer.
func (s *session) rehighlight() {
	h, err := choose(s.catalog, s.syntaxName, s.path)
	if err != nil {
		fmt.Fprintf(s.errOut, "Error: %v\n", err)
		return
	}
	s.h = h
	fmt.Fprintf(s.out, "==> %s (%s)\n", s.path, h.Name())
	h.MarkAll(s.buf)
}

// applyText replaces the buffer text and rescans the changed lines.
func (s *session) applyText(text string) {
	s.buf.BeginUpdate()
	defer s.buf.EndUpdate()
	s.buf.SetText(text)
	if s.h == nil {
		return
	}
	changed := s.h.MarkDirty(s.buf, s.buf.TakeDirtyLines())
	log.Debug(log.CatCLI, "file changed", "path", s.path, "spanChanged", changed)
}

func (s *session) repaint(rs []highlight.Repaint) {
	if s.h == nil {
		return
	}
	opts := s.a.renderOptions(s.h)
	for _, r := range rs {
		if r.Kind == highlight.RepaintWholeArea {
			if err := render.ANSI(s.out, s.buf, opts); err != nil {
				log.ErrorErr(log.CatCLI, "rendering", err)
			}
			return
		}
		fmt.Fprintf(s.out, "%d: ", r.Line+1)
		if err := render.ANSI(s.out, lineView{buf: s.buf, n: r.Line}, opts); err != nil {
			log.ErrorErr(log.CatCLI, "rendering", err)
		}
	}
}

// lineView presents one buffer line as a render.Source.
type lineView struct {
	buf *document.Buffer
	n   int
}

func (v lineView) LineCount() int { return 1 }

func (v lineView) Line(int) string { return v.buf.Line(v.n) }

func (v lineView) Words(int) []highlight.TextWord { return v.buf.Words(v.n) }
