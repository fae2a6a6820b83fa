package main

import (
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/spicery/nutmeg-highlighter/internal/log"
	"github.com/spicery/nutmeg-highlighter/pkg/document"
	"github.com/spicery/nutmeg-highlighter/pkg/highlight"
	"github.com/spicery/nutmeg-highlighter/pkg/render"
)

// highlightInput reads the input named by args, picks a highlighter and
// scans the whole text.
func (a *app) highlightInput(cmd *cobra.Command, args []string, syntaxName string) (*highlight.Highlighter, *document.Buffer, error) {
	input, path, err := readInput(cmd.InOrStdin(), args)
	if err != nil {
		return nil, nil, err
	}
	c := a.catalog(cmd.ErrOrStderr())
	defer c.Close()

	h, err := choose(c, syntaxName, path)
	if err != nil {
		return nil, nil, err
	}
	buf := document.New(input)
	h.MarkAll(buf)
	log.Debug(log.CatCLI, "highlighted input", "syntax", h.Name(), "lines", buf.LineCount())
	return h, buf, nil
}

func newTokensCmd(a *app) *cobra.Command {
	var syntaxName, outputFile string
	cmd := &cobra.Command{
		Use:   "tokens [file]",
		Short: "Print highlighted tokens as JSON lines",
		Long: `Highlight a file (or stdin) and print one JSON object per token:

  {"line":0,"span":[0,3],"type":"word","text":"int","style":{"color":"#0000ff","bold":true}}

The syntax is chosen by --syntax, else by file extension, else Default.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, buf, err := a.highlightInput(cmd, args, syntaxName)
			if err != nil {
				return err
			}

			var output io.Writer = cmd.OutOrStdout()
			var outputCloser io.Closer
			if outputFile != "" {
				file, err := os.Create(outputFile)
				if err != nil {
					return fmt.Errorf("creating output file '%s': %w", outputFile, err)
				}
				output = file
				outputCloser = file
			}

			if err := render.JSONLines(output, buf); err != nil {
				if outputCloser != nil {
					_ = outputCloser.Close()
				}
				return err
			}
			if outputCloser != nil {
				if err := outputCloser.Close(); err != nil {
					return fmt.Errorf("closing output file '%s': %w", outputFile, err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&syntaxName, "syntax", "s", "", "syntax definition name")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (defaults to stdout)")
	return cmd
}

func newCatCmd(a *app) *cobra.Command {
	var syntaxName string
	cmd := &cobra.Command{
		Use:   "cat [file]",
		Short: "Print a file with terminal colors",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, buf, err := a.highlightInput(cmd, args, syntaxName)
			if err != nil {
				return err
			}
			return render.ANSI(cmd.OutOrStdout(), buf, a.renderOptions(h))
		},
	}
	cmd.Flags().StringVarP(&syntaxName, "syntax", "s", "", "syntax definition name")
	return cmd
}

func (a *app) renderOptions(h *highlight.Highlighter) render.Options {
	return render.Options{
		TabWidth: a.cfg.TabWidth,
		Profile:  a.cfg.Profile(termenv.EnvColorProfile()),
		Base:     h.DefaultStyle(),
	}
}
