// Package main is the nutmeg-highlighter command line tool.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spicery/nutmeg-highlighter/internal/config"
	"github.com/spicery/nutmeg-highlighter/internal/log"
	"github.com/spicery/nutmeg-highlighter/pkg/highlight"
	"github.com/spicery/nutmeg-highlighter/pkg/syntax"
)

// Build information injected via ldflags at build time.
var version = "dev"

// app carries the state shared by every subcommand.
type app struct {
	v         *viper.Viper
	cfgFile   string
	debugFlag bool
	cfg       config.Config
	loader    *syntax.Loader
	closeLog  func()
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), loader: syntax.NewLoader()}
	defaults := config.Defaults()

	root := &cobra.Command{
		Use:   "nutmeg-highlighter",
		Short: "Syntax highlighting driven by YAML definition files",
		Long: `nutmeg-highlighter highlights source text using declarative syntax
definitions: keywords, delimiters, nested spans, numeric literals and
next/previous token markers.

Built-in definitions cover C, C++, Go, HTML, JavaScript and Nutmeg. Definitions
found in the configured syntax directories replace built-ins of the same
name.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.closeLog != nil {
				a.closeLog()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "",
		"config file (default: ./.nutmeg-highlighter.yaml or ~/.config/nutmeg-highlighter/config.yaml)")
	flags.BoolVar(&a.debugFlag, "debug", false, "write debug logs (also NUTMEG_DEBUG=1)")
	flags.StringSlice("syntax-dir", nil, "directory of syntax definitions (repeatable)")
	flags.String("color", defaults.Color, "color output: auto, always or never")
	flags.Int("tab-width", defaults.TabWidth, "tab stop width for terminal output")

	_ = a.v.BindPFlag("syntax_dirs", flags.Lookup("syntax-dir"))
	_ = a.v.BindPFlag("color", flags.Lookup("color"))
	_ = a.v.BindPFlag("tab_width", flags.Lookup("tab-width"))

	root.AddCommand(
		newTokensCmd(a),
		newCatCmd(a),
		newListCmd(a),
		newCheckCmd(a),
		newMakeSyntaxCmd(),
		newWatchCmd(a),
		newConfigCmd(a),
	)
	return root
}

// init loads configuration and starts logging when requested.
func (a *app) init() error {
	cfg, _, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if a.debugFlag || cfg.Debug || log.DebugFromEnv() {
		cleanup, err := log.Init(cfg.LogFile)
		if err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		a.closeLog = cleanup
		log.Info(log.CatCLI, "starting", "version", version, "syntax_dirs", cfg.SyntaxDirs)
	}
	return nil
}

// highlighters builds the built-in and configured definitions. Files that
// fail to load or build are reported on errOut and left out.
func (a *app) highlighters(errOut io.Writer) []*highlight.Highlighter {
	files, err := syntax.Collect(a.loader, a.cfg.SyntaxDirs)
	if err != nil {
		fmt.Fprintf(errOut, "Warning: %v\n", err)
	}
	hs, diags, err := syntax.Build(files...)
	if err != nil {
		fmt.Fprintf(errOut, "Warning: %v\n", err)
	}
	for _, d := range diags {
		log.Warn(log.CatSyntax, d.String())
	}
	for _, h := range hs {
		h.SetWholeRepaintThreshold(a.cfg.WholeRepaintThreshold)
	}
	return hs
}

// catalog returns a catalog holding the current definitions.
func (a *app) catalog(errOut io.Writer) *highlight.Catalog {
	c := highlight.NewCatalog()
	c.Install(a.highlighters(errOut)...)
	return c
}

// choose picks the highlighter named by syntaxName, else the one matching
// path, else the fallback.
func choose(c *highlight.Catalog, syntaxName, path string) (*highlight.Highlighter, error) {
	if syntaxName != "" {
		h, ok := c.ByName(syntaxName)
		if !ok {
			return nil, fmt.Errorf("unknown syntax %q", syntaxName)
		}
		return h, nil
	}
	if h, ok := c.ForFile(path); ok {
		return h, nil
	}
	return nil, fmt.Errorf("no syntax definition for '%s' and no %s definition", path, highlight.FallbackName)
}

// readInput reads the named file, or in when args is empty.
func readInput(in io.Reader, args []string) (string, string, error) {
	if len(args) == 0 {
		input, err := readFromStdin(in)
		if err != nil {
			return "", "", fmt.Errorf("reading from stdin: %w", err)
		}
		return input, "", nil
	}
	input, err := readFromFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("reading file '%s': %w", args[0], err)
	}
	return input, args[0], nil
}

// readFromStdin reads all input from stdin.
func readFromStdin(in io.Reader) (string, error) {
	bytes, err := io.ReadAll(in)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// readFromFile reads the contents of a file.
func readFromFile(filename string) (string, error) {
	bytes, err := os.ReadFile(filename)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
