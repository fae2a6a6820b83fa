package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/spicery/nutmeg-highlighter/pkg/highlight"
	"github.com/spicery/nutmeg-highlighter/pkg/syntax"
)

func newListCmd(a *app) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the available syntax definitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := a.catalog(cmd.ErrOrStderr())
			defer c.Close()

			out := cmd.OutOrStdout()
			for _, name := range c.Names() {
				h, _ := c.ByName(name)
				fmt.Fprintf(out, "%-12s %s\n", name, strings.Join(h.Extensions(), " "))
				if !verbose {
					continue
				}
				for _, rs := range h.RuleSets() {
					label := rs.Name()
					if rs.IsDefault() {
						label = "(default)"
					}
					fmt.Fprintf(out, "  %-14s spans=%d keywords=%d", label, len(rs.Spans()), rs.Keywords().Len())
					if b := rs.Binding(); b.Kind == highlight.BindDelegated && b.Target != nil {
						fmt.Fprintf(out, " -> %s", b.Target.Name())
					}
					fmt.Fprintln(out)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show rule sets")
	return cmd
}

// errCheckFailed reports that check found errors; details are already printed.
var errCheckFailed = errors.New("syntax check failed")

func newCheckCmd(a *app) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "check [dir...]",
		Short: "Validate syntax definition directories",
		Long: `Load, build and resolve every definition in the given directories (or the
configured syntax directories) together with the built-in definitions,
and print every problem found. Warnings fail the check with --strict.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs := args
			if len(dirs) == 0 {
				dirs = a.cfg.SyntaxDirs
			}
			out := cmd.OutOrStdout()
			failed := false

			files, err := syntax.Collect(a.loader, dirs)
			if err != nil {
				failed = true
				for _, line := range errorLines(err) {
					fmt.Fprintf(out, "error: %s\n", line)
				}
			}
			hs, diags, err := syntax.Build(files...)
			if err != nil {
				failed = true
				for _, line := range errorLines(err) {
					fmt.Fprintf(out, "error: %s\n", line)
				}
			}

			c := highlight.NewCatalog()
			defer c.Close()
			diags = append(diags, c.Install(hs...)...)
			for _, d := range diags {
				fmt.Fprintln(out, d.String())
			}
			if diags.HasErrors() || (strict && len(diags) > 0) {
				failed = true
			}

			if failed {
				return errCheckFailed
			}
			fmt.Fprintf(out, "ok: %d definitions\n", len(hs))
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")
	return cmd
}

// errorLines splits a joined error into one message per line.
func errorLines(err error) []string {
	if err == nil {
		return nil
	}
	return strings.Split(err.Error(), "\n")
}

func newMakeSyntaxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "make-syntax [name]",
		Short: "Print built-in syntax definitions as YAML",
		Long: `Print a built-in definition as YAML, as a starting point for a custom
definition. Without a name every built-in definition is printed as a
multi-document stream.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var files []*syntax.File
			if len(args) == 1 {
				f, ok := syntax.DefaultFile(args[0])
				if !ok {
					return fmt.Errorf("no built-in syntax %q", args[0])
				}
				files = append(files, f)
			} else {
				all, err := syntax.DefaultFiles()
				if err != nil {
					return err
				}
				files = all
			}

			out := cmd.OutOrStdout()
			for i, f := range files {
				data, err := syntax.Marshal(f)
				if err != nil {
					return err
				}
				if i > 0 {
					fmt.Fprintln(out, "---")
				}
				fmt.Fprint(out, string(data))
			}
			return nil
		},
	}
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := yaml.Marshal(a.cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config to YAML: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
