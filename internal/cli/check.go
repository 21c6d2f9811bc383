package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lovasoa/rustache"
	"github.com/lovasoa/rustache/parser"
)

func newCheckCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check TEMPLATE...",
		Short: "Check templates for syntax errors",
		Long: `Compile templates without rendering them and report every error with
its line and column.

Partials referenced by a template that cannot be found are reported as
warnings, since a missing partial renders as empty text.

Examples:
  rustache check page.mustache
  rustache check templates/*.mustache --partials templates/partials`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.runCheck,
	}
}

func (a *app) runCheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range args {
		if err := a.checkFile(out, path); err != nil {
			failed++
			printCheckError(cmd.ErrOrStderr(), path, err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d templates failed", failed, len(args))
	}
	return nil
}

func (a *app) checkFile(out io.Writer, path string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	env, _, err := a.environment(path)
	if err != nil {
		return err
	}
	tmpl, err := env.TemplateFromNamedString(path, string(source))
	if err != nil {
		return err
	}

	for _, name := range partialNames(tmpl.Nodes()) {
		if _, err := env.GetTemplate(name); errors.Is(err, rustache.ErrNotFound) {
			fmt.Fprintf(out, "%s: warning: partial %q not found\n", path, name)
		}
	}
	fmt.Fprintf(out, "%s: ok\n", path)
	return nil
}

func printCheckError(w io.Writer, path string, err error) {
	var rerr *rustache.Error
	if errors.As(err, &rerr) && rerr.Line > 0 {
		msg := rerr.Kind.String()
		if rerr.Name != "" {
			msg = fmt.Sprintf("%s %q", msg, rerr.Name)
		}
		if rerr.Message != "" {
			msg += ": " + rerr.Message
		}
		fmt.Fprintf(w, "%s:%d:%d: %s\n", path, rerr.Line, rerr.Col, msg)
		return
	}
	fmt.Fprintf(w, "%s: %v\n", path, err)
}

// partialNames lists the partials referenced anywhere in nodes, in order
// of first appearance.
func partialNames(nodes []parser.Node) []string {
	var names []string
	seen := make(map[string]bool)
	var walk func([]parser.Node)
	walk = func(nodes []parser.Node) {
		for _, n := range nodes {
			switch n := n.(type) {
			case *parser.Partial:
				if !seen[n.Name] {
					seen[n.Name] = true
					names = append(names, n.Name)
				}
			case *parser.Section:
				walk(n.Body)
			}
		}
	}
	walk(nodes)
	return names
}
