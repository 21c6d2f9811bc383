package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lovasoa/rustache"
	"github.com/lovasoa/rustache/value"
)

type renderOptions struct {
	data   string
	output string
}

func newRenderCommand(a *app) *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render TEMPLATE",
		Short: "Render a template with YAML or JSON data",
		Long: `Render a template and write the result to standard output or a file.

TEMPLATE may be "-" to read the template from standard input. Data is a
YAML or JSON document whose top level is usually a mapping; without
--data the template renders against an empty mapping.

Examples:
  rustache render page.mustache --data page.yml
  rustache render page.mustache --data - < page.json
  rustache render page.mustache -d page.yml -o page.html
  echo '{{greeting}}' | rustache render - -d vars.yml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRender(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.data, "data", "d", "", `data file (YAML or JSON), "-" for standard input`)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write output to this file instead of standard output")
	return cmd
}

func (a *app) runRender(cmd *cobra.Command, templatePath string, opts *renderOptions) error {
	if templatePath == "-" && opts.data == "-" {
		return errors.New("template and data cannot both be read from standard input")
	}

	source, err := readInput(cmd, templatePath)
	if err != nil {
		return err
	}
	data := value.FromMap(value.NewMap())
	if opts.data != "" {
		raw, err := readInput(cmd, opts.data)
		if err != nil {
			return err
		}
		if data, err = value.FromYAML(raw); err != nil {
			return fmt.Errorf("%s: %w", opts.data, err)
		}
	}

	env, _, err := a.environment(templatePath)
	if err != nil {
		return err
	}
	tmpl, err := env.TemplateFromNamedString(templateName(templatePath), string(source))
	if err != nil {
		return err
	}

	if opts.output == "" {
		if err := renderTo(cmd.OutOrStdout(), tmpl, data); err != nil {
			return err
		}
	} else if err := renderToFile(opts.output, tmpl, data); err != nil {
		return err
	}
	a.logger.Debug(cmd.Context(), "rendered", "template", tmpl.Name(), "output", opts.output)
	return nil
}

// createOutput opens the -o destination.
var createOutput = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

func renderToFile(path string, tmpl *rustache.Template, data value.Value) error {
	f, err := createOutput(path)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	if err := renderTo(f, tmpl, data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}
	return nil
}

func renderTo(w io.Writer, tmpl *rustache.Template, data value.Value) error {
	bw := bufio.NewWriter(w)
	if err := tmpl.RenderValueTo(bw, data); err != nil {
		_ = bw.Flush()
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func templateName(path string) string {
	if path == "-" {
		return "<stdin>"
	}
	return filepath.Base(path)
}
