// Package cli implements the rustache command line tool.
//
// Configuration is resolved, in decreasing priority, from command line
// flags, RUSTACHE_<SECTION>_<OPTION> environment variables and a
// .rustache.yml file in the working directory (or the file named by
// --config).
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lovasoa/rustache"
	"github.com/lovasoa/rustache/internal/config"
	"github.com/lovasoa/rustache/loader"
	"github.com/lovasoa/rustache/logging"
)

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"partials":   "partials.dir",
	"ext":        "partials.extension",
	"max-depth":  "render.max_depth",
	"delimiters": "render.delimiters",
	"escape":     "render.escape",
	"log-level":  "log.level",
	"log-format": "log.format",
	"host":       "serve.host",
	"port":       "serve.port",
}

// app carries the state shared by every command of one invocation.
type app struct {
	cfgFile string
	cfg     *config.Config
	logger  logging.Logger
}

// NewRootCommand builds the command tree. Each call returns independent
// commands, which keeps tests isolated from one another.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "rustache",
		Short: "Render logic-less Mustache templates",
		Long: `rustache renders Mustache templates with YAML or JSON data.

Partials are looked up next to the template and in the --partials
directory, as NAME plus the configured extension (.mustache by default).

Quick Start:
  rustache render page.mustache --data page.yml
  rustache check templates/*.mustache
  rustache tokens page.mustache
  rustache serve page.mustache --data page.yml`,
		Version:           rustache.Version,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is .rustache.yml)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (text, json)")
	flags.StringP("partials", "p", "", "directory searched for partials")
	flags.String("ext", "", "partial file extension (default .mustache)")
	flags.Int("max-depth", 0, "section and partial nesting limit, negative disables (default 500)")
	flags.String("delimiters", "", `initial delimiters, e.g. "<% %>"`)
	flags.String("escape", "", "variable escaping (html, none)")

	root.AddCommand(
		newRenderCommand(a),
		newCheckCommand(a),
		newTokensCommand(a),
		newServeCommand(a),
	)
	return root
}

// Execute runs the root command against os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

func (a *app) load(cmd *cobra.Command, _ []string) error {
	v, err := config.New(a.cfgFile)
	if err != nil {
		return err
	}
	if err := bindFlags(v, cmd.Flags()); err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = cfg.Logger(cmd.ErrOrStderr())
	if used := v.ConfigFileUsed(); used != "" {
		a.logger.Debug(cmd.Context(), "using config file", "path", used)
	}
	return nil
}

// bindFlags binds every known flag present in fs. Only flags set on the
// command line take precedence over other sources.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || err != nil {
			return
		}
		if bindErr := v.BindPFlag(key, f); bindErr != nil {
			err = fmt.Errorf("binding --%s: %w", f.Name, bindErr)
		}
	})
	return err
}

// environment builds a rendering environment whose partials are searched
// in the directory of templatePath first and then in partials.dir.
func (a *app) environment(templatePath string) (*rustache.Environment, []*loader.Dir, error) {
	env, err := a.cfg.Environment(a.logger)
	if err != nil {
		return nil, nil, err
	}

	var roots []string
	if templatePath != "" && templatePath != "-" {
		roots = append(roots, filepath.Dir(templatePath))
	}
	if a.cfg.Partials.Dir != "" {
		roots = append(roots, a.cfg.Partials.Dir)
	}

	var dirs []*loader.Dir
	var funcs []loader.Func
	seen := make(map[string]bool)
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, nil, err
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		d, err := loader.NewDir(abs, a.cfg.Partials.Extension)
		if err != nil {
			return nil, nil, fmt.Errorf("partials: %w", err)
		}
		dirs = append(dirs, d)
		funcs = append(funcs, d.Func())
	}
	env.SetLoader(loader.Chain(funcs...))
	return env, dirs, nil
}

// readInput reads path, or standard input when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading standard input: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
