package cli

import (
	"net"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lovasoa/rustache/internal/preview"
	"github.com/lovasoa/rustache/loader"
)

// debounce groups the file events of one editor save.
const debounce = 100 * time.Millisecond

type serveOptions struct {
	data    string
	origins []string
}

func newServeCommand(a *app) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:     "serve TEMPLATE",
		Aliases: []string{"s"},
		Short:   "Preview a rendered template in the browser",
		Long: `Serve the rendered template over HTTP. The page is rendered again on
every request, and open browsers reload automatically when the template,
the data file or a partial changes.

Examples:
  rustache serve page.mustache --data page.yml
  rustache serve page.mustache -d page.yml --port 3000
  RUSTACHE_SERVE_HOST=0.0.0.0 rustache serve page.mustache`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.data, "data", "d", "", "data file (YAML or JSON)")
	cmd.Flags().String("host", "", "host to bind to (default localhost)")
	cmd.Flags().Int("port", 0, "port to serve on (default 8080)")
	cmd.Flags().StringSliceVar(&opts.origins, "allow-origin", nil, "extra origin host patterns allowed to open the reload socket")
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, templatePath string, opts *serveOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env, dirs, err := a.environment(templatePath)
	if err != nil {
		return err
	}
	srv := preview.New(env, preview.Options{
		TemplatePath:   templatePath,
		DataPath:       opts.data,
		AllowedOrigins: opts.origins,
	}, a.logger)

	files, err := srv.WatchFiles(ctx, debounce, templatePath, opts.data)
	if err != nil {
		return err
	}
	defer files.Close()

	for _, d := range dirs {
		w, err := loader.Watch(ctx, d, debounce, a.logger)
		if err != nil {
			return err
		}
		defer w.Close()
		w.OnChange(func([]string) { srv.Reload() })
	}

	addr := net.JoinHostPort(a.cfg.Serve.Host, strconv.Itoa(a.cfg.Serve.Port))
	return srv.ListenAndServe(ctx, addr)
}
