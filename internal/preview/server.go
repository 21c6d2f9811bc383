// Package preview serves a rendered template over HTTP and tells connected
// browsers to reload whenever the template, its data or a partial changes.
package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/lovasoa/rustache"
	"github.com/lovasoa/rustache/logging"
	"github.com/lovasoa/rustache/value"
)

// ReloadPath is the websocket endpoint browsers listen on.
const ReloadPath = "/_rustache/reload"

const reloadScript = `<script>(function(){` +
	`var ws=new WebSocket((location.protocol==="https:"?"wss://":"ws://")+location.host+"` + ReloadPath + `");` +
	`ws.onmessage=function(e){if(e.data==="reload"){location.reload();}};` +
	`})();</script>`

// Options describes what a Server renders.
type Options struct {
	// TemplatePath is read and compiled again for every request.
	TemplatePath string
	// DataPath is an optional YAML or JSON file holding the root data.
	DataPath string
	// AllowedOrigins lists extra origin host patterns accepted by the
	// websocket endpoint. The request host is always accepted.
	AllowedOrigins []string
}

// Server is a live preview HTTP server.
type Server struct {
	env    *rustache.Environment
	opts   Options
	logger logging.Logger

	clientsMu  sync.RWMutex
	clients    map[*websocket.Conn]*client
	register   chan *client
	unregister chan *websocket.Conn
	broadcast  chan []byte
	done       chan struct{}
	closeOnce  sync.Once
}

// New creates a Server rendering with env. Run must be started for reload
// notifications to be delivered.
func New(env *rustache.Environment, opts Options, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Server{
		env:        env,
		opts:       opts,
		logger:     logger.WithComponent("preview"),
		clients:    make(map[*websocket.Conn]*client),
		register:   make(chan *client),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan []byte, 16),
		done:       make(chan struct{}),
	}
}

// Handler returns the HTTP handler of the preview.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(ReloadPath, s.handleWebSocket)
	mux.HandleFunc("/", s.handlePage)
	return mux
}

// Reload asks every connected browser to reload the page.
func (s *Server) Reload() {
	select {
	case s.broadcast <- []byte("reload"):
	case <-s.done:
	default:
		// A reload is already queued.
	}
}

// Clients reports how many browsers are connected.
func (s *Server) Clients() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// ListenAndServe runs the preview on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the preview on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.Run(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "preview listening", "url", "http://"+ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	body, err := s.render()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err != nil {
		s.logger.Warn(r.Context(), err, "preview render failed")
		w.WriteHeader(http.StatusInternalServerError)
		body = []byte("<pre>" + html.EscapeString(err.Error()) + "</pre>")
	}
	_, _ = w.Write(injectScript(body))
}

func (s *Server) render() ([]byte, error) {
	source, err := os.ReadFile(s.opts.TemplatePath)
	if err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}
	data := value.FromMap(value.NewMap())
	if s.opts.DataPath != "" {
		raw, err := os.ReadFile(s.opts.DataPath)
		if err != nil {
			return nil, fmt.Errorf("reading data: %w", err)
		}
		if data, err = value.FromYAML(raw); err != nil {
			return nil, err
		}
	}

	tmpl, err := s.env.TemplateFromNamedString(filepath.Base(s.opts.TemplatePath), string(source))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := tmpl.RenderValueTo(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// injectScript places the reload script before </body>, or at the end
// when the output has no body element.
func injectScript(page []byte) []byte {
	i := bytes.LastIndex(bytes.ToLower(page), []byte("</body>"))
	if i < 0 {
		return append(page, reloadScript...)
	}
	out := make([]byte, 0, len(page)+len(reloadScript))
	out = append(out, page[:i]...)
	out = append(out, reloadScript...)
	return append(out, page[i:]...)
}

func (s *Server) originPatterns() []string {
	patterns := []string{"localhost:*", "127.0.0.1:*"}
	for _, o := range s.opts.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			patterns = append(patterns, o)
		}
	}
	return patterns
}
