package cli

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/matzehuels/gitscrape/pkg/output"
)

const serveShutdownTimeout = 5 * time.Second

// serveCommand creates the serve command, a read-only browser for saved
// scrape results.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr string
		dir  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve saved scrape results over HTTP",
		Long: `Start a local HTTP server that lists saved scrape results, exposes the
raw JSON, and renders each profile README as HTML.

Routes:
  GET /                      list of saved results
  GET /results/{file}        raw result JSON
  GET /results/{file}/readme profile README rendered as HTML`,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := c.outputWriter(dir)
			if err != nil {
				return err
			}
			return c.runServe(cmd.Context(), addr, w)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:8742", "listen address")
	cmd.Flags().StringVarP(&dir, "output-dir", "o", "", "directory with saved results")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, w *output.Writer) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: c.serveRouter(w),
		BaseContext: func(net.Listener) context.Context {
			return withLogger(context.Background(), c.Logger)
		},
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	printInfo("Serving saved results on http://%s", addr)
	printDetail("Directory: %s", w.Dir())

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), serveShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// serveRouter builds the HTTP routes over the output directory.
func (c *CLI) serveRouter(w *output.Writer) http.Handler {
	markdown := goldmark.New(goldmark.WithExtensions(extension.GFM))

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(c.requestLogger)

	r.Get("/", func(rw http.ResponseWriter, req *http.Request) {
		files, err := w.List()
		if err != nil {
			http.Error(rw, err.Error(), http.StatusInternalServerError)
			return
		}

		rw.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(rw, "<!doctype html><title>gitscrape results</title><h1>Saved results</h1><ul>")
		for _, name := range files {
			escaped := html.EscapeString(name)
			fmt.Fprintf(rw, `<li><a href="/results/%s">%s</a> (<a href="/results/%s/readme">readme</a>)</li>`,
				escaped, escaped, escaped)
		}
		fmt.Fprint(rw, "</ul>")
	})

	r.Get("/results/{file}", func(rw http.ResponseWriter, req *http.Request) {
		path, ok := resultPath(w, chi.URLParam(req, "file"))
		if !ok {
			http.NotFound(rw, req)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		http.ServeFile(rw, req, path)
	})

	r.Get("/results/{file}/readme", func(rw http.ResponseWriter, req *http.Request) {
		path, ok := resultPath(w, chi.URLParam(req, "file"))
		if !ok {
			http.NotFound(rw, req)
			return
		}
		result, err := w.Load(path)
		if err != nil {
			http.NotFound(rw, req)
			return
		}
		if result.Profile.ProfileReadme == nil {
			http.Error(rw, "no profile readme in this result", http.StatusNotFound)
			return
		}

		rw.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := markdown.Convert([]byte(*result.Profile.ProfileReadme), rw); err != nil {
			loggerFromContext(req.Context()).Error("failed to render readme", "file", path, "err", err)
		}
	})

	return r
}

// resultPath resolves a result filename inside the output directory,
// rejecting anything that could escape it.
func resultPath(w *output.Writer, name string) (string, bool) {
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "\\") || strings.Contains(name, "..") {
		return "", false
	}
	return filepath.Join(w.Dir(), name), true
}

// requestLogger logs each request with method, path, and duration.
func (c *CLI) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(rw, req.ProtoMajor)
		next.ServeHTTP(ww, req.WithContext(withLogger(req.Context(), c.Logger)))
		c.Logger.Debug("http request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Millisecond),
		)
	})
}
