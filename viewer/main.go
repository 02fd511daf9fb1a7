// Command viewer serves a read-only web UI over the parquet turn archive
// plus a live relay between playing consoles and watching browsers.
package main

import (
	"flag"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"battleship-guru/viewer/web"
)

func main() {
	listen := flag.String("listen", "127.0.0.1:8714", "HTTP listen address")
	dataDirs := flag.String("data-dirs", "archive", "Comma-separated directories containing turn parquet archives")
	debug := flag.Bool("debug", false, "Debug logging")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "viewer",
	})
	if *debug {
		logger.SetLevel(log.DebugLevel)
	}

	roots := parseDataRoots(*dataDirs)
	if len(roots) == 0 {
		logger.Fatal("no data directories given")
	}
	logger.Info("archive roots", "dirs", strings.Join(roots, ","))

	srv := NewServer(roots, logger)
	defer srv.Close()

	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)

	static, err := fs.Sub(web.Static, "static")
	if err != nil {
		logger.Fatal("embedded ui missing", "err", err)
	}
	mux.Handle("/", spaHandler{fsys: static})

	httpSrv := &http.Server{
		Addr:              *listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("listening", "url", "http://"+*listen)
	logger.Fatal("server stopped", "err", httpSrv.ListenAndServe())
}

// spaHandler serves the embedded UI, falling back to index.html so a
// reload on a client-side route still works.
type spaHandler struct {
	fsys fs.FS
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	if p == "" {
		p = "index.html"
	}
	if f, err := h.fsys.Open(p); err == nil {
		_ = f.Close()
		http.ServeFileFS(w, r, h.fsys, p)
		return
	}
	http.ServeFileFS(w, r, h.fsys, "index.html")
}
