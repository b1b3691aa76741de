package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// spaHandler serves the order page bundle. Paths that are not files get
// index.html so the client router can handle /payroll/{token} and the
// payment return pages.
type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}

	rel := filepath.Clean("/" + r.URL.Path)
	info, err := os.Stat(filepath.Join(h.staticPath, rel))
	switch {
	case err == nil && !info.IsDir():
		if strings.HasPrefix(rel, "/assets/") {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		}
		http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
	case err == nil || os.IsNotExist(err):
		index := filepath.Join(h.staticPath, h.indexPath)
		if _, err := os.Stat(index); err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFile(w, r, index)
	default:
		http.NotFound(w, r)
	}
}
