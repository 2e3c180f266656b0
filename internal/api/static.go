//
//
package api

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
)

// spaHandler serves a built single-page app, falling back to index.html for
// paths that are not files so client-side routes resolve.
type spaHandler struct {
	dir   string
	files http.Handler
}

func newSPAHandler(dir string) http.Handler {
	return &spaHandler{dir: dir, files: http.FileServer(http.Dir(dir))}
}

func (h *spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := filepath.Join(h.dir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		h.files.ServeHTTP(w, r)
		return
	}

	index := filepath.Join(h.dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		handleNotFound(w, r)
		return
	}
	http.ServeFile(w, r, index)
}
