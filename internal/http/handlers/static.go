package handlers

import (
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/jmylchreest/supervideo/internal/assets"
)

// StaticPrefix is the URL prefix the player loader is served under.
const StaticPrefix = "/static/"

// StaticHandler serves the embedded client assets.
type StaticHandler struct {
	staticFS   fs.FS
	fileServer http.Handler
}

// NewStaticHandler creates a new static asset handler.
func NewStaticHandler() (*StaticHandler, error) {
	staticFS, err := assets.GetStaticFS()
	if err != nil {
		return nil, err
	}
	return &StaticHandler{
		staticFS:   staticFS,
		fileServer: http.FileServer(http.FS(staticFS)),
	}, nil
}

// ServeHTTP serves files under StaticPrefix. Directory listings are not
// exposed.
func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	filePath := strings.TrimPrefix(path.Clean(r.URL.Path), strings.TrimSuffix(StaticPrefix, "/"))
	filePath = strings.TrimPrefix(filePath, "/")

	info, err := fs.Stat(h.staticFS, filePath)
	if filePath == "" || err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", assets.GetContentType(filePath))
	w.Header().Set("Cache-Control", "public, max-age=3600")

	r2 := r.Clone(r.Context())
	r2.URL.Path = "/" + filePath
	h.fileServer.ServeHTTP(w, r2)
}
