package handlers

import (
	"net/http"
	"path"
)

// StaticHandler serves a single-page frontend: existing files as-is, every
// other path as the index document so client-side routes resolve.
type StaticHandler struct {
	root       http.FileSystem
	index      string
	fileServer http.Handler
}

// NewStaticHandler serves files below root with index as the fallback document
func NewStaticHandler(root, index string) *StaticHandler {
	fs := http.Dir(root)
	return &StaticHandler{
		root:       fs,
		index:      path.Clean("/" + index),
		fileServer: http.FileServer(fs),
	}
}

func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		SendMethodNotAllowed(w, "GET, HEAD")
		return
	}

	name := path.Clean("/" + r.URL.Path)
	if name != "/" && name != h.index && h.isFile(name) {
		h.fileServer.ServeHTTP(w, r)
		return
	}
	h.serveIndex(w, r)
}

func (h *StaticHandler) isFile(name string) bool {
	f, err := h.root.Open(name)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	return err == nil && !info.IsDir()
}

func (h *StaticHandler) serveIndex(w http.ResponseWriter, r *http.Request) {
	f, err := h.root.Open(h.index)
	if err != nil {
		SendError(w, "Not found", http.StatusNotFound)
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		SendError(w, "Not found", http.StatusNotFound)
		return
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// NotFound answers unmatched paths when no frontend is configured
func NotFound(w http.ResponseWriter, r *http.Request) {
	SendError(w, "Not found", http.StatusNotFound)
}
