// Package assets serves the embedded frontend. Scripts and stylesheets are
// minified once at startup.
package assets

import (
	"bytes"
	"embed"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"
	"go.uber.org/zap"

	"github.com/petervdpas/glassnote/internal/ui/render"
	"github.com/petervdpas/glassnote/internal/ui/viewmodels"
)

//go:embed app.css app.js
var files embed.FS

var mediaTypes = map[string]string{
	".js":  "application/javascript",
	".css": "text/css",
}

// Set holds the served files keyed by clean path ("index.html", "app.js").
type Set struct {
	files map[string][]byte
}

// Load renders the index page from vm, reads the embedded frontend and
// minifies what it can. A file that fails to minify is served as-is.
func Load(log *zap.Logger, vm viewmodels.EditorVM) (*Set, error) {
	if log == nil {
		log = zap.NewNop()
	}

	m := minify.New()
	m.AddFunc("application/javascript", js.Minify)
	m.AddFunc("text/css", css.Minify)

	out := &Set{files: make(map[string][]byte)}
	err := fs.WalkDir(files, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		raw, err := files.ReadFile(p)
		if err != nil {
			return err
		}
		mt, ok := mediaTypes[strings.ToLower(path.Ext(p))]
		if !ok {
			out.files[p] = raw
			return nil
		}
		small, err := m.Bytes(mt, raw)
		if err != nil {
			log.Warn("minify failed, serving original", zap.String("path", p), zap.Error(err))
			out.files[p] = raw
			return nil
		}
		out.files[p] = small
		return nil
	})
	if err != nil {
		return nil, err
	}

	index, err := render.Page("index", vm)
	if err != nil {
		return nil, err
	}
	out.files["index.html"] = index
	return out, nil
}

// File returns the served bytes for p.
func (s *Set) File(p string) ([]byte, bool) {
	b, ok := s.files[p]
	return b, ok
}

// Handler serves the set, with "/" mapped to index.html.
func (s *Set) Handler() http.Handler {
	started := time.Now()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if p == "" {
			p = "index.html"
		}
		data, ok := s.files[p]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if ct := mime.TypeByExtension(path.Ext(p)); ct != "" {
			w.Header().Set("Content-Type", ct)
		}
		http.ServeContent(w, r, p, started, bytes.NewReader(data))
	})
}
