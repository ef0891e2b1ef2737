// Package web serves the widget page. The page renders the JSON views itself;
// nothing here templates HTML on the server.
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
)

//go:embed static
var staticFS embed.FS

func assets() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Handler serves the embedded page and, when dir is set, icon images and other
// files from dir. Embedded files take precedence.
func Handler(dir string) http.Handler {
	embedded := assets()
	embeddedSrv := http.FileServer(http.FS(embedded))
	var diskSrv http.Handler
	if dir != "" {
		diskSrv = http.FileServer(http.Dir(dir))
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := path.Clean("/" + r.URL.Path)
		if name == "/" {
			embeddedSrv.ServeHTTP(w, r)
			return
		}
		if _, err := fs.Stat(embedded, name[1:]); err == nil {
			embeddedSrv.ServeHTTP(w, r)
			return
		}
		if diskSrv != nil {
			if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(name))); err == nil {
				diskSrv.ServeHTTP(w, r)
				return
			}
		}
		http.NotFound(w, r)
	})
}
