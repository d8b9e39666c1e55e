package server

import (
	"embed"
	"io/fs"
	"net/http"
)

// Bundled web UI. An on-disk assets directory configured via
// Config.AssetsPath overrides the embedded assets.

//go:embed web
var webFS embed.FS

// handleWeb serves the bundled HTML page.
func (s *Server) handleWeb(w http.ResponseWriter, _ *http.Request) {
	page, err := webFS.ReadFile("web/index.html")
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(page); err != nil {
		s.logger.Error().Err(err).Msg("failed to write web page")
	}
}

// assetsHandler serves static assets, embedded by default or from the
// configured directory when set.
func (s *Server) assetsHandler() http.Handler {
	if s.cfg.AssetsPath != "" {
		return http.StripPrefix("/assets/", http.FileServer(http.Dir(s.cfg.AssetsPath)))
	}
	assets, err := fs.Sub(webFS, "web/assets")
	if err != nil {
		// The embedded tree always contains web/assets; reaching this
		// means a broken build.
		panic(err)
	}
	return http.StripPrefix("/assets/", http.FileServer(http.FS(assets)))
}
