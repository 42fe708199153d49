package http

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-grades/internal/export"
	"github.com/mind-engage/mindengage-grades/internal/storage"
)

func MountExports(r chi.Router, s Snapshots, sink storage.Sink, log *slog.Logger) {
	// POST /exports -> writes the current snapshot as CSV
	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		res, ok := current(w, s)
		if !ok {
			return
		}
		var buf bytes.Buffer
		if err := export.WriteCSV(&buf, res.Report); err != nil {
			http.Error(w, "render csv: "+err.Error(), http.StatusInternalServerError)
			return
		}
		key, err := sink.Put("grades-"+res.RunID+".csv", &buf)
		if err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		u, _ := sink.URL(key)
		log.Info("export written", "by", actor(r), "key", key)
		writeJSON(w, http.StatusCreated, map[string]string{"key": key, "url": u})
	})

	// GET /exports/* -> returns the stored export
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		rc, err := sink.Get(key)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		_, _ = io.Copy(w, rc)
	})
}
