// Package http exposes the latest grade snapshot over HTTP.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	auth "github.com/mind-engage/mindengage-grades/internal/auth/middleware"
	"github.com/mind-engage/mindengage-grades/internal/export"
	"github.com/mind-engage/mindengage-grades/internal/gradebook"
	"github.com/mind-engage/mindengage-grades/internal/grading"
)

// Snapshots is the refresh surface the handlers read from. *gradebook.Refresher satisfies it.
type Snapshots interface {
	Current() (*gradebook.RunResult, error)
	Refresh(ctx context.Context) (*gradebook.RunResult, error)
}

// WeekLister lists upcoming work. *gradebook.Runner satisfies it.
type WeekLister interface {
	Week(ctx context.Context, includeCompleted bool) ([]gradebook.DueItem, error)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// current loads the snapshot, answering 503 until the first refresh lands.
func current(w http.ResponseWriter, s Snapshots) (*gradebook.RunResult, bool) {
	res, err := s.Current()
	if errors.Is(err, gradebook.ErrNoSnapshot) {
		http.Error(w, "no grades yet; refresh in progress", http.StatusServiceUnavailable)
		return nil, false
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return res, true
}

// GET /api/grades
func GradesHandler(s Snapshots) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, ok := current(w, s)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// GET /api/grades.csv
func GradesCSVHandler(s Snapshots) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, ok := current(w, s)
		if !ok {
			return
		}
		var buf bytes.Buffer
		if err := export.WriteSummaryCSV(&buf, res.Report); err != nil {
			http.Error(w, "render csv: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="grades.csv"`)
		_, _ = w.Write(buf.Bytes())
	}
}

type assignmentView struct {
	ID             int64                   `json:"id"`
	Name           string                  `json:"name"`
	Category       string                  `json:"category"`
	PointsPossible *float64                `json:"points_possible"`
	Score          *float64                `json:"score"`
	State          grading.SubmissionState `json:"state"`
	DueAt          *time.Time              `json:"due_at,omitempty"`
	Bucket         grading.Bucket          `json:"bucket"`
}

type courseView struct {
	grading.CourseDetail
	Assignments []assignmentView `json:"assignments,omitempty"`
}

// GET /api/courses/{courseID}[?assignments=true]
func CourseHandler(s Snapshots) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "courseID"), 10, 64)
		if err != nil {
			http.Error(w, "bad course id", http.StatusBadRequest)
			return
		}
		res, ok := current(w, s)
		if !ok {
			return
		}
		for _, o := range res.Courses {
			if o.CourseID != id {
				continue
			}
			if !o.OK() {
				msg := "no result"
				if o.Err != nil {
					msg = o.Err.Error()
				}
				http.Error(w, "course failed: "+msg, http.StatusBadGateway)
				return
			}
			v := courseView{CourseDetail: grading.Detail(*o.Result)}
			if b, _ := strconv.ParseBool(r.URL.Query().Get("assignments")); b {
				for _, a := range o.Result.Assignments {
					v.Assignments = append(v.Assignments, assignmentView{
						ID: a.ID, Name: a.Name, Category: a.Category,
						PointsPossible: a.PointsPossible, Score: a.Score,
						State: a.State, DueAt: a.DueAt, Bucket: a.Bucket,
					})
				}
			}
			writeJSON(w, http.StatusOK, v)
			return
		}
		http.Error(w, "course not in snapshot", http.StatusNotFound)
	}
}

// POST /api/refresh
func RefreshHandler(s Snapshots, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.Refresh(r.Context())
		log.Info("refresh requested", "by", actor(r), "ok", err == nil)
		if err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, gradebook.ErrSelection) || errors.Is(err, gradebook.ErrNoMatch) || errors.Is(err, gradebook.ErrAmbiguous) {
				status = http.StatusConflict
			}
			http.Error(w, err.Error(), status)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"run_id": res.RunID, "failed": res.Failed, "courses": len(res.Courses)})
	}
}

// GET /api/week[?include_completed=true]
func WeekHandler(l WeekLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inc, _ := strconv.ParseBool(r.URL.Query().Get("include_completed"))
		items, err := l.Week(r.Context(), inc)
		out := map[string]any{"items": items}
		if items == nil {
			out["items"] = []gradebook.DueItem{}
		}
		if err != nil {
			if len(items) == 0 {
				http.Error(w, err.Error(), http.StatusBadGateway)
				return
			}
			out["error"] = err.Error()
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// actor names the caller for audit logs.
func actor(r *http.Request) string {
	if sub := auth.SubjectFromContext(r.Context()); sub != "" {
		return sub
	}
	return "anonymous"
}
