package api

import (
	"context"
	"encoding/json"
	"image"
	"net/http"
	"time"

	"github.com/lox/tideline/internal/imagegen"
	"github.com/lox/tideline/internal/store"
)

// Present keeps img as the frame served at /timeline.png.
func (s *Server) Present(ctx context.Context, img image.Image) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := imagegen.EncodePNG(img)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.frame = data
	s.renderedAt = time.Now()
	s.mu.Unlock()
	return nil
}

func (s *Server) Close() error {
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/timeline.png", http.StatusFound)
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	frame, renderedAt := s.latest()
	if frame == nil {
		http.Error(w, "no frame rendered yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Last-Modified", renderedAt.UTC().Format(http.TimeFormat))
	w.Write(frame)
}

type HealthStatus struct {
	Status     string                     `json:"status"`
	RenderedAt *time.Time                 `json:"rendered_at,omitempty"`
	Fetches    []store.FetchHealthSummary `json:"fetches,omitempty"`
	LastErrors []FetchError               `json:"last_errors,omitempty"`
	Errors     []string                   `json:"errors,omitempty"`
}

type FetchError struct {
	Kind      string    `json:"kind"`
	StartedAt time.Time `json:"started_at"`
	Status    int64     `json:"http_status,omitempty"`
	Message   string    `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthStatus{Status: "ok"}

	if _, renderedAt := s.latest(); !renderedAt.IsZero() {
		health.RenderedAt = &renderedAt
	} else {
		health.Status = "starting"
	}

	if s.store != nil {
		fetches, err := s.store.FetchHealth(7)
		if err != nil {
			health.Errors = append(health.Errors, "fetch health: "+err.Error())
		}
		health.Fetches = fetches

		failed, err := s.store.RecentFetchErrors(5)
		if err != nil {
			health.Errors = append(health.Errors, "recent errors: "+err.Error())
		}
		for _, run := range failed {
			health.LastErrors = append(health.LastErrors, FetchError{
				Kind:      run.Kind,
				StartedAt: run.StartedAt,
				Status:    run.HTTPStatus.Int64,
				Message:   run.ErrorMessage.String,
			})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if len(health.Errors) > 0 {
		health.Status = "error"
		w.WriteHeader(http.StatusInternalServerError)
	}
	json.NewEncoder(w).Encode(health)
}
