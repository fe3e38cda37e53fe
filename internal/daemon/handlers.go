package daemon

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"codeberg.org/snonux/wordreel/internal/pipeline"
	"codeberg.org/snonux/wordreel/internal/vocab"
)

type triggerResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type currentWordResponse struct {
	CurrentWord          *vocab.WordRecord `json:"currentWord"`
	CurrentIndex         int               `json:"currentIndex"`
	TotalWords           int               `json:"totalWords"`
	DailyVideosProcessed int               `json:"dailyVideosProcessed"`
}

type healthResponse struct {
	Message              string `json:"message"`
	DailyVideosProcessed int    `json:"dailyVideosProcessed"`
}

type historyEntry struct {
	Word       string    `json:"word"`
	Outcome    string    `json:"outcome"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Error      string    `json:"error,omitempty"`
}

// handleTrigger runs the pipeline once and reports the result. "No data to
// process" is a non-error outcome; stage failures come back as 500 with a
// message.
func (s *Service) handleTrigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// The run is tied to the daemon context, not the request: a client
	// disconnect must not abort a half-finished video.
	result, err := s.orch.Run(s.ctx)
	switch {
	case errors.Is(err, pipeline.ErrRunInFlight):
		s.writeJSON(w, http.StatusConflict, triggerResponse{Message: "A video is already being processed."})
	case err != nil:
		s.writeJSON(w, http.StatusInternalServerError, triggerResponse{
			Message: "Video processing failed",
			Error:   err.Error(),
		})
	case result.Outcome == pipeline.OutcomeCompleted:
		s.writeJSON(w, http.StatusOK, triggerResponse{Message: "Video processing triggered successfully."})
	default:
		// No data or quota reached.
		s.writeJSON(w, http.StatusOK, triggerResponse{Message: "Could not process video."})
	}
}

// handleCurrentWord reports the rotation position and today's count.
func (s *Service) handleCurrentWord(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	state := s.orch.State().Snapshot()
	corpus := s.orch.Corpus()

	resp := currentWordResponse{
		CurrentIndex:         state.CurrentIndex,
		TotalWords:           corpus.Len(),
		DailyVideosProcessed: state.DailyVideoCount,
	}
	if corpus.Len() > 0 && state.CurrentIndex < corpus.Len() {
		rec := corpus.At(state.CurrentIndex)
		resp.CurrentWord = &rec
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	state := s.orch.State().Snapshot()
	s.writeJSON(w, http.StatusOK, healthResponse{
		Message:              "Server is working fine.",
		DailyVideosProcessed: state.DailyVideoCount,
	})
}

// handleHistory returns the most recent runs from the ledger.
func (s *Service) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.ledger == nil {
		s.writeJSON(w, http.StatusOK, []historyEntry{})
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	runs, err := s.ledger.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to read run history")
		return
	}

	entries := make([]historyEntry, 0, len(runs))
	for _, run := range runs {
		entries = append(entries, historyEntry{
			Word:       run.Word,
			Outcome:    run.Outcome,
			StartedAt:  run.StartedAt,
			FinishedAt: run.FinishedAt,
			Error:      run.ErrorText,
		})
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("failed to write response", slog.String("error", err.Error()))
	}
}

func (s *Service) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, triggerResponse{Message: message})
}
