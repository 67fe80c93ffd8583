package remote

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.aimuz.me/interviewcoder/config"
	"go.aimuz.me/interviewcoder/internal/types"
)

func (s *Server) getState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.GetState())
}

func (s *Server) getHistory(w http.ResponseWriter, _ *http.Request) {
	entries := s.ctrl.GetHistory()
	if entries == nil {
		entries = []types.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

type screenshotResponse struct {
	Added      bool              `json:"added"`
	Screenshot *types.Screenshot `json:"screenshot,omitempty"`
}

func (s *Server) takeScreenshot(w http.ResponseWriter, _ *http.Request) {
	shot, err := s.ctrl.TakeScreenshot()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, screenshotResponse{Added: shot != nil, Screenshot: shot})
}

type processResponse struct {
	Started bool `json:"started"`
}

func (s *Server) processQueue(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusAccepted, processResponse{Started: s.ctrl.ProcessQueue()})
}

func (s *Server) resetAll(w http.ResponseWriter, _ *http.Request) {
	s.ctrl.ResetAll()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) toggleRecording(w http.ResponseWriter, _ *http.Request) {
	st, err := s.ctrl.ToggleRecording()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) resetAudio(w http.ResponseWriter, _ *http.Request) {
	s.ctrl.ResetAudio()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) clearCache(w http.ResponseWriter, _ *http.Request) {
	if err := s.ctrl.ClearCache(); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getConfig never exposes full API keys.
func (s *Server) getConfig(w http.ResponseWriter, _ *http.Request) {
	cfg := s.ctrl.GetConfig()
	writeJSON(w, http.StatusOK, cfg.Masked())
}

// putConfig replaces the config. Keys sent back in masked form keep their
// current value.
func (s *Server) putConfig(w http.ResponseWriter, r *http.Request) {
	var in config.Config
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, fmt.Errorf("%w: decode body: %v", types.ErrConfigInvalid, err))
		return
	}

	cur := s.ctrl.GetConfig()
	masked := cur.Masked()
	if in.OpenAIAPIKey != "" && in.OpenAIAPIKey == masked.OpenAIAPIKey {
		in.OpenAIAPIKey = cur.OpenAIAPIKey
	}
	if in.GeminiAPIKey != "" && in.GeminiAPIKey == masked.GeminiAPIKey {
		in.GeminiAPIKey = cur.GeminiAPIKey
	}

	if err := s.ctrl.SaveConfig(in); err != nil {
		writeError(w, err)
		return
	}
	saved := s.ctrl.GetConfig()
	writeJSON(w, http.StatusOK, saved.Masked())
}
