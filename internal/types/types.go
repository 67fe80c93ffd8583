// Package types provides shared type definitions for the application.
package types

import "time"

// MaxScreenshots is the capacity of the pending screenshot queue.
const MaxScreenshots = 4

// AudioMimeType is the only recording format produced by the recorder.
const AudioMimeType = "audio/wav"

// Screenshot is one captured screen image waiting in the queue.
type Screenshot struct {
	ID   int64  `json:"id"`   // Unix milliseconds, strictly increasing
	Path string `json:"path"` // File on disk until reset
	Data []byte `json:"data"` // PNG bytes, base64 in JSON
}

// Solution is the structured answer produced from screenshots.
type Solution struct {
	Approach        string `json:"approach"`
	Code            string `json:"code"`
	TimeComplexity  string `json:"timeComplexity"`
	SpaceComplexity string `json:"spaceComplexity"`
	Cached          bool   `json:"cached,omitempty"`
	Err             bool   `json:"error,omitempty"`
}

// Complete reports whether every required field is present.
func (s Solution) Complete() bool {
	return s.Approach != "" && s.Code != "" && s.TimeComplexity != "" && s.SpaceComplexity != ""
}

// ErrorSolution wraps a failure into a solution-shaped payload so the
// overlay can render it through the same path as a real answer.
func ErrorSolution(err error) Solution {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return Solution{
		Approach:        "Error occurred while processing screenshots",
		Code:            msg,
		TimeComplexity:  "N/A",
		SpaceComplexity: "N/A",
		Err:             true,
	}
}

// HistoryKind distinguishes screenshot jobs from audio jobs.
type HistoryKind string

const (
	HistoryScreenshot HistoryKind = "screenshot"
	HistoryAudio      HistoryKind = "audio"
)

// HistoryEntry is one completed job. Entries are never mutated after creation.
type HistoryEntry struct {
	ID          string       `json:"id"`
	Kind        HistoryKind  `json:"kind"`
	CreatedAt   time.Time    `json:"createdAt"`
	Solution    *Solution    `json:"solution,omitempty"`
	Transcript  string       `json:"transcript,omitempty"`
	Language    string       `json:"language,omitempty"` // Spoken language of audio answers
	Screenshots []Screenshot `json:"screenshots,omitempty"`
}

// RecordingState is the payload of the recording-toggled event.
type RecordingState struct {
	Recording bool   `json:"recording"`
	Path      string `json:"path,omitempty"`
}

// ProcessingStarted is the payload of the processing-started event.
type ProcessingStarted struct {
	Count int `json:"count"`
}

// AudioProgress is the payload of audio-processing-started and -complete.
type AudioProgress struct {
	Path string `json:"path,omitempty"`
	Text string `json:"text,omitempty"`
}

// State is a point-in-time view of the orchestrator for the shells.
type State struct {
	Queue           []Screenshot `json:"queue"`
	Processing      bool         `json:"processing"`
	Recording       bool         `json:"recording"`
	AudioProcessing bool         `json:"audioProcessing"`
	Provider        string       `json:"provider"`

	// False when no OS screenshot or recording tool is installed.
	ScreenshotAvailable bool `json:"screenshotAvailable"`
	RecordingAvailable  bool `json:"recordingAvailable"`
}

// DetectResult represents the result of language detection.
type DetectResult struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
