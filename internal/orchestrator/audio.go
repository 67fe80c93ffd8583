package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go.aimuz.me/interviewcoder/internal/metrics"
	"go.aimuz.me/interviewcoder/internal/types"
	"go.aimuz.me/interviewcoder/llm"
)

// ToggleRecording starts a recording when idle and stops it when recording.
func (o *Orchestrator) ToggleRecording() (types.RecordingState, error) {
	o.mu.Lock()
	idle := o.rec == recIdle
	o.mu.Unlock()

	if idle {
		if err := o.StartRecording(); err != nil {
			return types.RecordingState{}, err
		}
		return types.RecordingState{Recording: true}, nil
	}

	path, err := o.StopRecording()
	if err != nil {
		return types.RecordingState{}, err
	}
	return types.RecordingState{Recording: false, Path: path}, nil
}

// StartRecording begins recording the next question.
func (o *Orchestrator) StartRecording() error {
	o.mu.Lock()
	if o.rec != recIdle {
		o.mu.Unlock()
		return fmt.Errorf("%w: already recording", types.ErrInvalidState)
	}
	if o.audioBusy {
		o.mu.Unlock()
		return fmt.Errorf("%w: previous question is still processing", types.ErrInvalidState)
	}
	if o.recorder == nil {
		o.mu.Unlock()
		return fmt.Errorf("%w: no audio recorder", types.ErrCapabilityUnavailable)
	}
	o.rec = recStarting
	run := o.audioRun
	path := filepath.Join(o.audioDir, fmt.Sprintf("question-%d.wav", o.seq))
	device := o.settings.AudioDeviceID
	o.mu.Unlock()

	err := o.recorder.Start(device, path)
	o.metrics.Capture(metrics.KindAudio, err)

	o.mu.Lock()
	if err != nil {
		o.rec = recIdle
		o.mu.Unlock()
		slog.Error("start recording", "error", err)
		return err
	}
	if o.audioRun != run {
		// Reset while the recorder was starting. Stay in recStopping until
		// the clip is gone so a new start cannot race the discard.
		o.rec = recStopping
		o.mu.Unlock()
		o.recorder.Discard()
		o.mu.Lock()
		o.rec = recIdle
		o.mu.Unlock()
		slog.Info("recording discarded by reset", "path", path)
		return errAudioReset
	}
	o.rec = recActive
	o.mu.Unlock()

	slog.Info("recording started", "path", path)
	o.emit(EventRecordingToggled, types.RecordingState{Recording: true})
	return nil
}

// StopRecording finishes the current clip and hands it to the audio pipeline.
// The pipeline runs in the background; only the stop itself blocks.
func (o *Orchestrator) StopRecording() (string, error) {
	o.mu.Lock()
	if o.rec != recActive {
		o.mu.Unlock()
		return "", fmt.Errorf("%w: not recording", types.ErrInvalidState)
	}
	o.rec = recStopping
	run := o.audioRun
	o.mu.Unlock()

	path, err := o.recorder.Stop()

	o.mu.Lock()
	o.rec = recIdle
	if o.audioRun != run {
		o.mu.Unlock()
		slog.Info("recording discarded by reset", "path", path)
		removeFile(path)
		return "", errAudioReset
	}
	if err == nil {
		err = checkRecording(path)
	}
	if err != nil {
		o.mu.Unlock()
		slog.Error("stop recording", "path", path, "error", err)
		removeFile(path)
		o.emit(EventRecordingToggled, types.RecordingState{Recording: false})
		return "", err
	}

	o.seq++
	o.clips = append(o.clips, path)
	o.audioBusy = true
	o.audioRun++
	token := o.audioRun
	ctx, cancel := context.WithCancel(context.Background())
	o.cancelAudio = cancel
	solver, settings := o.solver, o.settings
	o.mu.Unlock()

	slog.Info("recording stopped", "path", path)
	o.emit(EventRecordingToggled, types.RecordingState{Recording: false, Path: path})
	o.tasks.Go(func() {
		o.runAudioJob(ctx, cancel, token, solver, settings, path)
	})
	return path, nil
}

var errAudioReset = fmt.Errorf("%w: audio was reset", types.ErrInvalidState)

func checkRecording(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrRecordingFailed, err)
	}
	if fi.Size() == 0 {
		return fmt.Errorf("%w: empty recording %s", types.ErrRecordingFailed, path)
	}
	return nil
}

func (o *Orchestrator) runAudioJob(ctx context.Context, cancel context.CancelFunc, token uint64, solver llm.Solver, settings Settings, path string) {
	defer cancel()
	defer o.finishAudio(token)

	start := o.now()
	if !o.emitAudio(token, EventAudioProcessingStarted, types.AudioProgress{Path: path}) {
		return
	}

	transcript, err := o.answerAudio(ctx, token, solver, settings, path)
	elapsed := o.now().Sub(start)
	if err != nil {
		if o.audioCurrent(token) {
			slog.Error("answer audio", "path", path, "error", err)
			o.metrics.JobDone(metrics.KindAudio, metrics.StatusError, elapsed)
		}
		o.emitAudio(token, EventAudioProcessingError, err.Error())
		return
	}

	var lang string
	if o.detect != nil && strings.TrimSpace(transcript) != "" {
		lang = o.detect(transcript)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.audioRun != token {
		o.metrics.JobDone(metrics.KindAudio, metrics.StatusCancelled, elapsed)
		return
	}
	o.audioBusy = false
	o.cancelAudio = nil
	o.metrics.JobDone(metrics.KindAudio, metrics.StatusSuccess, elapsed)

	if strings.TrimSpace(transcript) != "" {
		o.history.Add(types.HistoryEntry{
			ID:         o.newID(),
			Kind:       types.HistoryAudio,
			CreatedAt:  o.now(),
			Transcript: transcript,
			Language:   lang,
		})
	}
	slog.Info("audio answered", "path", path, "chars", len(transcript), "elapsed", elapsed)
	o.emit(EventAudioProcessingComplete, types.AudioProgress{Path: path, Text: transcript})
}

// answerAudio streams the answer, forwarding each chunk as it arrives. With
// no chunks at all it falls back to one non-streaming call.
func (o *Orchestrator) answerAudio(ctx context.Context, token uint64, solver llm.Solver, settings Settings, path string) (string, error) {
	if solver == nil {
		return "", errNoSolver
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read recording: %w", err)
	}
	req := llm.AudioRequest{
		Audio:    data,
		MimeType: types.AudioMimeType,
		Language: settings.Language,
	}

	stream, err := solver.StreamAudio(ctx, req)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	chunks := 0
	for chunk, err := range stream {
		if err != nil {
			return "", err
		}
		if chunk == "" {
			continue
		}
		if !o.emitAudio(token, EventAudioStreamChunk, chunk) {
			return "", context.Canceled
		}
		chunks++
		b.WriteString(chunk)
		o.metrics.StreamChunk()
	}

	if chunks == 0 {
		slog.Debug("empty audio stream, falling back", "path", path)
		text, err := solver.AnswerAudio(ctx, req)
		if err != nil {
			return "", err
		}
		if !o.emitAudio(token, EventAudioStreamChunk, text) {
			return "", context.Canceled
		}
		b.WriteString(text)
	}
	return b.String(), nil
}

// emitAudio emits an audio event unless the job was reset. It reports
// whether the job is still current.
func (o *Orchestrator) emitAudio(token uint64, name string, data any) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.audioRun != token {
		return false
	}
	o.emit(name, data)
	return true
}

func (o *Orchestrator) audioCurrent(token uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.audioRun == token
}

func (o *Orchestrator) finishAudio(token uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.audioRun == token {
		o.audioBusy = false
		o.cancelAudio = nil
	}
}

// ResetAudio discards an active recording, cancels the running audio job
// and deletes recorded clips. A start or stop already in flight notices the
// reset and discards its clip itself.
func (o *Orchestrator) ResetAudio() {
	o.mu.Lock()
	stopActive := o.rec == recActive
	stopping := o.rec == recStopping
	if stopActive {
		o.rec = recStopping
	}
	o.audioRun++
	o.audioBusy = false
	if o.cancelAudio != nil {
		o.cancelAudio()
		o.cancelAudio = nil
	}
	clips := o.clips
	o.clips = nil
	o.mu.Unlock()

	if stopActive {
		o.recorder.Discard()

		o.mu.Lock()
		o.rec = recIdle
		o.mu.Unlock()
	}
	if stopActive || stopping {
		o.emit(EventRecordingToggled, types.RecordingState{Recording: false})
	}

	for _, p := range clips {
		removeFile(p)
	}
	slog.Info("audio reset", "removed", len(clips))
	o.emit(EventAudioQueueReset, nil)
}
