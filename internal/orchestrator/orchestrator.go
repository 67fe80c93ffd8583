// Package orchestrator owns the screenshot queue, the recording session and
// the background jobs that send them to the AI provider.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"go.aimuz.me/interviewcoder/internal/history"
	"go.aimuz.me/interviewcoder/internal/metrics"
	"go.aimuz.me/interviewcoder/internal/types"
	"go.aimuz.me/interviewcoder/llm"
)

// errNoSolver is reported when a job is requested before a provider is configured.
var errNoSolver = fmt.Errorf("%w: no AI provider configured", types.ErrConfigInvalid)

// ScreenCapturer writes one screenshot to path and returns its bytes.
type ScreenCapturer interface {
	Capture(ctx context.Context, path string) ([]byte, error)
}

// AudioRecorder records one clip at a time. Discard stops an active
// recording and deletes its file.
type AudioRecorder interface {
	Start(deviceID, path string) error
	Stop() (string, error)
	Discard()
}

// toolChecker is implemented by collaborators that can tell whether their OS
// tool is installed.
type toolChecker interface {
	Available() bool
}

func available(v any) bool {
	if v == nil {
		return false
	}
	if p, ok := v.(toolChecker); ok {
		return p.Available()
	}
	return true
}

// Settings are the per-job options taken from the active config.
type Settings struct {
	Language      string
	InterviewType string
	AudioDeviceID string
}

// Options configures an Orchestrator.
type Options struct {
	Capturer ScreenCapturer
	Recorder AudioRecorder
	Solver   llm.Solver // May be nil until a config is saved
	Settings Settings

	ScreenshotDir string
	AudioDir      string

	History *history.Store
	Metrics *metrics.Metrics

	// Emit delivers lifecycle events. It is called with the orchestrator lock
	// held for job completions, so it must not call back into the Orchestrator.
	Emit func(name string, data any)

	Now            func() time.Time
	NewID          func() string
	DetectLanguage func(text string) string
}

type recState int

const (
	recIdle recState = iota
	recStarting
	recActive
	recStopping
)

// Orchestrator serializes every intent through one mutex. The lock is never
// held across capture, recording or provider I/O.
type Orchestrator struct {
	capturer ScreenCapturer
	recorder AudioRecorder
	history  *history.Store
	metrics  *metrics.Metrics
	emitFn   func(string, any)
	now      func() time.Time
	newID    func() string
	detect   func(string) string

	screenshotDir string
	audioDir      string

	mu       sync.Mutex
	solver   llm.Solver
	settings Settings

	queue    []types.Screenshot
	inflight int    // captures holding a queue slot
	queueGen uint64 // bumped by ResetAll
	lastID   int64

	processing bool
	run        uint64
	cancelRun  context.CancelFunc

	rec   recState
	seq   int
	clips []string // finished recordings kept until ResetAudio

	audioBusy   bool
	audioRun    uint64
	cancelAudio context.CancelFunc

	tasks sync.WaitGroup
}

// New creates an Orchestrator.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		capturer:      opts.Capturer,
		recorder:      opts.Recorder,
		history:       opts.History,
		metrics:       opts.Metrics,
		emitFn:        opts.Emit,
		now:           opts.Now,
		newID:         opts.NewID,
		detect:        opts.DetectLanguage,
		screenshotDir: opts.ScreenshotDir,
		audioDir:      opts.AudioDir,
		solver:        opts.Solver,
		settings:      opts.Settings,
	}
	if o.history == nil {
		o.history = history.New()
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.newID == nil {
		o.newID = uuid.NewString
	}
	if o.screenshotDir == "" {
		o.screenshotDir = filepath.Join(os.TempDir(), "interviewcoder", "screenshots")
	}
	if o.audioDir == "" {
		o.audioDir = filepath.Join(os.TempDir(), "interviewcoder", "audio")
	}
	return o
}

func (o *Orchestrator) emit(name string, data any) {
	if o.emitFn != nil {
		o.emitFn(name, data)
	}
}

// Configure swaps the active provider and job settings. Running jobs keep
// the solver they started with.
func (o *Orchestrator) Configure(solver llm.Solver, s Settings) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.solver = solver
	o.settings = s
}

// State returns a snapshot for the shells.
func (o *Orchestrator) State() types.State {
	// Tool lookups run outside the lock; the collaborators never change.
	canCapture := o.capturer != nil && available(o.capturer)
	canRecord := o.recorder != nil && available(o.recorder)

	o.mu.Lock()
	defer o.mu.Unlock()

	st := types.State{
		Queue:               slices.Clone(o.queue),
		Processing:          o.processing,
		Recording:           o.rec == recActive || o.rec == recStarting,
		AudioProcessing:     o.audioBusy,
		ScreenshotAvailable: canCapture,
		RecordingAvailable:  canRecord,
	}
	if st.Queue == nil {
		st.Queue = []types.Screenshot{}
	}
	if o.solver != nil {
		st.Provider = o.solver.Name()
	}
	return st
}

// History returns completed jobs, newest first.
func (o *Orchestrator) History() []types.HistoryEntry {
	return o.history.List()
}

// Wait blocks until every background job has finished.
func (o *Orchestrator) Wait() {
	o.tasks.Wait()
}

// nextID returns a unix-millisecond id strictly greater than the last one.
// Callers hold o.mu.
func (o *Orchestrator) nextID() int64 {
	id := o.now().UnixMilli()
	if id <= o.lastID {
		id = o.lastID + 1
	}
	o.lastID = id
	return id
}

// TakeScreenshot captures the screen into the queue. It returns (nil, nil)
// when the queue is full or a reset happened while capturing.
func (o *Orchestrator) TakeScreenshot(ctx context.Context) (*types.Screenshot, error) {
	o.mu.Lock()
	if len(o.queue)+o.inflight >= types.MaxScreenshots {
		o.mu.Unlock()
		slog.Debug("screenshot queue full", "max", types.MaxScreenshots)
		return nil, nil
	}
	if o.capturer == nil {
		o.mu.Unlock()
		return nil, fmt.Errorf("%w: no screen capturer", types.ErrCapabilityUnavailable)
	}
	o.inflight++
	id := o.nextID()
	gen := o.queueGen
	o.mu.Unlock()

	path := filepath.Join(o.screenshotDir, fmt.Sprintf("%d.png", id))
	data, err := o.capturer.Capture(ctx, path)
	o.metrics.Capture(metrics.KindScreenshot, err)

	o.mu.Lock()
	o.inflight--
	if err != nil {
		o.mu.Unlock()
		slog.Error("capture screenshot", "error", err)
		return nil, err
	}
	if o.queueGen != gen {
		o.mu.Unlock()
		slog.Info("discard screenshot captured across reset", "id", id)
		removeFile(path)
		return nil, nil
	}
	shot := types.Screenshot{ID: id, Path: path, Data: data}
	o.queue = append(o.queue, shot)
	n := len(o.queue)
	o.mu.Unlock()

	o.metrics.QueueLength(n)
	slog.Info("screenshot added", "id", id, "queue", n)
	o.emit(EventScreenshotAdded, shot)
	return &shot, nil
}

// ProcessQueue sends every queued screenshot to the provider in one call.
// It reports whether a job was started; an empty queue or a running job
// makes it a no-op.
func (o *Orchestrator) ProcessQueue() bool {
	o.mu.Lock()
	if o.processing || len(o.queue) == 0 {
		o.mu.Unlock()
		return false
	}
	if o.solver == nil {
		o.mu.Unlock()
		slog.Warn("process queue without provider")
		o.emit(EventProcessingComplete, types.ErrorSolution(errNoSolver))
		return false
	}

	o.processing = true
	o.run++
	token := o.run
	ctx, cancel := context.WithCancel(context.Background())
	o.cancelRun = cancel
	shots := slices.Clone(o.queue)
	solver, settings := o.solver, o.settings
	o.mu.Unlock()

	o.emit(EventProcessingStarted, types.ProcessingStarted{Count: len(shots)})
	o.tasks.Go(func() {
		o.runScreenshotJob(ctx, cancel, token, solver, settings, shots)
	})
	return true
}

func (o *Orchestrator) runScreenshotJob(ctx context.Context, cancel context.CancelFunc, token uint64, solver llm.Solver, settings Settings, shots []types.Screenshot) {
	defer cancel()
	defer o.finishRun(token)

	start := o.now()
	images := make([][]byte, len(shots))
	for i, s := range shots {
		images[i] = s.Data
	}

	sol, err := solver.SolveImages(ctx, llm.ImageRequest{
		Images:        images,
		Language:      settings.Language,
		InterviewType: settings.InterviewType,
	})
	elapsed := o.now().Sub(start)

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.run != token {
		slog.Info("discard stale screenshot result", "run", token)
		o.metrics.JobDone(metrics.KindScreenshot, metrics.StatusCancelled, elapsed)
		return
	}
	o.processing = false
	o.cancelRun = nil

	if err != nil {
		slog.Error("solve screenshots", "count", len(shots), "error", err)
		o.metrics.JobDone(metrics.KindScreenshot, metrics.StatusError, elapsed)
		o.emit(EventProcessingComplete, types.ErrorSolution(err))
		return
	}

	status := metrics.StatusSuccess
	if sol.Cached {
		status = metrics.StatusCached
	}
	o.metrics.JobDone(metrics.KindScreenshot, status, elapsed)

	o.history.Add(types.HistoryEntry{
		ID:          o.newID(),
		Kind:        types.HistoryScreenshot,
		CreatedAt:   o.now(),
		Solution:    &sol,
		Screenshots: shots,
	})
	slog.Info("screenshots solved", "count", len(shots), "elapsed", elapsed, "cached", sol.Cached)
	o.emit(EventProcessingComplete, sol)
}

// finishRun clears the processing flag if run token is still current.
func (o *Orchestrator) finishRun(token uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.run == token {
		o.processing = false
		o.cancelRun = nil
	}
}

// ResetAll deletes queued screenshots, cancels and suppresses a running
// screenshot job and clears history.
func (o *Orchestrator) ResetAll() {
	o.mu.Lock()
	shots := o.queue
	o.queue = nil
	o.queueGen++
	o.processing = false
	o.run++
	if o.cancelRun != nil {
		o.cancelRun()
		o.cancelRun = nil
	}
	o.history.Clear()
	o.mu.Unlock()

	for _, s := range shots {
		removeFile(s.Path)
	}
	o.metrics.QueueLength(0)
	slog.Info("queue reset", "removed", len(shots))
	o.emit(EventQueueReset, nil)
}

func removeFile(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("remove file", "path", path, "error", err)
	}
}
