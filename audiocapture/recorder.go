// Package audiocapture records microphone audio into WAV files by driving an
// external recorder process.
package audiocapture

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"go.aimuz.me/interviewcoder/internal/types"
)

// stopGrace is how long a recorder gets to flush its file after an interrupt.
const stopGrace = 5 * time.Second

// Tool describes one command line recorder.
type Tool struct {
	Name string
	Args func(deviceID, path string) []string
}

func toolsFor(goos string) []Tool {
	arecord := Tool{Name: "arecord", Args: func(dev, p string) []string {
		args := []string{"-q", "-f", "S16_LE", "-r", "16000", "-c", "1"}
		if dev != "" {
			args = append(args, "-D", dev)
		}
		return append(args, p)
	}}
	sox := Tool{Name: "sox", Args: func(_, p string) []string {
		return []string{"-q", "-d", "-c", "1", "-r", "16000", "-b", "16", p}
	}}

	switch goos {
	case "darwin":
		return []Tool{sox, ffmpegTool("avfoundation", func(dev string) string { return ":" + orDefault(dev, "0") })}
	case "windows":
		return []Tool{ffmpegTool("dshow", func(dev string) string { return "audio=" + orDefault(dev, "default") })}
	default:
		return []Tool{arecord, sox, ffmpegTool("pulse", func(dev string) string { return orDefault(dev, "default") })}
	}
}

func ffmpegTool(format string, input func(dev string) string) Tool {
	return Tool{Name: "ffmpeg", Args: func(dev, p string) []string {
		return []string{"-hide_banner", "-loglevel", "error", "-y",
			"-f", format, "-i", input(dev),
			"-ac", "1", "-ar", "16000", p}
	}}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// process is the subset of a running command the recorder needs.
type process interface {
	Interrupt() error
	Kill() error
	Wait() error
}

type cmdProcess struct{ cmd *exec.Cmd }

func (p cmdProcess) Interrupt() error {
	if runtime.GOOS == "windows" {
		return errors.New("interrupt not supported")
	}
	return p.cmd.Process.Signal(os.Interrupt)
}

func (p cmdProcess) Kill() error { return p.cmd.Process.Kill() }
func (p cmdProcess) Wait() error { return p.cmd.Wait() }

func startCommand(name string, args ...string) (process, error) {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return cmdProcess{cmd: cmd}, nil
}

// Recorder records one clip at a time.
type Recorder struct {
	mu   sync.Mutex
	proc process
	path string
	done chan error

	tools    []Tool
	lookPath func(string) (string, error)
	start    func(name string, args ...string) (process, error)
}

// New creates a Recorder for the current platform.
func New() *Recorder {
	return &Recorder{
		tools:    toolsFor(runtime.GOOS),
		lookPath: exec.LookPath,
		start:    startCommand,
	}
}

// Available reports whether any recorder tool is installed.
func (r *Recorder) Available() bool {
	_, _, err := r.find()
	return err == nil
}

func (r *Recorder) find() (Tool, string, error) {
	for _, t := range r.tools {
		if bin, err := r.lookPath(t.Name); err == nil {
			return t, bin, nil
		}
	}
	return Tool{}, "", fmt.Errorf("%w: no audio recorder found", types.ErrCapabilityUnavailable)
}

// Start spawns the recorder writing to path.
func (r *Recorder) Start(deviceID, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.proc != nil {
		return fmt.Errorf("%w: already recording", types.ErrInvalidState)
	}

	tool, bin, err := r.find()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create audio dir: %w", err)
	}

	proc, err := r.start(bin, tool.Args(deviceID, path)...)
	if err != nil {
		return fmt.Errorf("start %s: %w", tool.Name, err)
	}

	done := make(chan error, 1)
	go func() { done <- proc.Wait() }()

	r.proc = proc
	r.path = path
	r.done = done
	slog.Info("recording started", "tool", tool.Name, "path", path)
	return nil
}

// Stop interrupts the recorder, waits for it to exit and returns the file path.
func (r *Recorder) Stop() (string, error) {
	r.mu.Lock()
	proc, path, done := r.proc, r.path, r.done
	r.proc, r.path, r.done = nil, "", nil
	r.mu.Unlock()

	if proc == nil {
		return "", fmt.Errorf("%w: not recording", types.ErrInvalidState)
	}

	if err := proc.Interrupt(); err != nil {
		slog.Debug("interrupt recorder", "error", err)
		_ = proc.Kill()
	}

	select {
	case err := <-done:
		// Recorders exit non-zero on SIGINT; the file is what matters.
		if err != nil {
			slog.Debug("recorder exited", "error", err)
		}
	case <-time.After(stopGrace):
		slog.Warn("recorder did not exit, killing", "path", path)
		_ = proc.Kill()
		<-done
	}
	return path, nil
}

// Discard stops any active recording and deletes its file.
func (r *Recorder) Discard() {
	path, err := r.Stop()
	if err != nil {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("remove discarded recording", "path", path, "error", err)
	}
}
