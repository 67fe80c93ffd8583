package audiocapture

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"go.aimuz.me/interviewcoder/internal/types"
)

type fakeProcess struct {
	once        sync.Once
	exited      chan struct{}
	interrupted bool
	onStop      func()
}

func newFakeProcess(onStop func()) *fakeProcess {
	return &fakeProcess{exited: make(chan struct{}), onStop: onStop}
}

func (p *fakeProcess) exit() {
	p.once.Do(func() {
		if p.onStop != nil {
			p.onStop()
		}
		close(p.exited)
	})
}

func (p *fakeProcess) Interrupt() error {
	p.interrupted = true
	p.exit()
	return nil
}

func (p *fakeProcess) Kill() error {
	p.exit()
	return nil
}

func (p *fakeProcess) Wait() error {
	<-p.exited
	return errors.New("signal: interrupt")
}

func newTestRecorder(installed bool) (*Recorder, *[]*fakeProcess, *[][]string) {
	var procs []*fakeProcess
	var argv [][]string
	r := &Recorder{
		tools: toolsFor("linux"),
		lookPath: func(name string) (string, error) {
			if installed && name == "arecord" {
				return "/usr/bin/arecord", nil
			}
			return "", errors.New("not found")
		},
	}
	r.start = func(name string, args ...string) (process, error) {
		argv = append(argv, append([]string{name}, args...))
		path := args[len(args)-1]
		p := newFakeProcess(func() { os.WriteFile(path, []byte("RIFF"), 0644) })
		procs = append(procs, p)
		return p, nil
	}
	return r, &procs, &argv
}

func recording(r *Recorder) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.proc != nil
}

func TestRecorder_StartStop(t *testing.T) {
	r, procs, argv := newTestRecorder(true)
	path := filepath.Join(t.TempDir(), "audio", "question-0.wav")

	if err := r.Start("hw:1", path); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !recording(r) {
		t.Fatal("no process after Start")
	}

	got, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if got != path {
		t.Errorf("Stop path = %q, want %q", got, path)
	}
	if recording(r) {
		t.Error("process left after Stop")
	}
	if !(*procs)[0].interrupted {
		t.Error("recorder should be stopped with an interrupt")
	}
	if data, _ := os.ReadFile(path); string(data) != "RIFF" {
		t.Errorf("file content = %q", data)
	}

	args := (*argv)[0]
	if args[0] != "/usr/bin/arecord" || args[len(args)-1] != path {
		t.Errorf("unexpected argv %v", args)
	}
	var hasDevice bool
	for i, a := range args {
		if a == "-D" && i+1 < len(args) && args[i+1] == "hw:1" {
			hasDevice = true
		}
	}
	if !hasDevice {
		t.Errorf("device id not passed, argv %v", args)
	}
}

func TestRecorder_InvalidState(t *testing.T) {
	r, _, _ := newTestRecorder(true)

	if _, err := r.Stop(); !errors.Is(err, types.ErrInvalidState) {
		t.Fatalf("Stop while idle error = %v, want ErrInvalidState", err)
	}

	path := filepath.Join(t.TempDir(), "a.wav")
	if err := r.Start("", path); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer r.Stop()

	if err := r.Start("", path); !errors.Is(err, types.ErrInvalidState) {
		t.Fatalf("second Start error = %v, want ErrInvalidState", err)
	}
}

func TestRecorder_NoTool(t *testing.T) {
	r, procs, _ := newTestRecorder(false)

	if r.Available() {
		t.Error("Available() = true with no tools")
	}
	err := r.Start("", filepath.Join(t.TempDir(), "a.wav"))
	if !errors.Is(err, types.ErrCapabilityUnavailable) {
		t.Fatalf("Start error = %v, want ErrCapabilityUnavailable", err)
	}
	if len(*procs) != 0 || recording(r) {
		t.Error("no process should be spawned")
	}
}

func TestRecorder_Discard(t *testing.T) {
	r, _, _ := newTestRecorder(true)
	path := filepath.Join(t.TempDir(), "a.wav")

	if err := r.Start("", path); err != nil {
		t.Fatalf("Start: %v", err)
	}
	r.Discard()

	if recording(r) {
		t.Error("process left after Discard")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("discarded file should be removed, stat err = %v", err)
	}

	// Discard while idle is a no-op.
	r.Discard()
}

func TestToolsFor(t *testing.T) {
	for _, goos := range []string{"darwin", "linux", "windows"} {
		tools := toolsFor(goos)
		if len(tools) == 0 {
			t.Fatalf("no tools for %s", goos)
		}
		args := tools[len(tools)-1].Args("", "/tmp/q.wav")
		if args[len(args)-1] != "/tmp/q.wav" {
			t.Errorf("%s: output path must be last, got %v", goos, args)
		}
	}
}
