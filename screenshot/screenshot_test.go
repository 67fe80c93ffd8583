package screenshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.aimuz.me/interviewcoder/internal/types"
)

func fakeCapturer(installed map[string]bool, write []byte) (*Capturer, *[]string) {
	var calls []string
	c := &Capturer{
		tools: toolsFor("linux"),
		lookPath: func(name string) (string, error) {
			if installed[name] {
				return "/usr/bin/" + name, nil
			}
			return "", errors.New("not found")
		},
		run: func(_ context.Context, name string, args ...string) error {
			calls = append(calls, name)
			if write == nil {
				return nil
			}
			return os.WriteFile(args[len(args)-1], write, 0644)
		},
	}
	return c, &calls
}

func TestCapture(t *testing.T) {
	c, calls := fakeCapturer(map[string]bool{"scrot": true, "import": true}, []byte("png"))
	path := filepath.Join(t.TempDir(), "shots", "1.png")

	data, err := c.Capture(context.Background(), path)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if string(data) != "png" {
		t.Errorf("data = %q", data)
	}
	if len(*calls) != 1 || (*calls)[0] != "/usr/bin/scrot" {
		t.Errorf("expected the first installed tool to run, got %v", *calls)
	}
}

func TestCapture_NoTool(t *testing.T) {
	c, calls := fakeCapturer(nil, []byte("png"))

	if c.Available() {
		t.Error("Available() = true with no tools installed")
	}
	_, err := c.Capture(context.Background(), filepath.Join(t.TempDir(), "1.png"))
	if !errors.Is(err, types.ErrCapabilityUnavailable) {
		t.Fatalf("Capture error = %v, want ErrCapabilityUnavailable", err)
	}
	if len(*calls) != 0 {
		t.Errorf("no tool should run, got %v", *calls)
	}
}

func TestCapture_NoFileWritten(t *testing.T) {
	c, _ := fakeCapturer(map[string]bool{"grim": true}, nil)

	if _, err := c.Capture(context.Background(), filepath.Join(t.TempDir(), "1.png")); err == nil {
		t.Fatal("expected an error when the tool writes nothing")
	}
}

func TestToolsFor(t *testing.T) {
	for _, goos := range []string{"darwin", "linux", "windows", "freebsd"} {
		if len(toolsFor(goos)) == 0 {
			t.Errorf("no tools for %s", goos)
		}
	}
	if got := toolsFor("darwin")[0].Args("/tmp/a.png"); got[len(got)-1] != "/tmp/a.png" {
		t.Errorf("screencapture args = %v", got)
	}
}
