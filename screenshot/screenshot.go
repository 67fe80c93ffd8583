// Package screenshot captures the full screen into PNG files using the
// platform's command line tools.
package screenshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"go.aimuz.me/interviewcoder/internal/types"
)

// Tool describes one command line screenshot program.
type Tool struct {
	Name string
	Args func(path string) []string
}

// toolsFor returns candidate tools for goos, most preferred first.
func toolsFor(goos string) []Tool {
	switch goos {
	case "darwin":
		return []Tool{
			// -x: do not play sound
			{Name: "screencapture", Args: func(p string) []string { return []string{"-x", p} }},
		}
	case "windows":
		return []Tool{
			{Name: "powershell", Args: powershellArgs},
		}
	default:
		return []Tool{
			{Name: "grim", Args: func(p string) []string { return []string{p} }},
			{Name: "gnome-screenshot", Args: func(p string) []string { return []string{"-f", p} }},
			{Name: "scrot", Args: func(p string) []string { return []string{"-o", p} }},
			{Name: "import", Args: func(p string) []string { return []string{"-window", "root", p} }},
		}
	}
}

func powershellArgs(path string) []string {
	script := fmt.Sprintf(`Add-Type -AssemblyName System.Windows.Forms,System.Drawing;`+
		`$b=[System.Windows.Forms.Screen]::PrimaryScreen.Bounds;`+
		`$bmp=New-Object System.Drawing.Bitmap $b.Width,$b.Height;`+
		`$g=[System.Drawing.Graphics]::FromImage($bmp);`+
		`$g.CopyFromScreen($b.Location,[System.Drawing.Point]::Empty,$b.Size);`+
		`$bmp.Save('%s',[System.Drawing.Imaging.ImageFormat]::Png)`, path)
	return []string{"-NoProfile", "-Command", script}
}

// Capturer takes full-screen screenshots.
type Capturer struct {
	tools    []Tool
	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args ...string) error
}

// New creates a Capturer for the current platform.
func New() *Capturer {
	return &Capturer{
		tools:    toolsFor(runtime.GOOS),
		lookPath: exec.LookPath,
		run: func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		},
	}
}

// Available reports whether any screenshot tool is installed.
func (c *Capturer) Available() bool {
	_, _, err := c.find()
	return err == nil
}

func (c *Capturer) find() (Tool, string, error) {
	for _, t := range c.tools {
		if bin, err := c.lookPath(t.Name); err == nil {
			return t, bin, nil
		}
	}
	return Tool{}, "", fmt.Errorf("%w: no screenshot tool found", types.ErrCapabilityUnavailable)
}

// Capture writes one screenshot to path and returns its bytes.
func (c *Capturer) Capture(ctx context.Context, path string) ([]byte, error) {
	tool, bin, err := c.find()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create screenshot dir: %w", err)
	}

	if err := c.run(ctx, bin, tool.Args(path)...); err != nil {
		return nil, fmt.Errorf("%s failed: %w", tool.Name, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s produced no file", tool.Name)
		}
		return nil, fmt.Errorf("read screenshot: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s produced an empty file", tool.Name)
	}
	return data, nil
}
