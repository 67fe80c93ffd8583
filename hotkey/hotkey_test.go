package hotkey

import (
	"slices"
	"testing"
)

func TestParseCombo(t *testing.T) {
	tests := []struct {
		combo   string
		goos    string
		want    []string
		wantErr bool
	}{
		{"CmdOrCtrl+H", "darwin", []string{"h", "cmd"}, false},
		{"CmdOrCtrl+H", "linux", []string{"h", "ctrl"}, false},
		{"CmdOrCtrl+Return", "windows", []string{"enter", "ctrl"}, false},
		{"Ctrl+Shift+B", "linux", []string{"b", "ctrl", "shift"}, false},
		{" option + M ", "darwin", []string{"m", "alt"}, false},
		{"Ctrl+", "linux", nil, true},
		{"Ctrl+Shift", "linux", nil, true},
		{"A+B", "linux", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.combo+"/"+tt.goos, func(t *testing.T) {
			got, err := ParseCombo(tt.combo, tt.goos)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCombo error = %v, wantErr %v", err, tt.wantErr)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("ParseCombo = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStopWithoutStart(t *testing.T) {
	m := NewHotkeyManager(Binding{Combo: "CmdOrCtrl+H", Action: func() {}})
	m.Stop()
}
