package memory

import (
	"runtime/debug"
	"testing"
)

// restoreLimit puts the runtime memory limit back after a test changes it.
func restoreLimit(t *testing.T) {
	t.Helper()
	old := debug.SetMemoryLimit(-1)
	t.Cleanup(func() { debug.SetMemoryLimit(old) })
}

func TestConfigure(t *testing.T) {
	defaultRatio := DefaultRatio
	tests := []struct {
		name       string
		limit      int64
		ratio      float64
		wantSource string
		wantLimit  int64
		wantRatio  float64
	}{
		{"no limit", 0, 0.85, SourceNone, 0, 0},
		{"default ratio", 1 << 30, DefaultRatio, SourceConfig, int64(float64(1<<30) * defaultRatio), DefaultRatio},
		{"custom ratio", 1000, 0.5, SourceConfig, 500, 0.5},
		{"ratio above one falls back", 1000, 1.5, SourceConfig, 850, DefaultRatio},
		{"zero ratio falls back", 1000, 0, SourceConfig, 850, DefaultRatio},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GOMEMLIMIT", "")
			restoreLimit(t)

			got := Configure(tt.limit, tt.ratio)
			if got.Source != tt.wantSource {
				t.Errorf("Source = %q, want %q", got.Source, tt.wantSource)
			}
			if got.GoMemLimit != tt.wantLimit {
				t.Errorf("GoMemLimit = %d, want %d", got.GoMemLimit, tt.wantLimit)
			}
			if got.Ratio != tt.wantRatio {
				t.Errorf("Ratio = %v, want %v", got.Ratio, tt.wantRatio)
			}
			if got.Configured != (tt.wantLimit > 0) {
				t.Errorf("Configured = %v", got.Configured)
			}
			if tt.wantLimit > 0 {
				if applied := debug.SetMemoryLimit(-1); applied != tt.wantLimit {
					t.Errorf("runtime limit = %d, want %d", applied, tt.wantLimit)
				}
			}
		})
	}
}

func TestConfigure_EnvironmentWins(t *testing.T) {
	t.Setenv("GOMEMLIMIT", "512MiB")
	restoreLimit(t)
	debug.SetMemoryLimit(512 << 20)

	got := Configure(4<<30, 0.5)
	if got.Source != SourceEnv {
		t.Errorf("Source = %q, want %q", got.Source, SourceEnv)
	}
	if got.GoMemLimit != 512<<20 {
		t.Errorf("GoMemLimit = %d, want %d", got.GoMemLimit, 512<<20)
	}
	if applied := debug.SetMemoryLimit(-1); applied != 512<<20 {
		t.Errorf("runtime limit changed to %d", applied)
	}
}

func TestFormatBytes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1 << 20, "1.0 MiB"},
		{5 << 30, "5.0 GiB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
