package workers

import (
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	t.Setenv(EnvOverride, "")

	availableCPU := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		minExpect  int
		maxExpect  int
	}{
		{"CPU-bound (1.0x)", 1.0, 0, 1, availableCPU},
		{"External (2.0x)", 2.0, 0, 1, availableCPU * 2},
		{"Limit lower than computed", 2.0, 1, 1, 1},
		{"Tiny multiplier never below one", 0.01, 0, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Count(tt.multiplier, tt.limit)
			if got < tt.minExpect || got > tt.maxExpect {
				t.Errorf("Count(%v, %d) = %d, want in [%d, %d]", tt.multiplier, tt.limit, got, tt.minExpect, tt.maxExpect)
			}
		})
	}
}

func TestCountWithEnvOverride(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		limit    int
		expected int
	}{
		{"Valid override", "8", 0, 8},
		{"Override capped by limit", "20", 10, 10},
		{"Override below limit", "5", 10, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvOverride, tt.envValue)
			if got := Count(1.0, tt.limit); got != tt.expected {
				t.Errorf("Count() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestCountIgnoresInvalidOverride(t *testing.T) {
	for _, v := range []string{"invalid", "0", "-5"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv(EnvOverride, v)
			if got := Count(1.0, 0); got != max(1, runtime.GOMAXPROCS(0)) {
				t.Errorf("Count() = %d with override %q, want GOMAXPROCS", got, v)
			}
		})
	}
}

func TestForHelpers(t *testing.T) {
	t.Setenv(EnvOverride, "")
	if ForCPU(0) > ForExternal(0) {
		t.Errorf("ForCPU(0)=%d > ForExternal(0)=%d", ForCPU(0), ForExternal(0))
	}
	if got := ForExternal(1); got != 1 {
		t.Errorf("ForExternal(1) = %d, want 1", got)
	}
}
