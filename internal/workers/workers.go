package workers

import (
	"os"
	"runtime"
	"strconv"
)

// EnvOverride names the environment variable that pins the worker count.
const EnvOverride = "PREVIEW_WORKERS"

// Count returns a worker count for preview generation. GOMAXPROCS is used
// instead of runtime.NumCPU so container CPU limits are respected.
//
// multiplier scales the CPU count: 1.0 for decode/encode work, 2.0 for work
// that mostly waits on external tools such as LibreOffice.
// limit caps the result; 0 means no cap. PREVIEW_WORKERS, when it holds a
// positive integer, replaces the computed value (still capped by limit).
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(EnvOverride); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			return capAt(count, limit)
		}
	}

	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	if workers < 1 {
		workers = 1
	}
	return capAt(workers, limit)
}

func capAt(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}

// ForCPU returns worker count for image decoding and PDF rendering.
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForExternal returns worker count for jobs dominated by external processes.
func ForExternal(limit int) int {
	return Count(2.0, limit)
}
