package debug

import (
	"fmt"
	"log"
	"time"
)

// Header prints a debug header if debugging is enabled
func Header(enabled bool) {
	if enabled {
		log.Printf("=== DEBUG START ===")
	}
}

// Footer prints a debug footer if debugging is enabled
func Footer(enabled bool) {
	if enabled {
		log.Printf("=== DEBUG END ===")
	}
}

// Output prints debug output if debugging is enabled
func Output(enabled bool, format string, args ...interface{}) {
	if enabled {
		timestamp := time.Now().Format("15:04:05.000")
		message := fmt.Sprintf(format, args...)
		log.Printf("[%s] %s", timestamp, message)
	}
}

// Timing measures and logs execution time of a pipeline stage if debugging
// is enabled. Use as: defer debug.Timing(enabled, "matching")()
func Timing(enabled bool, stage string) func() {
	if !enabled {
		return func() {}
	}

	start := time.Now()
	Output(enabled, "Starting: %s", stage)

	return func() {
		duration := time.Since(start)
		Output(enabled, "Completed: %s (took %v)", stage, duration)
	}
}
