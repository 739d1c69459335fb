package telemetry

import (
	"os"
)

const observeEnv = "THREADEXEC_OBSERVE_JSON"

// Read once at process start. Mid-run environment changes only take effect
// through the override in ObserveEnabled.
var observeEnabled = os.Getenv(observeEnv) == "1"

// ObserveEnabled reports whether JSONL emission is on.
func ObserveEnabled() bool {
	// Allow tests to enable emission mid-run.
	if os.Getenv(observeEnv) == "1" {
		return true
	}
	return observeEnabled
}
