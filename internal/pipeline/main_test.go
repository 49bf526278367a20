package pipeline_test

import (
	"testing"

	"go.uber.org/goleak"
)

// Run spawns timers and goroutines; every test must leave none behind.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
