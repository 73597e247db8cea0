package runner

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/goliatone/go-errors"
)

// panicError converts a recovered panic into a branch failure carrying a
// cleaned stack trace in its metadata. Only variant branches recover;
// primary branch panics unwind to the caller untouched.
func panicError(rec any) error {
	stack := make([]byte, 8096)
	n := runtime.Stack(stack, false)
	stack = cleanStackTrace(stack[:n])

	err := errors.New(fmt.Sprintf("branch panicked: %v", rec), errors.CategoryHandler).
		WithTextCode("BRANCH_PANIC").
		WithMetadata(map[string]any{"stack": string(stack)})
	if src, ok := rec.(error); ok {
		err.Source = src
	}
	return err
}

func cleanStackTrace(stack []byte) []byte {
	lines := strings.Split(string(stack), "\n")

	// find the panic line and drop everything through its file reference
	panicLineIndex := -1
	for i, line := range lines {
		if strings.Contains(line, "panic(") {
			panicLineIndex = i
			break
		}
	}

	if panicLineIndex >= 0 && panicLineIndex+2 < len(lines) {
		lines = lines[panicLineIndex+2:]
	}

	return []byte(strings.Join(lines, "\n"))
}
