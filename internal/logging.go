package internal

import (
	"log"
	"os"
)

func InitLogging() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
}

// Step logs one numbered pipeline step for operator visibility.
func Step(stage string, n, total int, format string, args ...any) {
	log.Printf("["+stage+"] step %d/%d: "+format, append([]any{n, total}, args...)...)
}
