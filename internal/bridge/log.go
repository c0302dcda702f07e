package bridge

import (
	"log"
	"sync/atomic"
)

var logger atomic.Pointer[log.Logger]

// SetLogger sets the logger used for registration and dispatch diagnostics.
// A nil logger disables logging.
func SetLogger(l *log.Logger) {
	logger.Store(l)
}

func logf(format string, args ...any) {
	if l := logger.Load(); l != nil {
		l.Printf("bridge: "+format, args...)
	}
}
