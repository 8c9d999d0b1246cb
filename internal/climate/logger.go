package climate

import (
	"sync"

	"github.com/rs/zerolog"
)

var (
	logger   = zerolog.Nop()
	loggerMu sync.RWMutex
)

// SetLogger sets the logger used while loading calibration data.
// Calculations never log.
func SetLogger(l zerolog.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l.With().Str("component", "climate").Logger()
}

func currentLogger() *zerolog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	l := logger
	return &l
}
