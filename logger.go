// PureSNMP-Go - SNMP client library for Go
// License: MIT
package puresnmp

import (
	"io"
	"log"
	"sync"
)

// Logger is the package-wide logger. Messages carry a [DEBUG], [INFO],
// [WARN] or [ERROR] prefix so a level filter (for example
// hashicorp/logutils.LevelFilter) can be installed on its writer.
// Discarded by default.
var (
	logMu  sync.RWMutex
	logger = log.New(io.Discard, "", log.LstdFlags)
)

// SetLogger replaces the package logger. Pass a logger writing to
// os.Stderr to see protocol diagnostics. Safe for concurrent use.
func SetLogger(l *log.Logger) {
	logMu.Lock()
	defer logMu.Unlock()
	if l == nil {
		l = log.New(io.Discard, "", log.LstdFlags)
	}
	logger = l
}

func logDebugf(format string, args ...any) {
	logMu.RLock()
	defer logMu.RUnlock()
	logger.Printf("[DEBUG] "+format, args...)
}

func logInfof(format string, args ...any) {
	logMu.RLock()
	defer logMu.RUnlock()
	logger.Printf("[INFO] "+format, args...)
}

func logWarnf(format string, args ...any) {
	logMu.RLock()
	defer logMu.RUnlock()
	logger.Printf("[WARN] "+format, args...)
}

func logErrorf(format string, args ...any) {
	logMu.RLock()
	defer logMu.RUnlock()
	logger.Printf("[ERROR] "+format, args...)
}
