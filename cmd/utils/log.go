package utils

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
)

var (
	// debugMu guards debugOpened, debugFile and debugLogger.
	debugMu     sync.Mutex
	debugOpened bool
	debugFile   *os.File
	debugLogger *log.Logger
	enableDebug atomic.Bool

	// Order matters: specific patterns run before generic ones.
	sensitivePatterns = []struct {
		pattern     *regexp.Regexp
		replacement string
	}{
		{regexp.MustCompile(`\beyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`), "[REDACTED-JWT]"},
		{regexp.MustCompile(`(?i)(authorization[=:\s]+['"]?)(Basic|Bearer)\s+[a-zA-Z0-9\-_\.=]+`), "${1}${2} [REDACTED]"},
		{regexp.MustCompile(`(?i)(bearer\s+)[a-zA-Z0-9\-_\.]+`), "${1}[REDACTED]"},
		{regexp.MustCompile(`(?i)(api[_-]?key[=:\s]+['"]?)[a-zA-Z0-9\-_]{16,}`), "${1}[REDACTED]"},
		{regexp.MustCompile(`(?i)(password[=:\s]+['"]?)[^\s&'"]+`), "${1}[REDACTED]"},
		{regexp.MustCompile(`(?i)(token[=:\s]+['"]?)[a-zA-Z0-9\-_\.]{16,}`), "${1}[REDACTED]"},
		{regexp.MustCompile(`(?i)(session[_-]?id[=:\s]+['"]?)[a-zA-Z0-9\-_]{16,}`), "${1}[REDACTED]"},
		{regexp.MustCompile(`(?i)(cookie[=:\s]+['"]?)[^;\n]+`), "${1}[REDACTED]"},
		// Visitors type identity and phone numbers into the kiosk; keep them
		// out of the debug log.
		{regexp.MustCompile(`\b[1-9][0-9]{10}\b`), "[REDACTED-TCKN]"},
		{regexp.MustCompile(`(?:\+90[ -]?)?\b0?5[0-9]{2}[ -]?[0-9]{3}[ -]?[0-9]{2}[ -]?[0-9]{2}\b`), "[REDACTED-PHONE]"},
	}
)

// InitDebugLogger opens the shared debug log through Bubble Tea's LogToFile.
// An empty path means debug.log in the data directory. Safe to call more
// than once and from several goroutines; only the first call opens a file.
func InitDebugLogger(path string, debug bool) error {
	enableDebug.Store(debug)
	debugMu.Lock()
	defer debugMu.Unlock()
	return openDebugLogLocked(path, debug)
}

// openDebugLogLocked must be called with debugMu held.
func openDebugLogLocked(path string, debug bool) error {
	if debugOpened {
		return nil
	}
	debugOpened = true

	if path == "" {
		path = defaultLogPath()
	}
	if debug {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		fmt.Fprintf(os.Stderr, "[DEBUG] Logging to: %s\n", abs)
	}

	f, err := tea.LogToFile(path, "tibbi")
	if err != nil {
		return err
	}
	debugFile = f
	debugLogger = log.New(f, "", log.LstdFlags)
	return nil
}

func defaultLogPath() string {
	dir, err := EnsureDataDir()
	if err != nil {
		return filepath.Join(GetEffectiveCWD(), "debug.log")
	}
	return filepath.Join(dir, "debug.log")
}

// DebugEnabled reports whether --debug or DEBUG turned on stderr echo.
func DebugEnabled() bool { return enableDebug.Load() }

// CloseDebugLogger flushes and closes the debug log file.
func CloseDebugLogger() {
	debugMu.Lock()
	defer debugMu.Unlock()
	closeDebugLogLocked()
}

func closeDebugLogLocked() {
	if debugFile != nil {
		_ = debugFile.Sync()
		_ = debugFile.Close()
	}
}

// ResetDebugLoggerForTesting lets tests reopen the logger at another path.
func ResetDebugLoggerForTesting() {
	debugMu.Lock()
	defer debugMu.Unlock()
	closeDebugLogLocked()
	debugOpened = false
	debugFile = nil
	debugLogger = nil
}

// syncDebugLog flushes the open debug log, if any.
func syncDebugLog() error {
	debugMu.Lock()
	defer debugMu.Unlock()
	if debugFile == nil {
		return nil
	}
	return debugFile.Sync()
}

func sanitizeLogMessage(msg string) string {
	for _, sp := range sensitivePatterns {
		msg = sp.pattern.ReplaceAllString(msg, sp.replacement)
	}
	return msg
}

// LogDebug writes msg to the debug log after redaction. With debug enabled
// it is echoed through the output manager as well.
func LogDebug(msg string) {
	debug := enableDebug.Load()

	debugMu.Lock()
	var initErr error
	if !debugOpened {
		initErr = openDebugLogLocked("", debug)
	}
	logger := debugLogger
	debugMu.Unlock()

	if initErr != nil {
		OutputError("failed to initialize debug logger: %v\n", initErr)
	}
	if logger == nil {
		return
	}

	// log.Logger serializes its own writes.
	sanitized := sanitizeLogMessage(msg)
	logger.Println(sanitized)
	if debug {
		sendMessage(DebugMessage, "%s", sanitized)
	}
}
