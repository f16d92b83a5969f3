package logger

import (
	"fmt"
	"log"
	"os"
	"regexp"
)

// StdLogger is the default Logger, backed by the standard library's log
// package. Debug output is gated on the DEBUG environment variable so
// the hot chunk-processing path stays quiet in production.
type StdLogger struct{}

// Default is shared by every component that isn't given an explicit
// Logger via a WithLogger option.
var Default Logger = StdLogger{}

func debugEnabled() bool {
	return os.Getenv("DEBUG") == "true"
}

// hostPortRegex redacts host:port targets (sequencer dial addresses) from
// log lines when SAFE_LOGS is set, the same opt-in the teacher's logger
// applies to stream URLs.
var hostPortRegex = regexp.MustCompile(`[a-zA-Z0-9.-]+:\d{2,5}\b`)

func safeLog(msg string) string {
	if os.Getenv("SAFE_LOGS") != "true" {
		return msg
	}
	return hostPortRegex.ReplaceAllString(msg, "[redacted host]")
}

func (StdLogger) Log(msg string) { log.Print("[INFO] " + safeLog(msg)) }

func (StdLogger) Logf(format string, v ...any) {
	log.Print("[INFO] " + safeLog(fmt.Sprintf(format, v...)))
}

func (StdLogger) Debug(msg string) {
	if debugEnabled() {
		log.Print("[DEBUG] " + safeLog(msg))
	}
}

func (StdLogger) Debugf(format string, v ...any) {
	if debugEnabled() {
		log.Print("[DEBUG] " + safeLog(fmt.Sprintf(format, v...)))
	}
}

func (StdLogger) Warn(msg string) { log.Print("[WARN] " + safeLog(msg)) }

func (StdLogger) Warnf(format string, v ...any) {
	log.Print("[WARN] " + safeLog(fmt.Sprintf(format, v...)))
}

func (StdLogger) Error(msg string) { log.Print("[ERROR] " + safeLog(msg)) }

func (StdLogger) Errorf(format string, v ...any) {
	log.Print("[ERROR] " + safeLog(fmt.Sprintf(format, v...)))
}

func (StdLogger) Fatal(msg string) { log.Fatal("[FATAL] " + safeLog(msg)) }

func (StdLogger) Fatalf(format string, v ...any) {
	log.Fatal("[FATAL] " + safeLog(fmt.Sprintf(format, v...)))
}
