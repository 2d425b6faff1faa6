// Package log provides the leveled loggers used across graphcalc.
package log

import (
	"io"
	"log"
	"os"
)

var (
	Trace   *log.Logger
	Info    *log.Logger
	Warning *log.Logger
	Error   *log.Logger
)

func init() {
	trace := io.Discard
	if v := os.Getenv("GRAPHCALC_TRACE"); v == "1" || v == "true" {
		trace = os.Stderr
	}
	Init(trace, os.Stdout, os.Stderr, os.Stderr)
}

// Init points each level at its writer. Tests use it to capture output.
func Init(trace, info, warning, errw io.Writer) {
	Trace = log.New(trace, "TRACE: ", log.Ldate|log.Ltime|log.Lshortfile)
	Info = log.New(info, "INFO: ", log.Ldate|log.Ltime)
	Warning = log.New(warning, "WARNING: ", log.Ldate|log.Ltime)
	Error = log.New(errw, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
}
