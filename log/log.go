// Package log writes the daemon's diagnostics and a separate append-only
// transcript file. Dictated text never goes to the diagnostics log, only
// its length does.
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog        zerolog.Logger
	diagFile       *os.File
	transcribeFile *os.File
	logMu          sync.Mutex
	logReady       bool
	pid            int
	dir            string
)

// ResolveDir picks the log directory: the -logpath flag wins, then the
// MURMUR_LOG_PATH environment variable, then the OS default.
func ResolveDir(flagPath string) (string, error) {
	if flagPath != "" {
		return absolute(flagPath)
	}
	if envPath := os.Getenv("MURMUR_LOG_PATH"); envPath != "" {
		return absolute(envPath)
	}
	return getDefaultDir()
}

func absolute(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, path), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	transcribePath := filepath.Join(dir, "transcribe_log.txt")
	transcribeFile, err = os.OpenFile(transcribePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if transcribeFile != nil {
		transcribeFile.Close()
		transcribeFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	if logReady {
		diagLog.Info().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

// SessionStart marks the hotkey arming: capture has begun.
func SessionStart(id string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("session", id).
		Msg("session_start")
}

// SessionAbort marks a discarded session and the reason.
func SessionAbort(id, reason string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("session", id).
		Str("reason", reason).
		Msg("session_abort")
}

// SessionResult marks a finished transcription. Only the text length is
// logged here; the text itself goes to the transcript file.
func SessionResult(id, engine string, audio time.Duration, transcribe time.Duration, textLen int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("session", id).
		Str("engine", engine).
		Float64("audio_s", audio.Seconds()).
		Float64("transcribe_ms", float64(transcribe.Milliseconds())).
		Int("text_len", textLen).
		Msg("session_result")
}

// NetworkTimings records the HTTP phase breakdown of an API transcription.
func NetworkTimings(id string, dns, tls, ttfb, total time.Duration, connReused bool) {
	if !logReady {
		return
	}
	connStatus := "new"
	if connReused {
		connStatus = "reused"
	}
	diagLog.Info().
		Str("session", id).
		Str("conn", connStatus).
		Float64("dns_ms", float64(dns.Milliseconds())).
		Float64("tls_ms", float64(tls.Milliseconds())).
		Float64("ttfb_ms", float64(ttfb.Milliseconds())).
		Float64("total_ms", float64(total.Milliseconds())).
		Msg("network")
}

// TranscriptionText appends the final dictated text to the transcript file.
func TranscriptionText(text string) {
	if !logReady {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	line := fmt.Sprintf("%s\t[%d]\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, text)
	transcribeFile.WriteString(line)
}
