package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"murmur/config"
	"murmur/encoder"
)

// WhisperCLI runs the whisper.cpp command-line binary on a temporary WAV
// file. Each utterance is one subprocess invocation.
type WhisperCLI struct {
	binary  string
	model   string
	lang    string
	threads int
}

func NewWhisperCLI(cfg config.TranscriberConfig) (*WhisperCLI, error) {
	binary, err := exec.LookPath("whisper-cli")
	if err != nil {
		return nil, fmt.Errorf("whisper-cli not found in PATH (install whisper.cpp or set GROQ_API_KEY)")
	}
	model, err := ResolveModel(cfg.Model)
	if err != nil {
		return nil, err
	}
	threads := cfg.Threads
	if threads <= 0 {
		threads = 4
	}
	return &WhisperCLI{
		binary:  binary,
		model:   model,
		lang:    cfg.Language,
		threads: threads,
	}, nil
}

// ResolveModel maps a model name or path to a ggml model file. An explicit
// path is used as-is; a bare name like "medium" is searched in the usual
// whisper.cpp model directories.
func ResolveModel(model string) (string, error) {
	if strings.ContainsRune(model, os.PathSeparator) || strings.HasSuffix(model, ".bin") {
		if _, err := os.Stat(model); err != nil {
			return "", fmt.Errorf("model file %s: %w", model, err)
		}
		return model, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	candidates := []string{
		filepath.Join(home, ".local", "share", "murmur", "models", "ggml-"+model+".bin"),
		filepath.Join(home, ".cache", "whisper.cpp", "ggml-"+model+".bin"),
		filepath.Join("/usr", "share", "whisper.cpp", "ggml-"+model+".bin"),
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", fmt.Errorf("model %q not found (looked in %s)", model, strings.Join(candidates, ", "))
}

func (w *WhisperCLI) Name() string { return "whisper-cli" }

func (w *WhisperCLI) PreferredFormat() encoder.Format { return encoder.FormatWAV }

// BinaryPath returns the resolved whisper-cli path, for diagnostics.
func (w *WhisperCLI) BinaryPath() string { return w.binary }

// ModelPath returns the resolved model file, for diagnostics.
func (w *WhisperCLI) ModelPath() string { return w.model }

func (w *WhisperCLI) Transcribe(ctx context.Context, audio []byte, format encoder.Format) (*Result, error) {
	if format != encoder.FormatWAV {
		return nil, fmt.Errorf("whisper-cli needs wav input, got %s", format)
	}

	f, err := os.CreateTemp("", "murmur-*.wav")
	if err != nil {
		return nil, fmt.Errorf("temp wav: %w", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(audio); err != nil {
		f.Close()
		return nil, fmt.Errorf("temp wav: %w", err)
	}
	f.Close()

	args := []string{
		"-m", w.model,
		"-f", f.Name(),
		"-t", strconv.Itoa(w.threads),
		"--no-prints",
		"--no-timestamps",
	}
	if w.lang != "" {
		args = append(args, "-l", w.lang)
	}

	cmd := exec.CommandContext(ctx, w.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("whisper-cli: %s", msg)
	}

	return &Result{Text: strings.TrimSpace(stdout.String())}, nil
}
