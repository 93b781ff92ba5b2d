package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
)

// DefaultCommand records 16 kHz mono PCM16 from the default ALSA device to
// standard output.
var DefaultCommand = []string{"arecord", "-q", "-t", "raw", "-f", "S16_LE", "-c", "1", "-r", "16000"}

// Capture is a running recorder process. Reads return its standard output.
type Capture struct {
	name   string
	cmd    *exec.Cmd
	stdout io.ReadCloser
	logger *slog.Logger

	closeOnce sync.Once
	closeErr  error
	stderr    sync.WaitGroup
}

// StartCapture starts the recorder described by argv. The process is
// killed when ctx is done or Close is called.
func StartCapture(ctx context.Context, argv ...string) (*Capture, error) {
	return StartCaptureWithLogger(ctx, slog.Default(), argv...)
}

// StartCaptureWithLogger is StartCapture with an explicit logger for the
// recorder's standard error.
func StartCaptureWithLogger(ctx context.Context, logger *slog.Logger, argv ...string) (*Capture, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, errors.New("stream: empty capture command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stream: capture stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stream: capture stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("stream: start %s: %w", argv[0], err)
	}

	c := &Capture{
		name:   argv[0],
		cmd:    cmd,
		stdout: stdout,
		logger: logger,
	}
	c.stderr.Add(1)
	go c.logStderr(stderr)
	logger.Debug("capture started", "command", strings.Join(argv, " "), "pid", cmd.Process.Pid)
	return c, nil
}

// Name returns the recorder executable.
func (c *Capture) Name() string { return c.name }

// Read reads raw audio from the recorder.
func (c *Capture) Read(p []byte) (int, error) {
	return c.stdout.Read(p)
}

// Close stops the recorder and waits for it to exit.
func (c *Capture) Close() error {
	c.closeOnce.Do(func() {
		if c.cmd.Process != nil {
			c.cmd.Process.Kill()
		}
		c.stderr.Wait()
		err := c.cmd.Wait()
		var exit *exec.ExitError
		if err != nil && !errors.As(err, &exit) {
			c.closeErr = err
		}
	})
	return c.closeErr
}

func (c *Capture) logStderr(r io.Reader) {
	defer c.stderr.Done()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			c.logger.Warn("capture", "command", c.name, "stderr", line)
		}
	}
}
