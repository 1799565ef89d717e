package ffmpegdev

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/smazurov/shutterdeck/internal/device"
	"github.com/smazurov/shutterdeck/internal/logging"
)

const (
	chunkSize       = 32 << 10
	gracefulTimeout = 5 * time.Second
	killTimeout     = 5 * time.Second
)

// Recorder records fragmented MP4 through ffmpeg, one recording at a time.
type Recorder struct {
	cfg    Config
	logger logging.Logger

	mu  sync.Mutex
	run *recording
}

type recording struct {
	cmd       *exec.Cmd
	chunksEnd chan struct{}
	exited    chan error
	lastErr   chan string
}

// NewRecorder creates a recorder.
func NewRecorder(cfg Config, logger logging.Logger) *Recorder {
	if logger == nil {
		logger = logging.GetLogger("device")
	}
	return &Recorder{cfg: cfg, logger: logger}
}

// MIMEType reports the container produced.
func (r *Recorder) MIMEType() string {
	return "video/mp4"
}

// Start launches ffmpeg and feeds its stdout to onChunk.
func (r *Recorder) Start(stream device.Stream, onChunk device.ChunkFunc) error {
	const op = "start recording"
	st, err := asStream(op, stream)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.run != nil {
		return device.Failure(op, errors.New("recording already in progress"))
	}

	cmd := exec.Command(r.cfg.ffmpeg(), recordArgs(st.input, r.cfg.Encoder)...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return device.Failure(op, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return device.Failure(op, err)
	}
	if err := cmd.Start(); err != nil {
		return device.Failure(op, err)
	}

	rec := &recording{
		cmd:       cmd,
		chunksEnd: make(chan struct{}),
		exited:    make(chan error, 1),
		lastErr:   make(chan string, 1),
	}
	go func() {
		defer close(rec.chunksEnd)
		pump(stdout, onChunk)
	}()
	go func() {
		rec.lastErr <- logOutput(stderr, r.logger)
	}()
	go func() {
		// Wait closes the pipes, so both readers must be done first.
		<-rec.chunksEnd
		msg := <-rec.lastErr
		rec.lastErr <- msg
		rec.exited <- cmd.Wait()
	}()

	r.run = rec
	r.logger.Info("Recording process started", "pid", cmd.Process.Pid, "stream_id", st.ID())
	return nil
}

func pump(r io.Reader, onChunk device.ChunkFunc) {
	buf := make([]byte, chunkSize)
	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			onChunk(buf[:n])
		}
		if err != nil {
			return
		}
	}
}

// Stop interrupts ffmpeg so it finishes the file, force-killing it when it
// does not exit in time. It returns after the last chunk was delivered.
func (r *Recorder) Stop(ctx context.Context) error {
	r.mu.Lock()
	rec := r.run
	r.run = nil
	r.mu.Unlock()
	if rec == nil {
		return nil
	}

	if err := rec.cmd.Process.Signal(syscall.SIGINT); err != nil && !errors.Is(err, os.ErrProcessDone) {
		r.logger.Warn("Failed to send SIGINT", "error", err)
	}

	var waitErr error
	select {
	case waitErr = <-rec.exited:
	case <-time.After(gracefulTimeout):
		waitErr = r.kill(rec, "graceful shutdown timeout")
	case <-ctx.Done():
		waitErr = r.kill(rec, "stop cancelled")
	}
	<-rec.chunksEnd

	if waitErr == nil || interrupted(waitErr) {
		r.logger.Info("Recording process stopped")
		return nil
	}
	select {
	case msg := <-rec.lastErr:
		if msg != "" {
			waitErr = fmt.Errorf("%w: %s", waitErr, msg)
		}
	default:
	}
	return device.Failure("stop recording", waitErr)
}

func (r *Recorder) kill(rec *recording, reason string) error {
	r.logger.Warn("Forcing recording process kill", "reason", reason)
	if err := rec.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		r.logger.Error("Failed to kill recording process", "error", err)
	}
	select {
	case <-rec.exited:
	case <-time.After(killTimeout):
		r.logger.Error("Recording process did not exit after kill")
	}
	return errors.New("recording process killed: " + reason)
}

// interrupted reports an exit caused by our SIGINT. ffmpeg exits with 255
// after finishing the file on SIGINT.
func interrupted(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	if exitErr.ExitCode() == 255 {
		return true
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok {
		return ws.Signaled() && ws.Signal() == syscall.SIGINT
	}
	return false
}
