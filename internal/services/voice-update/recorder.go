package voiceupdate

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"
)

// FileRecorder replays a prerecorded WAV file as the captured clip.
type FileRecorder struct {
	Path string
}

func (r *FileRecorder) Start(ctx context.Context) (Recording, error) {
	if _, err := os.Stat(r.Path); err != nil {
		return nil, err
	}
	return fileRecording{path: r.Path}, nil
}

type fileRecording struct {
	path string
}

func (f fileRecording) Stop() ([]byte, error) {
	return os.ReadFile(f.path)
}

// CommandRecorder captures audio from an external program that writes WAV
// to stdout, e.g. `arecord -q -f cd -t wav -`. The program is interrupted on
// Stop and killed once MaxDuration passes.
type CommandRecorder struct {
	Command     string
	Args        []string
	MaxDuration time.Duration
	StopGrace   time.Duration
}

func (r *CommandRecorder) Start(ctx context.Context) (Recording, error) {
	if r.Command == "" {
		return nil, fmt.Errorf("no capture command configured")
	}
	limit := r.MaxDuration
	if limit <= 0 {
		limit = time.Minute
	}
	grace := r.StopGrace
	if grace <= 0 {
		grace = 2 * time.Second
	}

	// The capture outlives the call that started it.
	cctx, cancel := context.WithTimeout(context.Background(), limit)
	rec := &commandRecording{cancel: cancel, grace: grace, done: make(chan struct{})}
	rec.cmd = exec.CommandContext(cctx, r.Command, r.Args...)
	rec.cmd.Stdout = &rec.out
	rec.cmd.Stderr = &rec.errOut

	if err := rec.cmd.Start(); err != nil {
		cancel()
		return nil, err
	}
	go func() {
		rec.waitErr = rec.cmd.Wait()
		close(rec.done)
	}()
	return rec, nil
}

type commandRecording struct {
	cmd     *exec.Cmd
	cancel  context.CancelFunc
	grace   time.Duration
	out     bytes.Buffer
	errOut  bytes.Buffer
	done    chan struct{}
	waitErr error
	once    sync.Once
}

func (c *commandRecording) Stop() ([]byte, error) {
	c.once.Do(func() {
		select {
		case <-c.done:
		default:
			_ = c.cmd.Process.Signal(os.Interrupt)
			select {
			case <-c.done:
			case <-time.After(c.grace):
				c.cancel()
				<-c.done
			}
		}
		c.cancel()
	})

	if c.out.Len() == 0 {
		if c.waitErr != nil {
			return nil, fmt.Errorf("capture produced no audio: %w (%s)", c.waitErr, bytes.TrimSpace(c.errOut.Bytes()))
		}
		return nil, fmt.Errorf("capture produced no audio")
	}
	return c.out.Bytes(), nil
}
