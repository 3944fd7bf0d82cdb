package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"formassist/internal/common/errors"
	"formassist/internal/common/logger"
)

// console renders notices on the terminal and asks for confirmations.
type console struct {
	out       io.Writer
	in        *bufio.Reader
	assumeYes bool
	log       logger.Logger

	mu        sync.Mutex
	shownFail bool
}

func newConsole(in io.Reader, out io.Writer, assumeYes bool, log logger.Logger) *console {
	return &console{out: out, in: bufio.NewReader(in), assumeYes: assumeYes, log: log}
}

func (c *console) Notify(n errors.Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case n.Blocking:
		fmt.Fprintf(c.out, "!! %s\n", n.Message)
	case n.Severity == errors.SeverityError:
		fmt.Fprintf(c.out, "error: %s\n", n.Message)
	case n.Severity == errors.SeveritySuccess:
		fmt.Fprintf(c.out, "ok: %s\n", n.Message)
	default:
		fmt.Fprintf(c.out, "%s\n", n.Message)
	}
	if n.Severity == errors.SeverityError {
		c.shownFail = true
	}
}

// reported tells whether a failure has already been shown to the user.
func (c *console) reported() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shownFail
}

func (c *console) Confirm(prompt string) bool {
	if c.assumeYes {
		return true
	}
	fmt.Fprintf(c.out, "%s [y/N]: ", prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// waitEnter blocks until a line is read from the terminal.
func (c *console) waitEnter(prompt string) {
	fmt.Fprint(c.out, prompt)
	_, _ = c.in.ReadString('\n')
}

func (c *console) Navigate(route string) {
	c.log.Debug("Navigate", map[string]interface{}{"route": route})
}
