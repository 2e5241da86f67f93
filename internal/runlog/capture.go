// Package runlog captures the execution log of one run so it can be attached
// to the administrative email.
package runlog

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Capture buffers everything written to it. It satisfies io.Writer so it can
// sit behind the logger next to stderr.
type Capture struct {
	mu  sync.Mutex
	buf bytes.Buffer
	id  string
}

// NewCapture creates an empty capture with a fresh run id.
func NewCapture() *Capture {
	return &Capture{id: uuid.NewString()}
}

// Write appends p to the buffer. Always succeeds.
func (c *Capture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

// RunID identifies this run in log lines and reports.
func (c *Capture) RunID() string { return c.id }

// Bytes returns a copy of everything captured so far.
func (c *Capture) Bytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return bytes.Clone(c.buf.Bytes())
}

// Len returns the number of captured bytes.
func (c *Capture) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Len()
}

// Filename returns the attachment name for the captured log, stamped with
// the given time.
func (c *Capture) Filename(now time.Time) string {
	return fmt.Sprintf("etapprover_log_%s.txt", now.Format("20060102_150405"))
}
