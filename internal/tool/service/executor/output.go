package executor

import (
	"bytes"
	"sync"

	"github.com/Cyclone1070/deskpal/internal/tool/helper/content"
)

// binaryPlaceholder replaces output that looks like binary data.
const binaryPlaceholder = "[binary output]"

// collector keeps the first maxBytes of a stream and drops the rest.
type collector struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	maxBytes  int
	truncated bool
	binary    bool
	sniffed   bool
}

func newCollector(maxBytes int) *collector {
	return &collector{maxBytes: maxBytes}
}

func (c *collector) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.sniffed {
		c.sniffed = true
		if content.IsBinary(p) {
			c.binary = true
		}
	}
	if c.binary {
		return len(p), nil
	}

	room := c.maxBytes - c.buf.Len()
	if room <= 0 {
		c.truncated = true
		return len(p), nil
	}
	chunk := p
	if len(chunk) > room {
		chunk = chunk[:room]
		c.truncated = true
	}
	c.buf.Write(chunk)
	return len(p), nil
}

func (c *collector) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.binary {
		return binaryPlaceholder
	}
	return c.buf.String()
}

func (c *collector) Truncated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.truncated
}
