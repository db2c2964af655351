package render

import (
	"encoding/json"
	"html/template"
	"strings"
	"sync"

	"github.com/jmylchreest/supervideo/internal/embed"
)

// QueueVar is the browser global the loader script drains.
const QueueVar = "supervideoQueue"

// ScriptLoader collects player calls for emission at the end of a page.
type ScriptLoader interface {
	Call(call embed.ScriptCall)
	Calls() []embed.ScriptCall
	Scripts() (string, error)
}

// Collector is a ScriptLoader that emits one inline script per call. It is
// safe for concurrent use but is meant to live for a single page.
type Collector struct {
	loaderURL string

	mu    sync.Mutex
	calls []embed.ScriptCall
}

// NewCollector creates a Collector. When loaderURL is set, a script tag for
// it is emitted ahead of the queued calls.
func NewCollector(loaderURL string) *Collector {
	return &Collector{loaderURL: loaderURL}
}

// Call queues call.
func (c *Collector) Call(call embed.ScriptCall) {
	c.mu.Lock()
	c.calls = append(c.calls, call)
	c.mu.Unlock()
}

// Calls returns a copy of the queued calls.
func (c *Collector) Calls() []embed.ScriptCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]embed.ScriptCall, len(c.calls))
	copy(out, c.calls)
	return out
}

// Scripts returns the script markup for every queued call.
func (c *Collector) Scripts() (string, error) {
	calls := c.Calls()

	var sb strings.Builder
	if c.loaderURL != "" && len(calls) > 0 {
		sb.WriteString(`<script src="`)
		sb.WriteString(template.HTMLEscapeString(c.loaderURL))
		sb.WriteString(`"></script>`)
	}
	for _, call := range calls {
		// json.Marshal escapes <, > and & so the payload cannot close the tag.
		payload, err := json.Marshal(call)
		if err != nil {
			return "", err
		}
		sb.WriteString("<script>(window.")
		sb.WriteString(QueueVar)
		sb.WriteString("=window.")
		sb.WriteString(QueueVar)
		sb.WriteString("||[]).push(")
		sb.Write(payload)
		sb.WriteString(");</script>")
	}
	return sb.String(), nil
}
