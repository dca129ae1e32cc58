package frontend

import (
	"html/template"
	"sync"
)

// Container is the page region every loader renders into. Each Begin hands
// out a newer token and a Commit carrying an older one is dropped, so the
// last loader started is the one whose output is kept.
type Container struct {
	mu      sync.Mutex
	token   uint64
	content template.HTML
	notice  string
}

func NewContainer() *Container {
	return &Container{}
}

// Begin replaces the content with a loading message and returns the token
// the matching Commit must present.
func (c *Container) Begin(loading template.HTML) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token++
	c.content = loading
	return c.token
}

// Commit writes html if no later Begin happened. It reports whether the
// write was kept.
func (c *Container) Commit(token uint64, html template.HTML) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.token {
		return false
	}
	c.content = html
	return true
}

func (c *Container) Content() template.HTML {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.content
}

// Notify sets the alert shown above the content.
func (c *Container) Notify(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notice = msg
}

func (c *Container) Notice() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notice
}
