package run

import (
	"github.com/hupe1980/simmat/resource"
)

// ProgressFunc receives coarse progress updates. stage names the phase
// (for example "census", "transpose", "similarity"), done and total count
// the units of work in that phase. total may be 0 when unknown.
type ProgressFunc func(stage string, done, total int64)

// Context bundles the dependencies shared by the stages of a matrix job.
// The zero value is usable.
type Context struct {
	Logger    *Logger
	Metrics   MetricsCollector
	Progress  ProgressFunc
	Resources *resource.Controller
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger.
func WithLogger(l *Logger) Option {
	return func(c *Context) {
		c.Logger = l
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m MetricsCollector) Option {
	return func(c *Context) {
		c.Metrics = m
	}
}

// WithProgress sets the progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Context) {
		c.Progress = fn
	}
}

// WithResources sets the resource controller.
func WithResources(rc *resource.Controller) Option {
	return func(c *Context) {
		c.Resources = rc
	}
}

// New creates a Context.
func New(opts ...Option) *Context {
	c := &Context{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Log returns the configured logger or a no-op logger.
func (c *Context) Log() *Logger {
	if c == nil || c.Logger == nil {
		return NoopLogger()
	}
	return c.Logger
}

// Collector returns the configured metrics collector or a no-op collector.
func (c *Context) Collector() MetricsCollector {
	if c == nil || c.Metrics == nil {
		return NoopMetricsCollector{}
	}
	return c.Metrics
}

// Controller returns the configured resource controller. A nil controller
// imposes no limits.
func (c *Context) Controller() *resource.Controller {
	if c == nil {
		return nil
	}
	return c.Resources
}

// Report forwards a progress update to the callback, if any.
func (c *Context) Report(stage string, done, total int64) {
	if c == nil || c.Progress == nil {
		return
	}
	c.Progress(stage, done, total)
}
