package classifier

import (
	"fmt"

	"github.com/vyrodovalexey/avaguard/internal/observability"
)

// UnmatchedHook is called with every URL that matched no service.
type UnmatchedHook func(url string)

// Classifier resolves URLs against a Table and reports misses.
type Classifier struct {
	table   *Table
	hook    UnmatchedHook
	hookSet bool
	logger  observability.Logger
	metrics *Metrics
}

// Option is a functional option for the classifier.
type Option func(*Classifier)

// WithLogger sets the logger for the classifier.
func WithLogger(logger observability.Logger) Option {
	return func(c *Classifier) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics for the classifier.
func WithMetrics(metrics *Metrics) Option {
	return func(c *Classifier) {
		c.metrics = metrics
	}
}

// WithUnmatchedHook replaces the default miss handler. A nil hook disables
// miss reporting.
func WithUnmatchedHook(hook UnmatchedHook) Option {
	return func(c *Classifier) {
		c.hook = hook
		c.hookSet = true
	}
}

// New creates a classifier over table. Without WithUnmatchedHook, misses
// are logged at warn level and counted.
func New(table *Table, opts ...Option) *Classifier {
	c := &Classifier{
		table:  table,
		logger: observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if !c.hookSet {
		c.hook = c.defaultHook
	}
	return c
}

// Table returns the classifier's table.
func (c *Classifier) Table() *Table {
	return c.table
}

// Classify returns the service name for url. On a miss it returns false
// and calls the unmatched hook exactly once. It never fails; a panicking
// hook is recovered and logged.
func (c *Classifier) Classify(url string) (string, bool) {
	if name, ok := c.table.Match(url); ok {
		return name, true
	}
	c.reportMiss(url)
	return "", false
}

func (c *Classifier) reportMiss(url string) {
	if c.hook == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.metrics.RecordHookPanic()
			c.logger.Error("unmatched url hook panicked",
				observability.String("url", url),
				observability.Any("panic", r),
			)
		}
	}()
	c.hook(url)
}

func (c *Classifier) defaultHook(url string) {
	c.metrics.RecordUnclassified()
	c.logger.Warn(fmt.Sprintf("Service %s called but no metrics set up", url),
		observability.String("url", url),
	)
}
