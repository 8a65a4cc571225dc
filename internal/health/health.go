package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vyrodovalexey/avaguard/internal/observability"
)

// DefaultCheckTimeout bounds a full run of the registered checks.
const DefaultCheckTimeout = 5 * time.Second

// Status represents the health status.
type Status string

const (
	// StatusHealthy indicates the service is healthy.
	StatusHealthy Status = "healthy"
	// StatusUnhealthy indicates the service is unhealthy.
	StatusUnhealthy Status = "unhealthy"
	// StatusDegraded indicates the service is degraded but operational.
	StatusDegraded Status = "degraded"
)

// Check represents an individual health check result.
type Check struct {
	Status   Status `json:"status"`
	Message  string `json:"message,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// CheckFunc performs a health check.
type CheckFunc func(ctx context.Context) Check

// Info describes the running application.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version"`
	Commit      string `json:"commit,omitempty"`
	BuildTime   string `json:"buildTime,omitempty"`
	Environment string `json:"environment,omitempty"`
}

// Response is the /__health body.
type Response struct {
	Name      string           `json:"name"`
	Status    Status           `json:"status"`
	Version   string           `json:"version,omitempty"`
	Uptime    string           `json:"uptime"`
	Checks    map[string]Check `json:"checks,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Checker aggregates named health checks.
type Checker struct {
	info      Info
	startTime time.Time
	timeout   time.Duration
	logger    observability.Logger

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

// CheckerOption is a functional option for the checker.
type CheckerOption func(*Checker)

// WithTimeout sets the timeout for a run of all checks.
func WithTimeout(timeout time.Duration) CheckerOption {
	return func(c *Checker) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// NewChecker creates a new health checker. The application name is
// normalized with NormalizeName.
func NewChecker(info Info, logger observability.Logger, opts ...CheckerOption) *Checker {
	if logger == nil {
		logger = observability.NopLogger()
	}
	info.Name = NormalizeName(info.Name)

	c := &Checker{
		info:      info,
		startTime: time.Now(),
		timeout:   DefaultCheckTimeout,
		logger:    logger,
		checks:    make(map[string]CheckFunc),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Info returns the application info.
func (c *Checker) Info() Info {
	return c.info
}

// RegisterCheck registers a health check function, replacing any check
// with the same name.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// UnregisterCheck removes a health check function.
func (c *Checker) UnregisterCheck(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.checks, name)
}

// Health runs every check concurrently and aggregates the result: any
// unhealthy check makes the whole response unhealthy, otherwise any
// degraded check makes it degraded.
func (c *Checker) Health(ctx context.Context) Response {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.mu.RLock()
	names := make([]string, 0, len(c.checks))
	funcs := make([]CheckFunc, 0, len(c.checks))
	for name, fn := range c.checks {
		names = append(names, name)
		funcs = append(funcs, fn)
	}
	c.mu.RUnlock()

	results := make([]Check, len(funcs))
	var wg sync.WaitGroup
	for i, fn := range funcs {
		wg.Add(1)
		go func(i int, fn CheckFunc) {
			defer wg.Done()
			results[i] = c.run(ctx, names[i], fn)
		}(i, fn)
	}
	wg.Wait()

	response := Response{
		Name:      c.info.Name,
		Status:    StatusHealthy,
		Version:   c.info.Version,
		Uptime:    time.Since(c.startTime).Round(time.Second).String(),
		Checks:    make(map[string]Check, len(results)),
		Timestamp: time.Now().UTC(),
	}
	for i, check := range results {
		response.Checks[names[i]] = check
		switch {
		case check.Status == StatusUnhealthy:
			response.Status = StatusUnhealthy
		case check.Status == StatusDegraded && response.Status != StatusUnhealthy:
			response.Status = StatusDegraded
		}
	}
	return response
}

// run executes one check, converting a panic into an unhealthy result.
func (c *Checker) run(ctx context.Context, name string, fn CheckFunc) (check Check) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("health check panicked",
				observability.String("check", name),
				observability.Any("panic", r),
			)
			check = Check{Status: StatusUnhealthy, Message: "check panicked"}
		}
		check.Duration = time.Since(start).String()
	}()

	check = fn(ctx)
	if check.Status == "" {
		check.Status = StatusHealthy
	}
	if check.Status != StatusHealthy {
		c.logger.Warn("health check failing",
			observability.String("check", name),
			observability.String("status", string(check.Status)),
			observability.String("message", check.Message),
		)
	}
	return check
}

// GoodToGo reports whether the service can take traffic. Degraded checks
// do not take the service out of rotation.
func (c *Checker) GoodToGo(ctx context.Context) bool {
	return c.Health(ctx).Status != StatusUnhealthy
}

// CheckNames returns the registered check names, sorted.
func (c *Checker) CheckNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
