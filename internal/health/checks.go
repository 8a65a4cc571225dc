package health

import (
	"context"
	"fmt"
	"net/http"
)

// HTTPCheck returns a check that issues a GET to url with client and
// reports unhealthy on a transport error or a 5xx answer.
func HTTPCheck(client *http.Client, url string) CheckFunc {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context) Check {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return Check{Status: StatusUnhealthy, Message: err.Error()}
		}
		resp, err := client.Do(req)
		if err != nil {
			return Check{Status: StatusUnhealthy, Message: err.Error()}
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return Check{Status: StatusUnhealthy, Message: fmt.Sprintf("status %d", resp.StatusCode)}
		}
		return Check{Status: StatusHealthy}
	}
}

// ErrorCheck adapts a function returning an error to a CheckFunc. A
// non-nil error is reported with the given status.
func ErrorCheck(onError Status, fn func(ctx context.Context) error) CheckFunc {
	return func(ctx context.Context) Check {
		if err := fn(ctx); err != nil {
			return Check{Status: onError, Message: err.Error()}
		}
		return Check{Status: StatusHealthy}
	}
}
