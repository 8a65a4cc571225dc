// Package health serves the gateway's operational endpoints.
//
//   - /__health reports every registered check as JSON.
//   - /__gtg ("good to go") answers 200 "OK" or 503 for load balancers.
//   - /__about describes the running build.
//
// Checks run concurrently under a timeout on every request.
//
//	checker := health.NewChecker(health.Info{Name: "article", Version: version}, logger)
//	checker.RegisterCheck("upstream", upstreamCheck)
//	checker.RegisterRoutes(engine)
package health
