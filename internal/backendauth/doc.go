// Package backendauth decides whether an inbound request is a trusted
// backend-to-backend call.
//
// A Guard evaluates each request against three sources of trust, in order:
// exempt operational routes (paths starting with "/__"), an allowlist of
// client networks, and a rotating set of shared keys presented in one of a
// fixed set of request headers. Every key in the set is honored; the first
// one is the current key and the rest are retired keys kept alive while
// callers roll over.
//
// Guards are immutable. Configuration reloads build a new Guard and swap it
// into an AtomicGuard, so a request is always evaluated against a single
// consistent snapshot.
//
//	guard, err := backendauth.New(backendauth.Config{
//	    Enabled:   true,
//	    Keys:      []string{"k2", "k1"},
//	    Allowlist: []string{"10.0.0.0/8"},
//	}, backendauth.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	engine.Use(backendauth.Middleware(guard))
package backendauth
