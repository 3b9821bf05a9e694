// Package janus is a minimal unit-testing engine.
//
// Specs are registered with Test or FocusTest and run strictly one at a
// time, in registration order, when Run is called. Each spec receives a
// *Tools value that binds the matcher surface (Expect), function
// observation (Observe) and asynchronous completion (Async) to that spec:
//
//	reg := janus.NewRegistry()
//	reg.Test("adds numbers", func(t *janus.Tools) {
//		t.Expect(1 + 1).ToBe(2)
//	})
//	summary, err := janus.Run(ctx, reg, janus.WithReporter(janus.NewConsoleReporter(os.Stdout)))
//
// A spec passes only if it recorded at least one diagnostic and every
// diagnostic passed. When any spec is registered with FocusTest, only the
// focused specs run.
//
// From a Go test, RunT reports each spec as a subtest:
//
//	func TestSpecs(t *testing.T) {
//		janus.RunT(t, reg)
//	}
//
// Main wraps the janus command line (run, list, history, show) around a
// registry for use in a binary's main function.
package janus
