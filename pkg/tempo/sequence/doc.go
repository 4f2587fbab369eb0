// Package sequence builds and runs chains of delayed steps. Each step waits
// its delay, then calls its callback with the previous step's output.
//
// Building is separate from running:
// - New/FromSteps: create a Sequence
// - After/AfterAsync: append a step; the returned Sequence is retyped to the
//   new callback's output, so mismatched steps do not compile
// - Run: execute all steps once, returning a future of the last output
// - Repeat: execute the whole chain N times serially, keeping the last output
//
// Sequences are immutable values. Appending returns a new Sequence that
// shares the earlier steps, and any number of Run and Repeat invocations may
// execute concurrently. Within one invocation exactly one step is in flight.
package sequence
