// Package core contains the execution plumbing of the step runner: the
// delay primitive and clock, single-result futures built on channels, and
// run metadata carried through the callback context. It holds no sequence
// logic itself; package sequence drives it.
package core
