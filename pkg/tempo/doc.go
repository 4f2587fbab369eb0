// Package tempo holds the value types shared by the delayed step runner:
// Result[T], the Unit input of first steps, and the error kinds raised while
// building or running a sequence.
//
// The builder and executors live in package sequence; timers and futures in
// package core.
package tempo
