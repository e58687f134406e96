// Package soak drives every in-memory component from many goroutines at
// once and then checks that no update was lost.
//
// Each of W workers runs M rounds on keys no other worker touches. After
// the run, every worker's saga must be at version M and every worker's
// message type must have M subscribers. A lost write under contention
// shows up as a verification error rather than a flaky count.
package soak
