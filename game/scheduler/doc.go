// Package scheduler provides the single-threaded delayed-callback model each
// game session runs on.
//
// A Scheduler fires a callback after a delay. A zero delay means "as soon as
// the current handler returns": the callback runs after the handler that
// scheduled it and before any timer that has not yet elapsed.
//
// Two implementations are provided:
//
//   - Loop runs every callback and every external event on one goroutine,
//     fed by a single FIFO queue. Timers post into that queue when they
//     elapse, so no two callbacks ever run concurrently.
//   - Manual is a virtual clock for tests. Nothing fires until the test calls
//     Advance or RunPending.
//
// Neither implementation can cancel a callback once scheduled. Callers that
// need to abandon work guard their callbacks with a generation counter.
package scheduler
