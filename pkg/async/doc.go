// Package async provides small generic helpers for running computations
// concurrently and collecting their results.
//
// Async starts a function in its own goroutine and returns a *Future. Await,
// AwaitWithTimeout and IsComplete observe a single future. WaitAll collects
// every result but stops at the first error, while Settle waits for all
// futures and reports each outcome independently, in the order the futures
// were supplied. Settle is what the notification fan-out uses so that one
// failing channel never hides the results of the others.
//
//	futures := make([]*async.Future[Outcome], len(channels))
//	for i, ch := range channels {
//	    futures[i] = async.Async(ctx, ch, deliver)
//	}
//	for i, res := range async.Settle(futures...) {
//	    // res.Value / res.Err belong to channels[i]
//	}
//
// Panics inside the supplied function are recovered and surface as errors
// wrapping ErrPanic.
package async
