// Package snapshot builds and publishes immutable fit bundles.
//
// A Snapshot pairs a Dataset with the scaler, projection and outlier scores
// fitted from it. Builds run off to the side; a finished build is published by
// a single atomic pointer swap, so Current never blocks and never observes a
// mix of two versions. At most one build runs at a time. Concurrent requests
// are rejected with ErrBuildBusy rather than queued, and a failed or timed-out
// build leaves the previously published snapshot in place.
package snapshot
