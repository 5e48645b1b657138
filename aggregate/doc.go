// Package aggregate derives per-market and per-time-bucket rollups from
// scored records.
//
// Rollups are recomputed on demand and never persisted. Missing confidence and
// novelty values are represented as NaN and ignored by every average; an
// average over no values is NaN.
package aggregate
