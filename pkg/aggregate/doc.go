// Package aggregate provides parallel fan-out helpers for fetching one
// result per work item against a rate-limited API.
//
// Ordered launches every fetch at once and delivers results in input order.
// Bounded caps in-flight fetches with a worker pool and reports progress as
// items complete. Both treat per-item failures as local: the failing item
// yields a placeholder outcome and its siblings keep running.
package aggregate
