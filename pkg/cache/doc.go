// Package cache provides an optional Redis-backed cache for Honeycomb
// metadata listings (datasets, columns, authorizations).
//
// Listings change slowly relative to how often orchestration runs re-read
// them, so a short TTL cache removes most repeat GET traffic from the
// rate-limited API. Entries are keyed by request path and hold the raw JSON
// response body. Query creation and query results are never cached.
package cache
