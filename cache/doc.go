// Package cache provides short-lived in-memory caching of fetched values.
//
// Memory is a TTL cache safe for concurrent use. Loader memoizes a single
// fetch function under one key and collapses concurrent misses into one
// call, which keeps polling endpoints from fanning out to the upstream
// service on every request.
package cache
