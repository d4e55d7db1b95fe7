// Package cache provides a bounded in-memory TTL cache used to memoize
// Morgen API responses and query results.
//
// Eviction at capacity is by insertion order: the oldest-inserted entry
// is dropped first, regardless of how recently it was read. Expiry is
// lazy on access, with a periodic background sweep picking up entries
// nobody asks for.
package cache
