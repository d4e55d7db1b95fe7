// Package query implements the logical calendar queries built on top of
// the Morgen client: today and week views, arbitrary ranges, substring
// search, and event creation. Derived results are cached with short TTLs
// so repeated conversational queries do not refetch, while the week and
// today views degrade to empty results on upstream failure.
package query
