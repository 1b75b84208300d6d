// Package mapcache caches robot maps and stores navigation markers.
//
// MapCache fetches each map payload from the robot once. Concurrent misses
// for the same id share a single fetch; later reads are served from memory.
// Map payloads are treated as immutable, so the only refresh path is Evict.
//
// MarkerStore keeps marker sets in memory. Nothing is persisted.
package mapcache
