// Package runstore is the coordinator's in-memory run registry and reducer.
//
// A run moves through pending → running → done | failed. Workers claim
// shares (idempotently, keyed by worker index), deliver exactly one final
// report each, and the store sums inside counts into the π estimate once the
// last report lands. Any error report fails the whole run — the reduction
// needs every worker's contribution, so there is no partial result and no
// retry. Finished runs are evicted after a TTL by the Run loop; active runs
// are kept indefinitely.
package runstore
