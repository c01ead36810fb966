// Package montecarlo implements the Monte Carlo π estimator shared by the
// picarlo CLI, worker, and coordinator.
//
// The estimator draws uniform points in the unit square [0,1)×[0,1) and
// counts how many land inside the inscribed quarter circle; the area ratio
// gives π/4. The core is strategy-agnostic: a run is described by Params,
// split into Shares by PlanShares, executed share-by-share with CountInside,
// and reduced with Estimate. Sequential and Parallel wrap those pieces for
// single-process use; the distributed binaries reuse the same pieces across
// processes.
package montecarlo
