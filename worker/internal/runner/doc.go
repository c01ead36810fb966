// Package runner drives one worker through its life cycle: claim a share of
// the active run from the coordinator, draw the share's samples with a
// private generator, and deliver the partial inside count. The process is
// one-shot — a worker that has reported has nothing left to do.
package runner
