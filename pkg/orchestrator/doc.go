/*
Package orchestrator implements the Cluster Orchestrator (spec §4.11): verb
dispatch over a (possibly empty) machine-name pattern list, plan
construction respecting master-first ordering, and a concurrency-bounded
per-machine task pool.

Pattern matching is glob-style (*, ?, [...]) against a machine's logical
name, its real (provider-visible) name, and each of its aliases; an empty
pattern list selects every non-hidden machine. "-restrict" intersects a
second pattern set against the first.

The task pool bounds per-machine parallelism (default: machine count,
capped at 8, spec §5) using a weighted semaphore, adapted from the executor
pattern the corpus's devantler-tech-ksail project uses for its own
Docker/Kubernetes parallel operations (pkg/cli/parallel/executor.go) —
with one deliberate divergence: that executor cancels every task on the
first error via errgroup.WithContext, whereas spec §4.10's failure
semantics require a single machine's permanent failure to never interrupt
its siblings, so the pool here runs every task to completion and only
aggregates failures afterward.
*/
package orchestrator
