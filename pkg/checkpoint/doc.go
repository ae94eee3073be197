/*
Package checkpoint persists per-machine lifecycle progress inside the
cluster state directory, adapted from the teacher's BoltDB-backed
pkg/storage: a single bbolt file, one bucket, JSON-encoded records keyed by
real machine name.

Between external tool calls the Machine Lifecycle state machine records its
current state here (spec §5: "state transitions are checkpointed ... so
interrupted runs can resume"). A separate, simpler marker directory records
one-shot initialisation completion (spec §6's ".<R>.init/<machine>": presence
= initialised) since that needs only an existence check, not a transactional
record.
*/
package checkpoint
