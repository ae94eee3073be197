/*
Package lifecycle drives one machine through the state machine from spec
§4.10:

	absent -> created -> tagged -> configured -> initialised -> running <-> stopped -> destroyed

Each transition is attempted up to retryMax (3) times with exponential
backoff (base 1s, cap 30s) when the failure is transient
(clustererr.IsTransient); a permanent failure surfaces immediately and the
machine is marked failed. Every successful transition is checkpointed via
pkg/checkpoint before the next one begins, so an interrupted run resumes
from the last completed state rather than the beginning (spec §5).

The Engine owns no policy of its own beyond the state machine: provisioning
goes through pkg/tooladapter, shares through pkg/share, images through
pkg/preseed, files through pkg/filetransfer, scripts through pkg/script,
discovery publication through pkg/discovery, and swarm tokens through
pkg/token. pkg/orchestrator drives it across machines, and only it knows
about ordering across machines (masters before workers, and so on);
cmd/shipwright also calls ResolveTarget directly for the ssh verb.
*/
package lifecycle
