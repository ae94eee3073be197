// Package httpapi is the optional HTTP/REST control surface (spec §6's
// "server" command): a thin mapping onto the same Cluster Orchestrator
// operations the CLI drives, routed with gorilla/mux. It is explicitly out
// of the core's scope (spec §1) and carries no orchestration logic of its
// own — every handler parses its request, calls the orchestrator, and
// serialises the result to the documented {status, per_machine} JSON shape.
package httpapi
