/*
Package compose implements the Compose Linearizer (spec §4.2): expanding
every "extends" directive in a Compose document (any v2 or v3 variant) into
a self-contained equivalent with no extends directive anywhere under
services.

For each service S with an extends target {file?, service}, the referenced
service is linearised first (recursively, depth-bounded at 10 with
cycle detection across files) and then merged under S: scalars are
replaced by the child, lists are concatenated with de-duplication on a
semantic key per field (environment by variable name, ports by
host+protocol, volumes by container path, labels by key). The keys
"extends", "links", "volumes_from", "depends_on", and "net" are never
inherited across files, matching Compose v2 extends semantics.
*/
package compose
