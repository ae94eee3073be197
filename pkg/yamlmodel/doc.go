/*
Package yamlmodel parses a cluster descriptor and resolves it into a typed
*types.Cluster.

Three passes run in order:

 1. Include resolution (loadIncluded): each "include:" entry is read
    relative to the including file and merged in via mergeRaw before anything
    else is interpreted, depth-bounded at 10 with cycle detection.
 2. Extends resolution (resolveExtends): for every machine (hidden ones
    included, as merge sources),
    its "extends:" chain is resolved via a recursive, semantic-key-aware
    merge (mergeRaw) so that mappings merge, scalars replace, and lists
    append-unique by the logical key documented in spec §4.1.
 3. Decoding (decodeMachine/decodeNetwork): the merged raw tree is coerced
    into typed fields, applying the SI/IEC size-suffix and boolean
    conventions from spec §4.1.

The merge function (mergeRaw) is the single source of truth for list-identity
keys, matching the design note in spec §9.
*/
package yamlmodel
