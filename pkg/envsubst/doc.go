/*
Package envsubst expands ${NAME}, ${NAME:-default}, and $NAME tokens against
a variable scope, per a substitution scope descriptor (text/args/both/none,
with an optional glob allowlist on variable names).

Expansion itself is delegated to github.com/a8m/envsubst, which already
implements the POSIX default-value operator; this package adds the scope
descriptor, the glob restriction, and the unknown-variable warning the
library does not surface on its own.
*/
package envsubst
