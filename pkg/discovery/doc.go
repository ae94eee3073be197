/*
Package discovery owns the per-cluster ".<root>.env" sidecar (spec §4.4): the
authoritative record of each real machine's network interfaces, rewritten
wholesale on every update so readers never observe a partial write.
*/
package discovery
