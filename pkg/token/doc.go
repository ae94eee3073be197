/*
Package token is the file-backed singleton for one cluster's swarm join
token (spec §4.5), adapted from the teacher's in-memory manager.TokenManager.
The token is obtained by running a one-shot "swarm create" container through
the tool adapter, validated against the 32-hex-character output shape, and
persisted to ".<root>.tkn" instead of held in a process-lifetime map.
*/
package token
