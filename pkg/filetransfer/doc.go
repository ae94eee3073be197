/*
Package filetransfer copies files and directories from the host onto a
machine (spec §4.8): a plain scp/rsync copy, or for destinations requiring
elevated privileges, a two-step stage-then-sudo-move by way of a random
temp path on the guest.
*/
package filetransfer
