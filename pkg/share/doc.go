/*
Package share mounts host directories into machines via one of two backends
selected by share type (spec §4.6): vboxsf (VirtualBox shared folders, the
default on the virtualbox driver) and rsync (the default everywhere else).
*/
package share
