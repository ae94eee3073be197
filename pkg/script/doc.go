/*
Package script runs a machine's prelude and addendum entries (spec §4.9):
prelude runs immediately after file copy, addendum runs last in the
initialisation sequence, and a non-zero exit from either aborts the
machine's initialisation.
*/
package script
