/*
Package preseed implements the Image Pre-seeder (spec §4.7): getting a set
of image refs onto a machine's docker daemon under one of three cache
policies (local-host, named-cache-machine, off), performing any declared
registry logins first.
*/
package preseed
