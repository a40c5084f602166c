// Package uploader orchestrates a model checkpoint upload:
// load the checkpoint, generate the payload artifacts in a
// scratch directory, clone the hub repository, copy the
// verified artifacts in, commit, and push.
//
// The scratch directory is removed on every exit path. A
// dry run performs everything except the final push.
package uploader
