// Package commitmsg generates and parses artifact lists embedded in upload
// commit messages. File names are encoded between marker lines so that later
// runs can detect which artifacts a commit carried.
package commitmsg
