// Package fsutil provides filesystem utilities: home directory lookup, tilde
// expansion and abbreviation, and a working directory that commands can
// change.
package fsutil
