// Package state owns the poller's on-disk state: the cursor file, the
// matched-email log and downloaded attachments, all kept in one directory.
//
// JSON files are replaced atomically, so a crash never leaves a torn cursor
// or log behind. A lock file keeps two pollers from sharing a directory.
package state
