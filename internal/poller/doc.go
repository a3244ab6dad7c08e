// Package poller runs one pass over a mailbox: it fetches messages newer than
// the stored cursor, records the ones whose subject matches, downloads their
// file attachments and advances the cursor.
//
// Progress lines and sentinel lines are written to the run's output writer;
// an orchestrator reads attachment paths from the sentinel lines.
package poller
