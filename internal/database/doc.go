// Package database provides the SQLite run history of sitecrawl.
//
// Every recorded crawl is one row in runs, and every fetch cycle of that
// crawl is one row in pages. The history is write-only from the crawler's
// point of view: it is never read back to resume a crawl, only listed by the
// history command.
//
// modernc.org/sqlite is a CGO-free driver, so the binary cross-compiles and
// the database is a single file under the XDG data directory.
package database
