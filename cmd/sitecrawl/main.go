// Package main provides the entry point for the sitecrawl CLI.
//
// sitecrawl crawls a single web site starting from a seed URL. It follows
// root-relative and in-scope links (and, unless disabled, image sources)
// until every discovered location has been visited, printing progress as it
// goes.
//
// Usage:
//
//	sitecrawl <seed-url>
//	sitecrawl --noimage <seed-url>
//
// See --help for all available options.
package main

func main() {
	Execute()
}
