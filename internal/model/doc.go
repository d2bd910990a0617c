// Package model defines the data structures shared by the crawler, the run
// history database, and the report writers.
//
// This package contains the following main types:
//   - Page: a single fetched location with its decoded body
//   - Run: the summary of one crawl from seed to termination
//
// The models live in their own package so that crawler, database, and report
// can all depend on them without importing each other.
package model
