// Package storage manages the on-disk output layout: one directory
// per post under a base directory, one media file per carousel item.
//
// Writes are atomic (temporary file plus rename), so an interrupted
// download never leaves a truncated file under the final name. Files
// already present from earlier runs are detected so re-runs skip
// finished downloads.
package storage
