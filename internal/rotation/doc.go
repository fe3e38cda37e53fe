// Package rotation persists the corpus cursor and the daily quota counter.
// The state is a small JSON file rewritten in full after every successful
// pipeline run, guarded by a file lock so two processes cannot produce a
// torn write.
package rotation
