// Package filesystem wraps os.Stat and os.Open with retries for stale NFS
// file handles, which show up when the source tree or cache directory is a
// network mount. Retry activity is reported through an Observer.
package filesystem
