// Package preview is the entry point for generating previews of a source
// file. A Manager detects the MIME type, picks the registered builder,
// derives the cache path and either returns the cached artifact or builds
// it. Concurrent requests for the same artifact share one build.
package preview
