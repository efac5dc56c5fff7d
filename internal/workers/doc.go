/*
Package workers sizes the worker pools used when warming the preview cache.

Counts derive from runtime.GOMAXPROCS(0), which follows container CPU limits,
rather than runtime.NumCPU, which reports host CPUs:

	n := workers.ForCPU(8)      // image decode, PDF rendering
	m := workers.ForExternal(4) // LibreOffice conversions

Set PREVIEW_WORKERS to pin the count.
*/
package workers
