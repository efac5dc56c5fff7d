// Package memory keeps preview generation inside a container's memory
// budget.
//
// [ConfigureFromEnv] sets GOMEMLIMIT from the container limit passed in
// MEMORY_LIMIT (typically through the Kubernetes Downward API), scaled by
// MEMORY_RATIO. An explicit GOMEMLIMIT always wins.
//
// [Monitor] samples the heap and pauses batch warming while usage is above a
// critical fraction of the limit. Decoding large images and rasterising PDF
// pages allocate heavily; interactive requests are not throttled.
package memory
