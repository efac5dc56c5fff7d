// Package index records generated preview artifacts in SQLite.
//
// Each row ties a cache key to its source file, MIME type, builder, kind,
// page and artifact path, so artifacts can be listed or removed per source
// and counted per kind. The database uses WAL mode and creates its schema
// on open.
package index
