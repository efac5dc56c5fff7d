// Command preview generates cached previews from the command line.
//
// It drives the same preview manager as the HTTP server, so a cache directory
// can be shared between the two.
//
// Usage:
//
//	preview build <file> [--kind jpeg|pdf|html|json|text] [--page N] [--width W] [--height H] [--force]
//	preview pages <file>
//	preview mimetypes
//	preview warm <dir|file>... [--kind jpeg,json]
//	preview stats
//	preview rm <file>... --index previews.db
//	preview version
//
// Global flags:
//
//	--cache-dir        artifact directory (default $CACHE_DIR/previews or the user cache dir)
//	--index            SQLite file recording artifacts; needed by rm and kind counts in stats
//	--soffice          LibreOffice binary (default $SOFFICE_PATH or soffice)
//	--office-timeout   timeout for one office conversion
//	--vips             decode images with libvips (default $VIPS_ENABLED or true)
//	-o, --output       json or yaml
//	-v, --verbose      debug logging
//
// Results are written to stdout; logs go to stderr. JSON is indented when
// stdout is a terminal.
package main
