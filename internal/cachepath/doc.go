// Package cachepath maps (file identity, page, size, kind) to deterministic
// artifact paths and writes artifacts atomically.
//
// Layout:
//
//	{cacheDir}/{md5(abs path, size, mtime)}[-{W}x{H}][-page{N}]{ext}
//
// ext is one of .jpg, .pdf, .html, .json, .txt. The caller owns the cache
// directory; this package never creates or prunes it.
package cachepath
