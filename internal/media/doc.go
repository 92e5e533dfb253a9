// Package media renders gallery thumbnails for catalogued images.
//
// Thumbnails are bounded to 200x200, encoded as JPEG and cached on disk under
// a key derived from the source path and its modification time, so an edited
// photo gets a fresh thumbnail while an untouched one is served from cache.
// Very large sources are downscaled before resizing to keep memory bounded.
package media
