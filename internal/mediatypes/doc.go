// Package mediatypes provides extension and MIME type helpers shared by the
// scanner, the thumbnail generator and the HTTP handlers.
//
// Extensions are compared in a single normalized form: lower case, no
// leading dot. Configuration values such as ".JPG" or "jpeg" are accepted
// and normalized by [NewExtensionSet]:
//
//	allowed := mediatypes.NewExtensionSet(cfg.AllowedExtensions...)
//	if allowed.Allows("holiday/IMG_0001.JPG") {
//	    // catalogued
//	}
package mediatypes
