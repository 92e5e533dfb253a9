// Package handlers implements the HTTP surface of the catalog: the gallery
// page and edit form, image and thumbnail serving, the JSON API and the
// health endpoints.
//
// Every path accepted from a request is relative to the upload folder and is
// rejected with 403 when it resolves outside of it.
package handlers
