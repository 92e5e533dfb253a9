/*
Package memory applies a container memory limit to the Go runtime.

Decoding a large JPEG for a thumbnail allocates the full bitmap, so a handful
of concurrent requests can push the heap well past a pod's limit before the
collector runs. Setting GOMEMLIMIT below the container limit makes the
runtime collect harder as the heap approaches it instead of being killed.

The limit comes from memory.limit in the configuration (or
PHOTO_CATALOG_MEMORY_LIMIT, typically fed from the Kubernetes Downward API):

	env:
	  - name: PHOTO_CATALOG_MEMORY_LIMIT
	    valueFrom:
	      resourceFieldRef:
	        resource: limits.memory

An explicit GOMEMLIMIT always wins and is left untouched.
*/
package memory
