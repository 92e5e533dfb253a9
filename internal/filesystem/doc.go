/*
Package filesystem wraps os.Stat, os.Lstat, os.Open and os.ReadDir with retry
logic for NFS stale file handle errors.

Photo libraries are frequently served from network mounts. When the server
side of an NFS export changes under a client, operations fail with ESTALE
(errno 116 on Linux) until the handle is refreshed. These helpers retry such
failures with exponential backoff; every other error is returned immediately.

	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
	    return err
	}
	defer f.Close()

Defaults: 3 retries, 50ms initial backoff, 500ms cap.

Retry outcomes are reported to the Observer installed with SetObserver;
main wires metrics.NewFilesystemObserver into it.
*/
package filesystem
