/*
Package workers sizes worker pools from the CPUs the process may use.

runtime.NumCPU reports the host's processors even when a container is
limited to a few of them; GOMAXPROCS follows the cgroup limit. Every helper
here starts from GOMAXPROCS:

	workers.ForCPU(0, 8)  // one per CPU, at most 8
	workers.ForIO(0, 16)  // two per CPU, at most 16

A positive first argument is an explicit count from configuration
(sync.workers) and replaces the computed value, still subject to the cap.
*/
package workers
