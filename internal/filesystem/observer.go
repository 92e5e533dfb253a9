package filesystem

import "sync/atomic"

// Observer receives retry outcomes. metrics.NewFilesystemObserver is the
// production implementation; filesystem does not import metrics.
type Observer interface {
	ObserveRetryAttempt(op string)
	ObserveRetrySuccess(op string)
	ObserveRetryFailure(op string)
}

type outcome int

const (
	outcomeAttempt outcome = iota
	outcomeSuccess
	outcomeFailure
)

type observerBox struct{ Observer }

var current atomic.Pointer[observerBox]

// SetObserver installs o for all later retries; nil disables reporting.
// Safe to call while retries are running.
func SetObserver(o Observer) {
	if o == nil {
		current.Store(nil)
		return
	}
	current.Store(&observerBox{o})
}

func record(op string, o outcome) {
	box := current.Load()
	if box == nil {
		return
	}
	switch o {
	case outcomeAttempt:
		box.ObserveRetryAttempt(op)
	case outcomeSuccess:
		box.ObserveRetrySuccess(op)
	case outcomeFailure:
		box.ObserveRetryFailure(op)
	}
}
