package model

// RefreshStatus is the state of a per-symbol polling cycle.
//
//	Idle -> Loading -> {Ready, Error}
//	Ready/Error -> Loading on every scheduled or manual refresh
type RefreshStatus string

const (
	StatusIdle    RefreshStatus = "idle"
	StatusLoading RefreshStatus = "loading"
	StatusReady   RefreshStatus = "ready"
	StatusError   RefreshStatus = "error"
)
