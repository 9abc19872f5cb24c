package view

import "vehiclemodels/internal/core"

// Status is the lifecycle state of a ModelListView.
type Status int

const (
	// StatusIdle means the view is not mounted and holds no state.
	StatusIdle Status = iota
	// StatusLoading means the mount fetch has not settled yet.
	StatusLoading
	// StatusLoaded means the fetch succeeded and Models holds the list.
	StatusLoaded
	// StatusFailed means the fetch failed and Err holds the reason.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// MarshalText lets Status serialize as its name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// State is the render-driving snapshot owned by a view.
type State struct {
	Status Status
	Models []core.VehicleModel
	Err    error
}

// clone returns a copy that shares nothing mutable with s.
func (s State) clone() State {
	return State{
		Status: s.Status,
		Models: core.CloneModels(s.Models),
		Err:    s.Err,
	}
}

func stateFromResult(res core.Result) State {
	if res.OK() {
		models := res.Models
		if models == nil {
			models = []core.VehicleModel{}
		}
		return State{Status: StatusLoaded, Models: models}
	}
	return State{Status: StatusFailed, Err: res.Err}
}
