package core

// Result is the outcome of a single inventory fetch: either the ordered model
// list or the reason the fetch failed. Exactly one of Models/Err is meaningful.
type Result struct {
	Models []VehicleModel
	Err    error
}

// Success builds a successful Result.
func Success(models []VehicleModel) Result {
	if models == nil {
		models = []VehicleModel{}
	}
	return Result{Models: models}
}

// Failure builds a failed Result.
func Failure(err error) Result {
	return Result{Err: err}
}

// OK reports whether the fetch succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}
