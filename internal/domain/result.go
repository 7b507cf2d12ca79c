package domain

// Result is the settled outcome of one upstream fetch: either a value or the
// reason it could not be obtained. An Ok result may still hold an empty
// series; that is distinct from a failed fetch.
type Result[T any] struct {
	value T
	err   error
	set   bool
}

// Ok wraps a successfully fetched value.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v, set: true}
}

// Failed wraps the reason a fetch did not produce a value.
func Failed[T any](err error) Result[T] {
	if err == nil {
		err = ErrUpstreamUnavailable
	}
	return Result[T]{err: err, set: true}
}

// Get returns the value and whether the fetch succeeded.
func (r Result[T]) Get() (T, bool) {
	return r.value, r.set && r.err == nil
}

// Err returns the failure reason. A zero Result reports ErrUpstreamUnavailable
// since no fetch settled it.
func (r Result[T]) Err() error {
	if !r.set {
		return ErrUpstreamUnavailable
	}
	return r.err
}

// Settle converts a (value, error) pair into a Result.
func Settle[T any](v T, err error) Result[T] {
	if err != nil {
		return Failed[T](err)
	}
	return Ok(v)
}
