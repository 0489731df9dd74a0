// Package foundation provides small generic building blocks shared by the
// content and export packages.
package foundation

import "fmt"

// Result is the outcome of a single fallible step in a batch: it either holds
// a value or an error, never both. Batches collect Results and summarise them
// instead of aborting on the first failure.
type Result[T any] struct {
	value T
	err   error
	ok    bool
}

// Ok creates a successful Result with the given value.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value, ok: true}
}

// Err creates a failed Result. A nil err is a programming error.
func Err[T any](err error) Result[T] {
	if err == nil {
		panic("foundation.Err called with nil error")
	}
	return Result[T]{err: err}
}

// FromTuple creates a Result from the traditional Go (value, error) pattern.
func FromTuple[T any](value T, err error) Result[T] {
	if err != nil {
		return Err[T](err)
	}
	return Ok(value)
}

// IsOk returns true if the Result represents a successful operation.
func (r Result[T]) IsOk() bool {
	return r.ok
}

// Unwrap returns the value if Ok, panics if Err.
func (r Result[T]) Unwrap() T {
	if !r.ok {
		panic(fmt.Sprintf("called Unwrap on Err result: %v", r.err))
	}
	return r.value
}

// Error returns the failure, or nil for Ok results.
func (r Result[T]) Error() error {
	return r.err
}

// Match executes onOk if successful, onErr if failed.
func (r Result[T]) Match(onOk func(T), onErr func(error)) {
	if r.ok {
		onOk(r.value)
		return
	}
	onErr(r.err)
}

// Partition splits results into values and errors, preserving order.
func Partition[T any](results []Result[T]) ([]T, []error) {
	values := make([]T, 0, len(results))
	var errs []error
	for _, r := range results {
		r.Match(
			func(v T) { values = append(values, v) },
			func(err error) { errs = append(errs, err) },
		)
	}
	return values, errs
}
