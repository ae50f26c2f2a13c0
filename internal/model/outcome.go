package model

// Outcome is the discriminated result returned by read-side analyses. Data is
// set only on success; Error only on failure.
type Outcome[T any] struct {
	Status Status `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   *T     `json:"data,omitempty"`
}

// Succeed wraps v as a successful outcome.
func Succeed[T any](v T) Outcome[T] {
	return Outcome[T]{Status: StatusSuccess, Data: &v}
}

// Fail converts err into an error outcome.
func Fail[T any](err error) Outcome[T] {
	return Outcome[T]{Status: StatusError, Error: err.Error()}
}

// OK reports whether the outcome succeeded.
func (o Outcome[T]) OK() bool {
	return o.Status == StatusSuccess
}
