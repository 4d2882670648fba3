package mediaupload

// Outcome is the result of one upload attempt: either the parsed body of the
// status post or the error that ended the attempt.
type Outcome struct {
	Body map[string]interface{}
	Err  error
}

// Succeeded ...
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// Kind returns the failure kind, KindUnknown on success.
func (o Outcome) Kind() Kind {
	return KindOf(o.Err)
}
