package order

import "fmt"

// ValidationError signals a recoverable bad input: wrong quantity shape,
// missing or extraneous variant, empty payload. The caller re-prompts.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IndexError signals a stale line reference, usually a UI holding an index
// past a removal. The caller refreshes its view.
type IndexError struct {
	Index int
	Len   int
}

func (e IndexError) Error() string {
	return fmt.Sprintf("line index %d out of range (ticket has %d lines)", e.Index, e.Len)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	_, ok := err.(ValidationError)
	return ok
}

// IsIndex reports whether err is an IndexError.
func IsIndex(err error) bool {
	_, ok := err.(IndexError)
	return ok
}
