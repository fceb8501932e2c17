package billing

import "fmt"

// StateError signals a transition or build attempted from the wrong
// splitter state. In a correct UI flow it never fires, but a wrong payload
// must never be produced silently.
type StateError struct {
	Op    string
	State string
}

func (e StateError) Error() string {
	return fmt.Sprintf("%s not allowed in state %q", e.Op, e.State)
}

// IsState reports whether err is a StateError.
func IsState(err error) bool {
	_, ok := err.(StateError)
	return ok
}
