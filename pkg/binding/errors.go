package binding

import "fmt"

// ArgumentError reports a call whose arity or argument kinds do not match
// the declared signature. The engine turns it into an execution error.
type ArgumentError struct {
	Func  string
	Index int    // 0-based argument index, -1 for an arity mismatch
	Param string // parameter name
	Want  Kind
	Got   string // SQL type of the offending value

	Arity    int // number of arguments received
	Min, Max int // accepted range; Max is -1 for variadic functions
}

// Error implements the error interface.
func (e *ArgumentError) Error() string {
	if e.Index < 0 {
		switch {
		case e.Max < 0:
			return fmt.Sprintf("%s: expected at least %d argument(s), got %d", e.Func, e.Min, e.Arity)
		case e.Min == e.Max:
			return fmt.Sprintf("%s: expected %d argument(s), got %d", e.Func, e.Min, e.Arity)
		default:
			return fmt.Sprintf("%s: expected %d to %d arguments, got %d", e.Func, e.Min, e.Max, e.Arity)
		}
	}
	return fmt.Sprintf("%s: argument %d (%s): expected %s, got %s", e.Func, e.Index+1, e.Param, e.Want, e.Got)
}

// SignatureError reports a malformed declaration found at registration.
type SignatureError struct {
	Name   string
	Reason string
}

// Error implements the error interface.
func (e *SignatureError) Error() string {
	return fmt.Sprintf("invalid signature %q: %s", e.Name, e.Reason)
}
