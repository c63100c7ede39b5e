package cli

import "fmt"

// ExitError asks main to exit with Code. It carries no message of its own
// since the cycle summary already told the user what happened.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}
