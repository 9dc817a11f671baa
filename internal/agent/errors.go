package agent

import "fmt"

// MissingContextError signals that a capability needs structured
// context (usually a project id) the caller did not supply. It maps to
// a client-input failure at the API boundary.
type MissingContextError struct {
	Capability Capability
	Field      string
}

func (e *MissingContextError) Error() string {
	return fmt.Sprintf("%s requires %s in context", e.Capability, e.Field)
}
