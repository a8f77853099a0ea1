package definition

import (
	"fmt"
	"sort"

	"github.com/dmitrymomot/fsmkit/pkg/statemachine"
)

// ActionRegistry maps action names used in definitions to their implementations.
// Not thread-safe: register all actions before building machines.
type ActionRegistry map[string]statemachine.Action

// NewActionRegistry returns a new, empty ActionRegistry.
func NewActionRegistry() ActionRegistry {
	return make(ActionRegistry)
}

// Register sets or replaces the action for name. Panics if a is nil.
func (r ActionRegistry) Register(name string, a statemachine.Action) {
	if a == nil {
		panic(fmt.Sprintf("definition: action %q cannot be nil", name))
	}
	r[name] = a
}

// Names returns the registered names in sorted order.
func (r ActionRegistry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
