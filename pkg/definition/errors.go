package definition

import "errors"

var (
	ErrInvalidYAML      = errors.New("definition: invalid YAML")
	ErrParsingCancelled = errors.New("definition: parsing cancelled")
	ErrNoStates         = errors.New("definition: at least one state is required")
	ErrMissingName      = errors.New("definition: name is required")
	ErrUnknownAction    = errors.New("definition: unknown action")
)
