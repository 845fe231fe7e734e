package calculator

import "errors"

// ErrInvalidInput is matched by every InvalidInputError.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError reports inputs the engine cannot compute anything from.
// No partial result accompanies it.
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string {
	return e.Message
}

// Is makes errors.Is(err, ErrInvalidInput) succeed.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalidInput(message string) error {
	return &InvalidInputError{Message: message}
}
