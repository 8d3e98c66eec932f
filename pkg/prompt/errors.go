package prompt

import "errors"

// ErrIncompletePersona is returned for persona entries missing a name or
// an instruction.
var ErrIncompletePersona = errors.New("persona needs a name and an instruction")
