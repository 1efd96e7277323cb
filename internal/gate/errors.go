package gate

import "errors"

var ErrNoSession = errors.New("no gate session")
