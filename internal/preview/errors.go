package preview

import "errors"

var ErrReleased = errors.New("preview handle released")
