package export

import "errors"

// ErrInvalidParam marks a request parameter that cannot be turned into a filter.
var ErrInvalidParam = errors.New("invalid export parameter")
