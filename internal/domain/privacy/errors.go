package privacy

import "errors"

var ErrUnknownCategory = errors.New("unknown data category")
