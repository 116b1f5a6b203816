package cidutil

import "errors"

var errUnsupported = errors.New("cidutil: expected CIDv1 raw sha2-256")
