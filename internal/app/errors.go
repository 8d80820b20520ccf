package service

import "errors"

// ErrNotAuthorized is returned before any I/O when a privileged operation is
// attempted without the privilege.
var ErrNotAuthorized = errors.New("operation requires an administrator")
