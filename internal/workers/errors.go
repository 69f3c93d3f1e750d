package workers

import "errors"

var ErrInboxWatch = errors.New("cannot watch inbox directory")
