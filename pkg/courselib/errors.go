package courselib

import "errors"

var (
	ErrTaskNotFound = errors.New("download task does not exist")
	ErrTaskNotReady = errors.New("download task is not finished yet")
)
