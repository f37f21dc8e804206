package service

import "errors"

var (
	ErrIDRequired   = errors.New("id is required")
	ErrNotFound     = errors.New("document not found")
	ErrReaderNil    = errors.New("reader is nil")
	ErrInvalidBatch = errors.New("batch must be a JSON array or an object with a documents or items array")
)
