package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// unique制約違反（email重複など）
	ErrDuplicate = errors.New("duplicate")
)
