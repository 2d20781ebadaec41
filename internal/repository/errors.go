package repository

import "errors"

var (
	ErrNotFound         = errors.New("entity not found")
	ErrAlreadyExists    = errors.New("entity already exists")
	ErrUpdateFailed     = errors.New("update failed")
	ErrOptimisticLock   = errors.New("optimistic lock conflict: data was modified by another process")
	ErrTxnUnsupported   = errors.New("store does not support multi-document transactions")
	ErrConnectionFailed = errors.New("database connection failed")
)
