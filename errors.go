package pqgo

import "errors"

var (
	ErrQueueEmpty      = errors.New("the queue is empty")
	ErrQueueFull       = errors.New("the queue is full")
	ErrQueueClosed     = errors.New("the queue is closed")
	ErrInvalidArgument = errors.New("the argument is out of range")
	ErrQueueIsUsing    = errors.New("the queue directory is used by another process")
	ErrTaskDoneTooMany = errors.New("task done called more times than there were items pushed")
	ErrRawCodecValue   = errors.New("raw codec only accepts []byte values")
)
