package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrSlotTaken    = errors.New("slot already taken")
	ErrInvalidInput = errors.New("invalid input")
)
