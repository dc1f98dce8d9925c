package domain

import "errors"

var (
	ErrMissingRecordID   = errors.New("record is missing an identifier")
	ErrMissingRecordBody = errors.New("record is missing a body")
	ErrNoSnapshot        = errors.New("no snapshot available")
	ErrStateNotFound     = errors.New("engagement state not found")
)
