package repository

import "errors"

// Sentinel kinds for store errors. Absent rows are not errors here:
// point lookups return nil, nil instead.
var (
	ErrInvalidPeriod = errors.New("invalid period")
	ErrInvalidScope  = errors.New("invalid scope")
)
