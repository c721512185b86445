package service

import "errors"

// ErrNotFound indicates the requested update run does not exist.
var ErrNotFound = errors.New("not found")

// ErrUpdateInProgress is returned when a run is requested while another run
// of the same updater has not finished.
var ErrUpdateInProgress = errors.New("rate update already in progress")
