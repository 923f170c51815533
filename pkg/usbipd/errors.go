package usbipd

import "errors"

var (
	errListFailed = errors.New("failed to list USB devices")
	errEmptyBusID = errors.New("bus id must not be empty")
	errBadBusID   = errors.New("bus id has an unexpected format")
)
