package service

import "errors"

// Sentinel errors for service operations.
var (
	ErrNotStarted      = errors.New("service not started")
	ErrSessionRunning  = errors.New("camera session already running")
	ErrNotRunning      = errors.New("no camera session running")
	ErrNothingUsable   = errors.New("no usable image in upload")
	ErrBadDay          = errors.New("invalid date, expected YYYY-MM-DD")
	ErrNoBackend       = errors.New("vision backend is required")
	ErrNoStore         = errors.New("roster store is required")
	ErrNoRecorder      = errors.New("attendance recorder is required")
	ErrNoSourceFactory = errors.New("camera source factory is required")
)
