package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrReplayNotFound     = fmt.Errorf("replay not found")
	ErrMetadataNotFound   = fmt.Errorf("metadata not found")

	// Feed errors
	ErrFeedBusy       = fmt.Errorf("feed fetch already in progress")
	ErrMutationBusy   = fmt.Errorf("replay update already in progress")
	ErrNoNextPage     = fmt.Errorf("no next page")
	ErrNoPreviousPage = fmt.Errorf("no previous page")
	ErrUnknownFilter  = fmt.Errorf("unknown filter")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
