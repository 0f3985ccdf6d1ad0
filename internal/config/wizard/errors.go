package wizard

import "errors"

// Validation errors for the interactive wizard.
var (
	errProjectRequired = errors.New("project name is required")
	errProjectInvalid  = errors.New("project name must be 1-32 lowercase alphanumeric characters or hyphens, starting and ending with alphanumeric")
	errCIDRRequired    = errors.New("CIDR is required")
	errCountInvalid    = errors.New("subnet count must be a positive number")
)
