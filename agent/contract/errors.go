package contract

import "errors"

var (
	ErrProvider    = errors.New("language model call failed")
	ErrCRM         = errors.New("crm call failed")
	ErrScheduling  = errors.New("scheduling call failed")
	ErrInvalidLead = errors.New("lead is missing required fields")
	ErrValidation  = errors.New("validation failed")
)
