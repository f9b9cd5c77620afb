package domain

import "errors"

// FailureKind discriminates the outcome of a scheduling operation.
type FailureKind uint8

const (
	FailureNone FailureKind = iota
	FailureClient
	FailureConfiguration
	FailureSystem
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureClient:
		return "client"
	case FailureConfiguration:
		return "configuration"
	default:
		return "system"
	}
}

// ClientError is an invalid request or a business rule violation. Its message
// is safe to return to the caller verbatim.
type ClientError struct {
	msg string
}

func (e *ClientError) Error() string {
	return e.msg
}

func NewClientError(msg string) error {
	return &ClientError{msg: msg}
}

// ConfigurationError means schedule data needed to answer the request is
// missing, which is an operator data-entry gap rather than a caller mistake.
type ConfigurationError struct {
	msg string
}

func (e *ConfigurationError) Error() string {
	return e.msg
}

func NewConfigurationError(msg string) error {
	return &ConfigurationError{msg: msg}
}

// ClassifyFailure maps err onto the failure taxonomy. Anything that is not a
// client or configuration error is a system error.
func ClassifyFailure(err error) FailureKind {
	if err == nil {
		return FailureNone
	}
	var cErr *ClientError
	if errors.As(err, &cErr) {
		return FailureClient
	}
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return FailureConfiguration
	}
	return FailureSystem
}
