package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Configuration & Environment Errors
var (
	ErrConfigMissing = errors.New("configuration missing")
	ErrConfigInvalid = errors.New("configuration invalid")
)

// Object Storage Errors
var (
	ErrObjectStore        = errors.New("object storage failure")
	ErrServiceUnreachable = errors.New("service unreachable")
)

func NewConfigMissingError(key string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrConfigMissing,
		Details:    fmt.Sprintf("Configuration %s is not set", key),
		Field:      key,
	}
}

func NewConfigInvalidError(key string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrConfigInvalid,
		Details:    fmt.Sprintf("Configuration %s is invalid", key),
		Cause:      cause,
		Field:      key,
	}
}

func NewObjectStoreError(operation string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadGateway,
		err:        ErrObjectStore,
		Details:    fmt.Sprintf("Object storage failed during %s", operation),
		Cause:      cause,
		Field:      "storage",
	}
}

func NewServiceUnreachableError(service string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusServiceUnavailable,
		err:        ErrServiceUnreachable,
		Details:    fmt.Sprintf("%s is unreachable", service),
		Cause:      cause,
		Field:      "service",
	}
}

func IsConfigMissingError(err error) bool {
	return errors.Is(err, ErrConfigMissing)
}

func IsConfigInvalidError(err error) bool {
	return errors.Is(err, ErrConfigInvalid)
}

func IsObjectStoreError(err error) bool {
	return errors.Is(err, ErrObjectStore)
}

func IsServiceUnreachableError(err error) bool {
	return errors.Is(err, ErrServiceUnreachable)
}
