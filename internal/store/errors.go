package store

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for store operations.
var (
	ErrNotFound           = errors.New("object not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrBucketNotFound     = errors.New("bucket not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnavailable        = errors.New("storage service unavailable")
	ErrThrottled          = errors.New("request throttled")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrUnknownDriver      = errors.New("unknown storage driver")
)

// Error wraps a driver error with the operation context.
type Error struct {
	Op     string
	Driver string
	Bucket string
	Key    string

	// Message is the backend's own description, kept for display.
	Message string

	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Key != "" {
		return fmt.Sprintf("%s %s: %s/%s: %s", e.Driver, e.Op, e.Bucket, e.Key, msg)
	}
	if e.Bucket != "" {
		return fmt.Sprintf("%s %s: %s: %s", e.Driver, e.Op, e.Bucket, msg)
	}
	return fmt.Sprintf("%s %s: %s", e.Driver, e.Op, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err means the object or bucket does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrBucketNotFound)
}

// IsAccessDenied reports whether err is an authorization failure.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied) || errors.Is(err, ErrInvalidCredentials)
}

// sentinelForCode maps an S3 error code to a sentinel. Both drivers speak the
// same error vocabulary.
func sentinelForCode(code string) error {
	switch code {
	case "NoSuchKey", "NotFound":
		return ErrNotFound
	case "NoSuchBucket":
		return ErrBucketNotFound
	case "AccessDenied", "Forbidden", "AllAccessDisabled":
		return ErrAccessDenied
	case "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
		return ErrInvalidCredentials
	case "SlowDown", "Throttling", "RequestLimitExceeded", "TooManyRequests":
		return ErrThrottled
	case "ServiceUnavailable", "InternalError", "XMinioServerNotInitialized":
		return ErrUnavailable
	case "InvalidArgument":
		return ErrInvalidArgument
	}
	return nil
}

// sentinelForMessage is the fallback when no structured code is available.
func sentinelForMessage(msg string) error {
	switch {
	case strings.Contains(msg, "NoSuchBucket"):
		return ErrBucketNotFound
	case strings.Contains(msg, "NoSuchKey") || strings.Contains(msg, "404"):
		return ErrNotFound
	case strings.Contains(msg, "AccessDenied") || strings.Contains(msg, "403"):
		return ErrAccessDenied
	case strings.Contains(msg, "InvalidAccessKeyId") || strings.Contains(msg, "SignatureDoesNotMatch"):
		return ErrInvalidCredentials
	case strings.Contains(msg, "SlowDown") || strings.Contains(msg, "429"):
		return ErrThrottled
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "503"):
		return ErrUnavailable
	case strings.Contains(msg, "InvalidArgument"):
		return ErrInvalidArgument
	}
	return nil
}
