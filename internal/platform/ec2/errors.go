package ec2

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"

	"github.com/imamik/hdcluster/internal/cloud"
)

// EC2 error codes handled by the provider.
const (
	codeRequestLimitExceeded = "RequestLimitExceeded"
	codeThrottling           = "Throttling"
	codeIncorrectState       = "IncorrectState"
	codeInstanceNotFound     = "InvalidInstanceID.NotFound"
	codeGroupNotFound        = "InvalidGroup.NotFound"
	codeVolumeNotFound       = "InvalidVolume.NotFound"
	codePermissionNotFound   = "InvalidPermission.NotFound"
	codeDependencyViolation  = "DependencyViolation"
	codeInsufficientCapacity = "InsufficientInstanceCapacity"
	codeSnapshotNotFound     = "InvalidSnapshot.NotFound"
)

// errorCode returns the API error code of err, or "" if err is not an API
// error.
func errorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// isRetryable reports whether err is throttling, a capacity shortage or a
// consequence of EC2's eventual consistency.
func isRetryable(err error) bool {
	switch errorCode(err) {
	case codeRequestLimitExceeded, codeThrottling, codeIncorrectState,
		codeInstanceNotFound, codeDependencyViolation, codeInsufficientCapacity:
		return true
	}
	return false
}

func isNotFound(err error) bool {
	switch errorCode(err) {
	case codeInstanceNotFound, codeGroupNotFound, codeVolumeNotFound, codeSnapshotNotFound:
		return true
	}
	return false
}

// translate maps not-found API errors onto cloud.ErrNotFound.
func translate(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	if isNotFound(err) {
		return fmt.Errorf("%s: %w: %w", msg, cloud.ErrNotFound, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
