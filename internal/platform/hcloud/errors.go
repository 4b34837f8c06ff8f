package hcloud

import (
	"errors"
	"fmt"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/hdcluster/internal/cloud"
)

// isResourceLocked checks if an error indicates a resource is locked.
// Locked resources typically occur during snapshot creation or other
// long-running operations. These errors are retryable.
func isResourceLocked(err error) bool {
	return isHCloudErrorCode(err,
		hcloud.ErrorCodeLocked,         // Item is locked (action running)
		hcloud.ErrorCodeConflict,       // Resource changed during request
		hcloud.ErrorCodeResourceLocked, // Resource locked (contact support)
		hcloud.ErrorCodeResourceUnavailable,
	)
}

// isResourceInUse reports whether a resource cannot be deleted yet because
// other resources still reference it, such as a firewall applied to servers
// that are shutting down.
func isResourceInUse(err error) bool {
	return isHCloudErrorCode(err, hcloud.ErrorCode("resource_in_use"))
}

// isHCloudErrorCode checks if the error is an hcloud API error with one of the given codes.
func isHCloudErrorCode(err error, codes ...hcloud.ErrorCode) bool {
	if err == nil {
		return false
	}

	var hcloudErr hcloud.Error
	if errors.As(err, &hcloudErr) {
		for _, code := range codes {
			if hcloudErr.Code == code {
				return true
			}
		}
	}
	return false
}

// IsNotFound checks if an error indicates a resource was not found.
func IsNotFound(err error) bool {
	return isHCloudErrorCode(err, hcloud.ErrorCodeNotFound)
}

// IsRateLimited checks if an error indicates rate limiting.
func IsRateLimited(err error) bool {
	return isHCloudErrorCode(err, hcloud.ErrorCodeRateLimitExceeded)
}

// isRetryable reports whether a failed call may succeed when repeated.
func isRetryable(err error) bool {
	return isResourceLocked(err) || IsRateLimited(err)
}

// translate wraps err with an operation description, marking not-found API
// errors with cloud.ErrNotFound.
func translate(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	if IsNotFound(err) {
		return fmt.Errorf("%s: %w: %w", msg, cloud.ErrNotFound, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
