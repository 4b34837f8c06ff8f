package hcloud

import (
	"context"
	"fmt"
	"reflect"

	"github.com/imamik/hdcluster/internal/util/retry"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// CreateResult wraps the result of a resource creation call together with
// the actions that have to finish before the resource is usable.
type CreateResult[T any] struct {
	Resource T
	Action   *hcloud.Action
	Actions  []*hcloud.Action
}

// DeleteOperation deletes an hcloud resource looked up by ID or name.
//
//	func (p *Provider) DeleteGroup(ctx context.Context, name string) error {
//	    return (&DeleteOperation[*hcloud.Firewall]{
//	        Name:         name,
//	        ResourceType: "firewall",
//	        Get:          p.client.Firewall.Get,
//	        Delete:       p.client.Firewall.Delete,
//	    }).Execute(ctx, p)
//	}
type DeleteOperation[T any] struct {
	Name         string
	ResourceType string

	Get    func(ctx context.Context, idOrName string) (T, *hcloud.Response, error)
	Delete func(ctx context.Context, resource T) (*hcloud.Response, error)

	// Missing, when set, is returned if the resource does not exist.
	// Otherwise a missing resource counts as deleted.
	Missing error
}

// Execute runs the deletion. Locked and in-use resources are retried with
// exponential backoff until the delete timeout expires.
func (op *DeleteOperation[T]) Execute(ctx context.Context, p *Provider) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeouts.Delete)
	defer cancel()

	return retry.WithExponentialBackoff(ctx, func() error {
		resource, _, err := op.Get(ctx, op.Name)
		if err != nil {
			return retry.Fatal(fmt.Errorf("failed to get %s: %w", op.ResourceType, err))
		}
		if reflect.ValueOf(resource).IsNil() {
			if op.Missing != nil {
				return retry.Fatal(fmt.Errorf("%s %s: %w", op.ResourceType, op.Name, op.Missing))
			}
			return nil
		}

		if _, err := op.Delete(ctx, resource); err != nil {
			if isResourceLocked(err) || isResourceInUse(err) {
				return err
			}
			return retry.Fatal(fmt.Errorf("failed to delete %s %s: %w", op.ResourceType, op.Name, err))
		}
		return nil
	},
		retry.WithMaxRetries(p.timeouts.RetryMaxAttempts),
		retry.WithInitialDelay(p.timeouts.RetryInitialDelay))
}

// EnsureOperation implements get-or-create for an hcloud resource. An
// existing resource is validated, when Validate is set, and returned as is.
type EnsureOperation[T any, CreateOpts any] struct {
	Name         string
	ResourceType string

	Get    func(ctx context.Context, idOrName string) (T, *hcloud.Response, error)
	Create func(ctx context.Context, opts CreateOpts) (*CreateResult[T], *hcloud.Response, error)

	Validate         func(resource T) error
	CreateOptsMapper func() CreateOpts
}

// Execute returns the existing resource or creates it and waits for the
// creation actions.
func (op *EnsureOperation[T, CreateOpts]) Execute(ctx context.Context, p *Provider) (T, error) {
	var zero T

	resource, _, err := op.Get(ctx, op.Name)
	if err != nil {
		return zero, fmt.Errorf("failed to get %s: %w", op.ResourceType, err)
	}

	if !reflect.ValueOf(resource).IsNil() {
		if op.Validate != nil {
			if err := op.Validate(resource); err != nil {
				return zero, err
			}
		}
		return resource, nil
	}

	result, _, err := op.Create(ctx, op.CreateOptsMapper())
	if err != nil {
		return zero, fmt.Errorf("failed to create %s: %w", op.ResourceType, err)
	}
	if err := waitForActionResult(ctx, p.client, result); err != nil {
		return zero, fmt.Errorf("failed to wait for %s creation: %w", op.ResourceType, err)
	}
	return result.Resource, nil
}

// waitForActions waits for the given actions. No actions is a no-op.
func waitForActions(ctx context.Context, client *hcloud.Client, actions ...*hcloud.Action) error {
	if len(actions) == 0 {
		return nil
	}
	return client.Action.WaitFor(ctx, actions...)
}

func waitForActionResult[T any](ctx context.Context, client *hcloud.Client, result *CreateResult[T]) error {
	actions := result.Actions
	if result.Action != nil {
		actions = append([]*hcloud.Action{result.Action}, actions...)
	}
	return waitForActions(ctx, client, actions...)
}
