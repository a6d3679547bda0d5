/*
Copyright 2024 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package compute defines the side-effectful external collaborator that
// executes live migrations (spec.md §6), along with the three error
// kinds the control loop is required to recognize and tolerate.
package compute

import (
	"context"
	"errors"
	"fmt"
)

// Kind identifies one of the well-known dispatch error kinds.
type Kind int

const (
	// KindUnknown is any error not in the recoverable set; the loop
	// propagates it and aborts the remainder of the tick.
	KindUnknown Kind = iota
	// KindInstanceInvalidState means the instance is no longer in a
	// state that supports migration (e.g. it was deleted or resized
	// concurrently).
	KindInstanceInvalidState
	// KindInstanceNotFound means the instance no longer exists.
	KindInstanceNotFound
	// KindMigrationPreCheck means the destination host became
	// infeasible because of concurrent cluster activity.
	KindMigrationPreCheck
)

// Error wraps a dispatch failure with its Kind so callers can classify it
// with errors.As without string matching.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// Recoverable reports whether the error is one of the three kinds the
// control loop logs and swallows rather than aborting the tick for.
func (e *Error) Recoverable() bool {
	switch e.Kind {
	case KindInstanceInvalidState, KindInstanceNotFound, KindMigrationPreCheck:
		return true
	default:
		return false
	}
}

// NewInstanceInvalidState builds a recoverable Error for an instance
// whose state no longer supports migration.
func NewInstanceInvalidState(instanceID int64) error {
	return &Error{Kind: KindInstanceInvalidState, Err: fmt.Errorf("instance %d is not in a migratable state", instanceID)}
}

// NewInstanceNotFound builds a recoverable Error for a vanished instance.
func NewInstanceNotFound(instanceID int64) error {
	return &Error{Kind: KindInstanceNotFound, Err: fmt.Errorf("instance %d not found", instanceID)}
}

// NewMigrationPreCheck builds a recoverable Error for a destination that
// became infeasible between planning and dispatch.
func NewMigrationPreCheck(instanceID int64, destination string) error {
	return &Error{Kind: KindMigrationPreCheck, Err: fmt.Errorf("pre-check failed migrating instance %d to %s", instanceID, destination)}
}

// ClassifyKind extracts the Kind from err, returning KindUnknown for any
// error that is not a *Error (including nil, for which it also returns
// KindUnknown).
func ClassifyKind(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

// Client is the side-effectful compute action API (spec.md §6).
type Client interface {
	// LiveMigrate triggers migration of instanceID onto destination.
	// block and overCommit mirror nova's block_migration/disk_over_commit
	// flags; the control loop always calls with block=false,
	// overCommit=false (spec.md §4.F step 3).
	LiveMigrate(ctx context.Context, instanceID int64, block, overCommit bool, destination string) error
}
