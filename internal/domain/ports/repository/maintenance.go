package repository

import "context"

// Maintenance exposes destructive store operations used only in dev mode.
type Maintenance interface {
	DropAll(ctx context.Context) error
}
