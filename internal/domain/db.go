package domain

import "context"

// Database is the storage engine behind the user and resume repositories.
// main opens, migrates and closes it; the health check pings it.
type Database interface {
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
