package blob

import (
	"context"
	"fmt"
)

// Options selects and configures a backend. Zero values fall back to driver
// defaults.
type Options struct {
	Driver      Driver
	FSRoot      string
	S3          S3Config
	SQLitePath  string
	PostgresDSN string
	HTTPBase    string
}

// Open constructs the Store named by opts.Driver (default fs).
func Open(ctx context.Context, opts Options) (Store, error) {
	driver := opts.Driver
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return NewFilesystem(opts.FSRoot)
	case DriverS3:
		return NewS3(ctx, opts.S3)
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		return NewSQLite(ctx, opts.SQLitePath)
	case DriverPostgres:
		return NewPostgres(ctx, opts.PostgresDSN)
	case DriverHTTP:
		if opts.HTTPBase == "" {
			return nil, fmt.Errorf("http driver requires a base url")
		}
		return NewHTTP(opts.HTTPBase)
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
