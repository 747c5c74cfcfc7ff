// Package blob re-exports core blob abstractions and selects a backend. It is
// the only package allowed to import internal/infra/blob.
package blob

import (
	"github.com/EvalVis/chesscorner/internal/blob/core"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
)

// Supported drivers.
const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
	DriverSQLite     = core.DriverSQLite
	DriverPostgres   = core.DriverPostgres
	DriverHTTP       = core.DriverHTTP
)

var (
	// ErrUnsupported indicates an operation isn't supported by a driver.
	ErrUnsupported = core.ErrUnsupported
	// ErrNotExist marks a missing key.
	ErrNotExist = core.ErrNotExist
	// ErrExists marks a create-only Put on a taken key.
	ErrExists = core.ErrExists
)
