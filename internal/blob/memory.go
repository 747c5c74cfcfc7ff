package blob

import (
	memorystore "github.com/EvalVis/chesscorner/internal/infra/blob/memory"
)

// NewMemory returns an in-memory blob.Store.
func NewMemory() Store { return memorystore.New() }
