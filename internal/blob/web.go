package blob

import (
	"github.com/EvalVis/chesscorner/internal/infra/blob/web"
)

// NewHTTP returns a read-only blob.Store fetching keys below base.
func NewHTTP(base string) (Store, error) {
	return web.New(base, nil)
}
