// Package playercache stores extracted player function sets keyed by player
// version. Player versions retire on a release cadence rather than an
// access-recency basis, so expiry is a fixed window from write time.
package playercache

import (
	"time"

	"github.com/ytget/ytstream/types"
)

// DefaultTTL is how long a stored function set stays valid after write.
const DefaultTTL = 7 * 24 * time.Hour

// Cache stores one PlayerFunctionSet per player version. Implementations are
// safe for concurrent use; two requests racing on a miss for the same version
// may both extract and both write, which is harmless because entries are
// idempotent per version.
type Cache interface {
	Get(version string) (types.PlayerFunctionSet, bool)
	Put(version string, set types.PlayerFunctionSet)
}
