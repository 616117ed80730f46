package assetstores

import (
	"fmt"

	"github.com/stablelink/stablelink/conf"
)

// Store signs a product download link right before it is handed to a
// buyer, so the stored locator never grants access by itself.
type Store interface {
	SignURL(string) (string, error)
}

// NewStore creates the configured asset store provider.
func NewStore(config *conf.Configuration) (Store, error) {
	switch config.Downloads.Provider {
	case "netlify":
		return newNetlifyProvider(config.Downloads.NetlifyToken)
	case "":
		return newNoopProvider()
	default:
		return nil, fmt.Errorf("Unknown asset store provider '%v'", config.Downloads.Provider)
	}
}
