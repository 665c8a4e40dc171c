package ports

import (
	"context"

	"refugia/domain/atlas"
)

// FeatureSource is the ingestion boundary: any collaborator that can produce
// feature datasets in the normalized shape the engine consumes. The source
// owns acquisition and parsing of whatever raw representation it reads;
// malformed records it cannot filter are dropped downstream by the dataset
// builder.
type FeatureSource interface {
	// Load returns the feature datasets in a fixed, deterministic order.
	// The order matters: population deduplication is first-seen-wins.
	Load(ctx context.Context) ([]atlas.FeatureDataset, error)
}
