package vision

import "context"

// Item is one candidate line item reported by the model for a single
// frame. Size and UnitPrice are loosely typed on purpose: models emit
// numbers, numeric strings, junk strings, or null, and coercion policy
// belongs to the aggregator.
type Item struct {
	Name      string `json:"item_name"`
	Size      any    `json:"item_size"`
	UnitPrice any    `json:"price_per_unit"`
}

// Service is the boundary to the vision/language model.
type Service interface {
	// ExtractItems returns the raw line items visible in one frame
	// image. A response the model garbled yields zero items, not an
	// error; errors are reserved for transport and model failures.
	ExtractItems(ctx context.Context, image []byte) ([]Item, error)

	// ExtractDate returns the receipt date visible in one frame as an
	// MM/DD/YY string, or "" when none is found or the date is too far
	// in the past to be plausible.
	ExtractDate(ctx context.Context, image []byte) (string, error)

	// Close releases model resources.
	Close() error
}
