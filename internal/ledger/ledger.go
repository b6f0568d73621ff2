package ledger

import "github.com/zombor/receipt-reel/internal/vision"

// Frame holds the extraction results for one distinct frame: the raw
// items in reading order plus the receipt date found on the frame, if
// any. Frame order is semantically significant, since adjacent frames
// of a panned video often show the same physical receipt lines.
type Frame struct {
	Items []vision.Item
	Date  string
}

// Row is one line of the final ledger.
type Row struct {
	Date      string  `json:"date,omitempty"` // empty when no date was found
	Quantity  int     `json:"quantity"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
}
