package canvas

// Tool identifies the drawing tool a stroke was made with
type Tool string

const (
	ToolBrush  Tool = "brush"
	ToolEraser Tool = "eraser"
)

// A single coordinate on the canvas
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is one polyline drawn by one participant. Once committed to the
// ledger it is never mutated; while in flight, points are append-only.
type Stroke struct {
	ID          string  `json:"id"`
	UserID      string  `json:"userId"`
	Tool        Tool    `json:"tool"`
	Color       string  `json:"color"`
	StrokeWidth float64 `json:"strokeWidth"`
	Points      []Point `json:"points"`
	Timestamp   int64   `json:"timestamp"` // epoch milliseconds
}
