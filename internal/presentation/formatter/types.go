package formatter

// RowData is one rendered timeline row: a core op or a host event.
type RowData struct {
	Row        int      `json:"row"`
	Kind       string   `json:"kind"` // "core-op" or "host-event"
	Label      string   `json:"label"`
	Path       string   `json:"path"`
	Core       string   `json:"core,omitempty"`
	DeviceID   int      `json:"deviceId"`
	EpochID    int      `json:"epochId,omitempty"`
	ProcessID  int      `json:"processId,omitempty"`
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Duration   float64  `json:"duration"`
	Fields     []string `json:"fields,omitempty"`
	Correlated bool     `json:"correlated"`
}

// DiscrepancyData flags one host/device pair whose derived frequency strays
// from the configured clock.
type DiscrepancyData struct {
	HostPath   string  `json:"hostPath"`
	DeviceID   int     `json:"deviceId"`
	DerivedGHz float64 `json:"derivedGHz"`
	NominalGHz float64 `json:"nominalGHz"`
	Ratio      float64 `json:"ratio"`
	Flagged    bool    `json:"flagged"`
}

// BoundsData is the visible envelope after left-bound normalization.
type BoundsData struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Report is the full renderable view of one loaded bundle.
type Report struct {
	Bundle        string            `json:"bundle"`
	Mode          string            `json:"mode"`
	Unit          string            `json:"unit"`
	FrequencyMode string            `json:"frequencyMode"`
	Bounds        *BoundsData       `json:"bounds,omitempty"`
	Rows          []RowData         `json:"rows"`
	Discrepancies []DiscrepancyData `json:"discrepancies,omitempty"`
}

// Formatter renders a report to stdout.
type Formatter interface {
	Format(report *Report) error
}

// New returns the formatter for an output format name, defaulting to table.
func New(format string) Formatter {
	switch format {
	case "json":
		return NewJSONFormatter()
	case "csv":
		return NewCSVFormatter()
	case "summary":
		return NewSummaryFormatter()
	default:
		return NewTableFormatter()
	}
}
