package equiv

import "fmt"

// Tolerance bounds how far two runs may differ and still count as equivalent.
// Integer spike counts should normally be compared with MaxCountDelta 0;
// MaxStateDrift applies to membrane potential traces.
type Tolerance struct {
	MaxCountDelta int     `yaml:"max_count_delta" json:"max_count_delta"`
	MaxStateDrift float64 `yaml:"max_state_drift" json:"max_state_drift"`
}

// Exact requires identical counts and identical state traces.
var Exact = Tolerance{}

func (t Tolerance) Validate() error {
	if t.MaxCountDelta < 0 {
		return fmt.Errorf("equiv: max_count_delta must be >= 0, got %d", t.MaxCountDelta)
	}
	if t.MaxStateDrift < 0 || t.MaxStateDrift != t.MaxStateDrift {
		return fmt.Errorf("equiv: max_state_drift must be >= 0, got %v", t.MaxStateDrift)
	}
	return nil
}
