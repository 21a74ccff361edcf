package timeline

import (
	"github.com/tenstorrent/perf-timeline/internal/util"
)

// Unit returns the model's current display unit.
func (m *Model) Unit() Unit {
	return m.unit
}

// FrequencyMode returns the model's current conversion mode.
func (m *Model) FrequencyMode() FrequencyMode {
	return m.freq
}

// SetUnit switches every op's view to the requested unit. Switching to the
// unit already active is a no-op; views are always recomputed from the stored
// cycle values, so repeated switches round-trip exactly.
func (m *Model) SetUnit(u Unit) {
	if m.unit == u {
		return
	}
	m.unit = u
	m.refreshViews()
	util.LogDebugf("Timeline unit switched to %s", u)
}

// SetFrequencyMode switches between the derived and nominal clock estimates.
// Only affects views while the unit is nanoseconds.
func (m *Model) SetFrequencyMode(f FrequencyMode) {
	if m.freq == f {
		return
	}
	m.freq = f
	m.refreshViews()
	util.LogDebugf("Timeline frequency mode switched to %s", f)
}

func (m *Model) refreshViews() {
	for _, op := range m.CoreOps {
		op.unit = m.unit
		op.freq = m.freq
		op.refreshView()
	}
}

// frequencyGHz picks the conversion frequency for the active mode. Nominal
// mode with no configured clock rate leaves the pair unconvertible.
func (op *CoreOp) frequencyGHz() (float64, bool) {
	if op.corr == nil {
		return 0, false
	}
	if op.freq == FrequencyNominal {
		if op.corr.NominalFrequencyGHz <= 0 {
			return 0, false
		}
		return op.corr.NominalFrequencyGHz, true
	}
	return op.corr.DerivedFrequencyGHz, true
}

// refreshView recomputes Times from the stored cycle values. An op whose
// clock cannot be aligned keeps its cycle view regardless of the requested
// unit; callers observe that through Unit().
func (op *CoreOp) refreshView() {
	if op.unit == UnitNanoseconds {
		if ghz, ok := op.frequencyGHz(); ok {
			startCycle := op.corr.DeviceStartCycle
			startNs := op.corr.DeviceStartTimeNs
			op.Times = op.raw.transform(func(cycle float64) float64 {
				return (cycle-startCycle)/ghz + startNs
			})
			return
		}
		op.unit = UnitCycles
	}
	op.Times = op.raw.transform(func(v float64) float64 { return v })
}
