package clock

import (
	"fmt"
	"math"
	"sort"

	"github.com/tenstorrent/perf-timeline/internal/core/model"
	"github.com/tenstorrent/perf-timeline/internal/util"
)

// Correlation aligns one device's cycle counter with one host path's wall
// clock. Derived frequency comes from the aligned cycle markers divided by
// the runtime span; nominal comes from the configured AICLK.
type Correlation struct {
	HostPath            string
	DeviceID            int
	NominalFrequencyGHz float64 // 0 when the device dump carries no clock rate
	DerivedFrequencyGHz float64
	DeviceStartCycle    float64
	DeviceStartTimeNs   float64
	// Authoritative marks the device whose runtime starts earliest among
	// the devices sharing this host path. Deliberate approximation for the
	// multi-device case; kept as documented behavior.
	Authoritative bool
}

// Discrepancy is the comparison data for the frequency-mismatch query. The
// flagging threshold is a consumer choice.
type Discrepancy struct {
	HostPath   string
	DeviceID   int
	DerivedGHz float64
	NominalGHz float64
	Ratio      float64 // |derived-nominal| / nominal
}

// Engine holds every derivable host/device correlation of one loaded bundle.
type Engine struct {
	byHost   map[string][]*Correlation
	byParent map[string]map[int]*Correlation // parent dir → device id → correlation
}

// Host marker name schemas.
func runtimeMarker(deviceID int) string {
	return fmt.Sprintf("device-runtime-device-%d", deviceID)
}
func startCycleMarker(deviceID int) string {
	return fmt.Sprintf("device-start-cycle-aligned-device-%d", deviceID)
}
func endCycleMarker(deviceID int) string {
	return fmt.Sprintf("device-end-cycle-aligned-device-%d", deviceID)
}

// Correlate derives a correlation for every host/device pair that has a
// runtime-span marker plus both aligned cycle markers. Pairs missing any of
// the four inputs are silently skipped, never errors.
func Correlate(rs *model.RecordSet) *Engine {
	e := &Engine{
		byHost:   make(map[string][]*Correlation),
		byParent: make(map[string]map[int]*Correlation),
	}

	for _, hostPath := range sortedKeys(rs.Host) {
		host := rs.Host[hostPath]
		parent := model.ParseFolderPath(hostPath).Parent().String()

		// Sibling device leaves, grouped by device id; first record wins
		// the nominal frequency for its device.
		nominal := make(map[int]float64)
		var deviceIDs []int
		for _, devPath := range sortedKeys(rs.Silicon) {
			rec := rs.Silicon[devPath]
			if model.ParseFolderPath(devPath).Parent().String() != parent || rec.DeviceID < 0 {
				continue
			}
			if _, seen := nominal[rec.DeviceID]; !seen {
				deviceIDs = append(deviceIDs, rec.DeviceID)
				if ghz, ok := rec.NominalFrequencyGHz(); ok {
					nominal[rec.DeviceID] = ghz
				} else {
					nominal[rec.DeviceID] = 0
				}
			}
		}

		var correlations []*Correlation
		for _, deviceID := range deviceIDs {
			corr, ok := correlateDevice(host, hostPath, deviceID)
			if !ok {
				continue
			}
			corr.NominalFrequencyGHz = nominal[deviceID]
			correlations = append(correlations, corr)
		}
		if len(correlations) == 0 {
			continue
		}

		// Earliest runtime start is authoritative for this host path.
		earliest := correlations[0]
		for _, c := range correlations[1:] {
			if c.DeviceStartTimeNs < earliest.DeviceStartTimeNs {
				earliest = c
			}
		}
		earliest.Authoritative = true

		e.byHost[hostPath] = correlations
		byDevice := make(map[int]*Correlation, len(correlations))
		for _, c := range correlations {
			byDevice[c.DeviceID] = c
		}
		e.byParent[parent] = byDevice

		util.LogDebugf("Correlated host %s: %d device(s), authoritative device %d",
			hostPath, len(correlations), earliest.DeviceID)
	}
	return e
}

// correlateDevice computes one host/device pair. Returns false when any of
// the four inputs is absent or the runtime span is degenerate.
func correlateDevice(host *model.HostRecord, hostPath string, deviceID int) (*Correlation, bool) {
	runtime := findEvent(host, runtimeMarker(deviceID))
	startAligned := findEvent(host, startCycleMarker(deviceID))
	endAligned := findEvent(host, endCycleMarker(deviceID))
	if runtime == nil || startAligned == nil || endAligned == nil {
		return nil, false
	}
	if len(runtime.StartNs) == 0 || len(runtime.EndNs) == 0 ||
		len(startAligned.StartNs) == 0 || len(endAligned.StartNs) == 0 {
		return nil, false
	}

	runtimeStart := runtime.StartNs[0]
	runtimeEnd := runtime.EndNs[0]
	startCycle := startAligned.StartNs[0]
	endCycle := endAligned.StartNs[0]
	if runtimeEnd <= runtimeStart {
		return nil, false
	}

	derived := (endCycle - startCycle) / (runtimeEnd - runtimeStart)
	if math.IsNaN(derived) || math.IsInf(derived, 0) || derived <= 0 {
		return nil, false
	}

	return &Correlation{
		HostPath:            hostPath,
		DeviceID:            deviceID,
		DerivedFrequencyGHz: derived,
		DeviceStartCycle:    startCycle,
		DeviceStartTimeNs:   runtimeStart,
	}, true
}

func findEvent(host *model.HostRecord, name string) *model.HostEventDump {
	for i := range host.Events {
		if host.Events[i].Name == name {
			return &host.Events[i]
		}
	}
	return nil
}

// ForDevicePath resolves the correlation a device leaf should use: the one
// computed for the host directory sharing its parent.
func (e *Engine) ForDevicePath(path model.FolderPath, deviceID int) (*Correlation, bool) {
	byDevice, ok := e.byParent[path.Parent().String()]
	if !ok {
		return nil, false
	}
	corr, ok := byDevice[deviceID]
	return corr, ok
}

// ForHostPath returns every correlation derived for one host path.
func (e *Engine) ForHostPath(hostPath string) []*Correlation {
	return e.byHost[hostPath]
}

// Authoritative returns the correlation governing a host path's bounds.
func (e *Engine) Authoritative(hostPath string) (*Correlation, bool) {
	for _, c := range e.byHost[hostPath] {
		if c.Authoritative {
			return c, true
		}
	}
	return nil, false
}

// Discrepancies reports the derived/nominal comparison for every pair where
// both frequencies are known, sorted by host path then device id.
func (e *Engine) Discrepancies() []Discrepancy {
	var out []Discrepancy
	for _, hostPath := range sortedKeys(e.byHost) {
		for _, c := range e.byHost[hostPath] {
			if c.NominalFrequencyGHz <= 0 {
				continue
			}
			out = append(out, Discrepancy{
				HostPath:   c.HostPath,
				DeviceID:   c.DeviceID,
				DerivedGHz: c.DerivedFrequencyGHz,
				NominalGHz: c.NominalFrequencyGHz,
				Ratio:      math.Abs(c.DerivedFrequencyGHz-c.NominalFrequencyGHz) / c.NominalFrequencyGHz,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].HostPath != out[j].HostPath {
			return out[i].HostPath < out[j].HostPath
		}
		return out[i].DeviceID < out[j].DeviceID
	})
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
