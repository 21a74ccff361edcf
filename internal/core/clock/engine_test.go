package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenstorrent/perf-timeline/internal/core/model"
)

func hostRecord(path string, events ...model.HostEventDump) *model.HostRecord {
	return &model.HostRecord{Path: path, Events: events}
}

func marker(name string, start, end float64) model.HostEventDump {
	return model.HostEventDump{
		Name:     name,
		DeviceID: model.HostEventDeviceID(name),
		StartNs:  []float64{start},
		EndNs:    []float64{end},
	}
}

func correlatedRecordSet() *model.RecordSet {
	rs := model.NewRecordSet()
	rs.Silicon["run/device_0"] = &model.SiliconRecord{
		Path: "run/device_0", DeviceID: 0, AICLKMHz: 1200,
	}
	rs.Host["run/host"] = hostRecord("run/host",
		marker("device-runtime-device-0", 1000, 2000),
		marker("device-start-cycle-aligned-device-0", 1000, 1000),
		marker("device-end-cycle-aligned-device-0", 2000, 2000),
	)
	return rs
}

func TestCorrelateDerivesFrequency(t *testing.T) {
	e := Correlate(correlatedRecordSet())

	corr, ok := e.ForDevicePath(model.ParseFolderPath("run/device_0"), 0)
	require.True(t, ok)

	// 1000 cycles over 1000 ns is exactly 1 GHz.
	assert.InDelta(t, 1.0, corr.DerivedFrequencyGHz, 1e-12)
	assert.InDelta(t, 1.2, corr.NominalFrequencyGHz, 1e-12)
	assert.Equal(t, 1000.0, corr.DeviceStartCycle)
	assert.Equal(t, 1000.0, corr.DeviceStartTimeNs)
	assert.True(t, corr.Authoritative)
	assert.Equal(t, "run/host", corr.HostPath)
}

func TestCorrelateSkipsMissingMarkers(t *testing.T) {
	rs := correlatedRecordSet()
	// Drop the end-cycle marker.
	host := rs.Host["run/host"]
	host.Events = host.Events[:2]

	e := Correlate(rs)
	_, ok := e.ForDevicePath(model.ParseFolderPath("run/device_0"), 0)
	assert.False(t, ok)
	assert.Empty(t, e.ForHostPath("run/host"))
}

func TestCorrelateSkipsDegenerateRuntimeSpan(t *testing.T) {
	rs := model.NewRecordSet()
	rs.Silicon["run/device_0"] = &model.SiliconRecord{Path: "run/device_0", DeviceID: 0}
	rs.Host["run/host"] = hostRecord("run/host",
		marker("device-runtime-device-0", 2000, 2000),
		marker("device-start-cycle-aligned-device-0", 1000, 1000),
		marker("device-end-cycle-aligned-device-0", 2000, 2000),
	)

	e := Correlate(rs)
	_, ok := e.ForDevicePath(model.ParseFolderPath("run/device_0"), 0)
	assert.False(t, ok)
}

func TestCorrelateSkipsNonPositiveDerived(t *testing.T) {
	rs := model.NewRecordSet()
	rs.Silicon["run/device_0"] = &model.SiliconRecord{Path: "run/device_0", DeviceID: 0}
	// End cycle before start cycle yields a negative frequency.
	rs.Host["run/host"] = hostRecord("run/host",
		marker("device-runtime-device-0", 1000, 2000),
		marker("device-start-cycle-aligned-device-0", 5000, 5000),
		marker("device-end-cycle-aligned-device-0", 4000, 4000),
	)

	e := Correlate(rs)
	_, ok := e.ForDevicePath(model.ParseFolderPath("run/device_0"), 0)
	assert.False(t, ok)
}

func TestCorrelateEarliestDeviceIsAuthoritative(t *testing.T) {
	rs := model.NewRecordSet()
	rs.Silicon["run/device_0"] = &model.SiliconRecord{Path: "run/device_0", DeviceID: 0, AICLKMHz: 1200}
	rs.Silicon["run/device_1"] = &model.SiliconRecord{Path: "run/device_1", DeviceID: 1, AICLKMHz: 1200}
	rs.Host["run/host"] = hostRecord("run/host",
		marker("device-runtime-device-0", 5000, 9000),
		marker("device-start-cycle-aligned-device-0", 100, 100),
		marker("device-end-cycle-aligned-device-0", 4100, 4100),
		marker("device-runtime-device-1", 1000, 9000),
		marker("device-start-cycle-aligned-device-1", 200, 200),
		marker("device-end-cycle-aligned-device-1", 8200, 8200),
	)

	e := Correlate(rs)
	correlations := e.ForHostPath("run/host")
	require.Len(t, correlations, 2)

	auth, ok := e.Authoritative("run/host")
	require.True(t, ok)
	assert.Equal(t, 1, auth.DeviceID, "device with earliest runtime start wins")

	for _, c := range correlations {
		if c.DeviceID != auth.DeviceID {
			assert.False(t, c.Authoritative)
		}
	}
}

func TestCorrelateIgnoresNonSiblingDevices(t *testing.T) {
	rs := correlatedRecordSet()
	rs.Silicon["elsewhere/device_0"] = &model.SiliconRecord{Path: "elsewhere/device_0", DeviceID: 0}

	e := Correlate(rs)
	_, ok := e.ForDevicePath(model.ParseFolderPath("elsewhere/device_0"), 0)
	assert.False(t, ok)
}

func TestDiscrepancies(t *testing.T) {
	e := Correlate(correlatedRecordSet())

	ds := e.Discrepancies()
	require.Len(t, ds, 1)
	d := ds[0]
	assert.Equal(t, "run/host", d.HostPath)
	assert.Equal(t, 0, d.DeviceID)
	assert.InDelta(t, 1.0, d.DerivedGHz, 1e-12)
	assert.InDelta(t, 1.2, d.NominalGHz, 1e-12)
	// |1.0 - 1.2| / 1.2
	assert.InDelta(t, 0.1666667, d.Ratio, 1e-6)
}

func TestDiscrepanciesSkipUnknownNominal(t *testing.T) {
	rs := correlatedRecordSet()
	rs.Silicon["run/device_0"].AICLKMHz = 0

	e := Correlate(rs)
	assert.Empty(t, e.Discrepancies())
	// The correlation itself still exists.
	_, ok := e.ForDevicePath(model.ParseFolderPath("run/device_0"), 0)
	assert.True(t, ok)
}
