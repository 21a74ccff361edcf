package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFolderPathRoundTrip(t *testing.T) {
	p := ParseFolderPath("test/fwd_0/device_0")
	assert.Equal(t, FolderPath{"test", "fwd_0", "device_0"}, p)
	assert.Equal(t, "test/fwd_0/device_0", p.String())

	assert.Empty(t, ParseFolderPath(""))
}

func TestFolderPathParentLeaf(t *testing.T) {
	p := ParseFolderPath("a/b/c")
	assert.Equal(t, "a/b", p.Parent().String())
	assert.Equal(t, "c", p.Leaf())

	assert.Nil(t, FolderPath(nil).Parent())
	assert.Equal(t, "", FolderPath(nil).Leaf())
}

func TestFolderPathSiblingOf(t *testing.T) {
	a := ParseFolderPath("run/fwd_0/dev0")
	b := ParseFolderPath("run/fwd_0/dev1")
	c := ParseFolderPath("run/bwd_0/dev0")

	assert.True(t, a.SiblingOf(b))
	assert.False(t, a.SiblingOf(c))
	assert.False(t, a.SiblingOf(ParseFolderPath("run/fwd_0")))
}

func TestFolderPathCloneIsIndependent(t *testing.T) {
	p := ParseFolderPath("a/b")
	q := p.Clone()
	q[0] = "z"
	assert.Equal(t, "a", p[0])
	assert.True(t, p.Equal(ParseFolderPath("a/b")))
	assert.False(t, p.Equal(q))
}

func TestClassifyDumpFile(t *testing.T) {
	tests := []struct {
		name string
		kind DumpKind
		arg  int
	}{
		{"perf_postprocess.json", DumpSilicon, -1},
		{"perf_postprocess_epoch_3.json", DumpSilicon, 3},
		{"runtime_table.json", DumpModel, -1},
		{"runtime_table_epoch_12.json", DumpModel, 12},
		{"perf_info_all_proc_4242.json", DumpHost, 4242},
		{"proc_7.json", DumpHost, 7},
		{"perf_graph_fwd_0.dot", DumpGraph, -1},
		{"notes.txt", DumpUnknown, -1},
		{"perf_postprocess.json.bak", DumpUnknown, -1},
	}
	for _, tt := range tests {
		kind, arg := ClassifyDumpFile(tt.name)
		assert.Equal(t, tt.kind, kind, tt.name)
		assert.Equal(t, tt.arg, arg, tt.name)
	}
}

func TestParseOpName(t *testing.T) {
	x, y, name, ok := ParseOpName("2-3-matmul_17")
	require.True(t, ok)
	assert.Equal(t, 2, x)
	assert.Equal(t, 3, y)
	assert.Equal(t, "matmul_17", name)

	// Op names may themselves contain dashes.
	_, _, name, ok = ParseOpName("0-0-fused-op-12")
	require.True(t, ok)
	assert.Equal(t, "fused-op-12", name)

	_, _, _, ok = ParseOpName("per-epoch-events")
	assert.False(t, ok)
	_, _, _, ok = ParseOpName("matmul")
	assert.False(t, ok)
}

func TestClassifyFieldKey(t *testing.T) {
	tests := []struct {
		key       string
		kind      FieldKind
		stream    int
		secondary bool
	}{
		{"epoch", FieldEpochTotal, -1, false},
		{"epoch-prologue", FieldEpochPrologue, -1, false},
		{"epoch-loop", FieldEpochLoop, -1, false},
		{"epoch-epilogue", FieldEpochEpilogue, -1, false},
		{"q-slot-complete-stream-5", FieldQSlotComplete, 5, false},
		{"dram-read-stream-8", FieldDramRead, 8, false},
		{"dram-read-stream-8-1", FieldDramRead, 8, false},
		{"dram-write-sent-stream-2", FieldDramWrite, 2, false},
		{"dram-write-tile-cleared-stream-2", FieldDramWrite, 2, true},
		{"buffer-status-stream-10", FieldBufferStatus, 10, false},
		{"misc-info-stream-1", FieldMiscInfo, 1, false},
	}
	for _, tt := range tests {
		kind, stream, secondary, ok := ClassifyFieldKey(tt.key)
		require.True(t, ok, tt.key)
		assert.Equal(t, tt.kind, kind, tt.key)
		assert.Equal(t, tt.stream, stream, tt.key)
		assert.Equal(t, tt.secondary, secondary, tt.key)
	}

	_, _, _, ok := ClassifyFieldKey("unrecognized-key")
	assert.False(t, ok)
}

func TestHostEventDeviceID(t *testing.T) {
	assert.Equal(t, 3, HostEventDeviceID("device-runtime-device-3"))
	assert.Equal(t, 0, HostEventDeviceID("device-start-cycle-aligned-device-0"))
	assert.Equal(t, -1, HostEventDeviceID("process-run"))
}

func TestRecordSetPrune(t *testing.T) {
	rs := NewRecordSet()
	rs.Silicon["a"] = &SiliconRecord{Path: "a"}
	rs.Model["a"] = &SiliconRecord{Path: "a"}
	rs.Model["orphan"] = &SiliconRecord{Path: "orphan"}
	rs.Graph["a"] = &GraphRecord{Path: "a"}
	rs.Graph["orphan"] = &GraphRecord{Path: "orphan"}
	rs.Host["h"] = &HostRecord{Path: "h"}

	rs.Prune()

	assert.Contains(t, rs.Model, "a")
	assert.NotContains(t, rs.Model, "orphan")
	assert.Contains(t, rs.Graph, "a")
	assert.NotContains(t, rs.Graph, "orphan")
	// Host records are never pruned.
	assert.Contains(t, rs.Host, "h")
}

func TestNominalFrequencyGHz(t *testing.T) {
	rec := &SiliconRecord{AICLKMHz: 1202}
	ghz, ok := rec.NominalFrequencyGHz()
	require.True(t, ok)
	assert.InDelta(t, 1.202, ghz, 1e-9)

	_, ok = (&SiliconRecord{}).NominalFrequencyGHz()
	assert.False(t, ok)
}
