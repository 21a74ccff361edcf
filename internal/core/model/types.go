package model

import (
	"regexp"
	"strconv"
)

// FieldKind enumerates the recognized per-op field families of a device dump.
// Every dynamic key of the NCRISC section is matched against this fixed set
// once, at ingestion; downstream code never re-inspects key strings.
type FieldKind int

const (
	FieldEpochTotal FieldKind = iota
	FieldEpochPrologue
	FieldEpochLoop
	FieldEpochEpilogue
	FieldQSlotComplete
	FieldDramRead
	FieldDramWrite
	FieldBufferStatus
	FieldMiscInfo
	numFieldKinds
)

// NumFieldKinds is the count of recognized field kinds.
const NumFieldKinds = int(numFieldKinds)

func (k FieldKind) String() string {
	switch k {
	case FieldEpochTotal:
		return "epoch"
	case FieldEpochPrologue:
		return "epoch-prologue"
	case FieldEpochLoop:
		return "epoch-loop"
	case FieldEpochEpilogue:
		return "epoch-epilogue"
	case FieldQSlotComplete:
		return "q-slot-complete"
	case FieldDramRead:
		return "dram-read"
	case FieldDramWrite:
		return "dram-write"
	case FieldBufferStatus:
		return "buffer-status"
	case FieldMiscInfo:
		return "misc-info"
	default:
		return "unknown"
	}
}

// IsEpochPhase reports whether the kind is one of the four epoch intervals.
func (k FieldKind) IsEpochPhase() bool {
	switch k {
	case FieldEpochTotal, FieldEpochPrologue, FieldEpochLoop, FieldEpochEpilogue:
		return true
	}
	return false
}

// OpField is one populated field of a device op, in device cycles.
// Interpretation by kind:
//   - epoch phases: Start/End
//   - q-slot-complete: Primary holds the completion timestamps
//   - dram-read: Primary "chunk-read-issued", Secondary "tiles-flushed"
//   - dram-write: Primary "sent", Secondary "tile-cleared"
//   - buffer-status: Primary "buf-available", Secondary "buf-full"
//   - misc-info: Primary holds consecutive-paired timestamps
type OpField struct {
	Kind      FieldKind
	Stream    int // -1 for epoch phases
	Start     float64
	End       float64
	Primary   []float64
	Secondary []float64
}

// OpDump is one device operation instance of a silicon or model record.
type OpDump struct {
	CoreOpID int // global encounter order within one ingestion pass
	OpName   string
	CoreX    int
	CoreY    int
	Fields   []OpField
}

// SiliconRecord is the decoded content of one device dump file. Model
// (reference) dumps share the shape and are held in the same type.
type SiliconRecord struct {
	Path      string // FolderPath key
	EpochIdx  int    // from the filename epoch variant, -1 otherwise
	DeviceID  int
	AICLKMHz  float64 // configured clock rate; /1000 is the nominal GHz
	EpochID   int
	GraphName string
	Ops       []OpDump
}

// NominalFrequencyGHz derives GHz from the configured AICLK field.
// Returns false when the record carries no clock-rate field.
func (r *SiliconRecord) NominalFrequencyGHz() (float64, bool) {
	if r.AICLKMHz <= 0 {
		return 0, false
	}
	return r.AICLKMHz / 1000.0, true
}

// HostEventDump is one named host-process event series.
type HostEventDump struct {
	EventID   int // global encounter order within one ingestion pass
	Name      string
	ProcessID int // from the dump filename
	DeviceID  int // from the -device-<id> name suffix, -1 when unscoped
	StartNs   []float64
	EndNs     []float64
}

// HostRecord aggregates the host-process dumps found under one host directory.
type HostRecord struct {
	Path   string
	Events []HostEventDump
}

// GraphNode is one node of a graph-topology dump.
type GraphNode struct {
	ID      int
	Label   string
	IsQueue bool
}

// GraphEdge is one directed edge of a graph-topology dump.
type GraphEdge struct {
	Src    int
	Dst    int
	Stream string
}

// GraphRecord is one parsed graph-topology dump.
type GraphRecord struct {
	Path  string
	Name  string
	Nodes map[int]GraphNode
	Edges []GraphEdge
}

// RecordSet holds the four parallel path-keyed partitions produced by one
// ingestion pass. Model and graph entries without a silicon entry for the
// same path are pruned before the set is returned.
type RecordSet struct {
	Silicon map[string]*SiliconRecord
	Model   map[string]*SiliconRecord
	Host    map[string]*HostRecord
	Graph   map[string]*GraphRecord
}

// NewRecordSet returns an empty record set.
func NewRecordSet() *RecordSet {
	return &RecordSet{
		Silicon: make(map[string]*SiliconRecord),
		Model:   make(map[string]*SiliconRecord),
		Host:    make(map[string]*HostRecord),
		Graph:   make(map[string]*GraphRecord),
	}
}

// Prune drops model and graph entries whose path has no silicon entry.
func (rs *RecordSet) Prune() {
	for path := range rs.Model {
		if _, ok := rs.Silicon[path]; !ok {
			delete(rs.Model, path)
		}
	}
	for path := range rs.Graph {
		if _, ok := rs.Silicon[path]; !ok {
			delete(rs.Graph, path)
		}
	}
}

// Key schemas of the NCRISC section.
var (
	opNameRe        = regexp.MustCompile(`^(\d+)-(\d+)-(.+)$`)
	qSlotKeyRe      = regexp.MustCompile(`^q-slot-complete-stream-(\d+)$`)
	dramReadKeyRe   = regexp.MustCompile(`^dram-read-stream-(\d+)(?:-(\d+))?$`)
	dramWSentKeyRe  = regexp.MustCompile(`^dram-write-sent-stream-(\d+)$`)
	dramWClearKeyRe = regexp.MustCompile(`^dram-write-tile-cleared-stream-(\d+)$`)
	bufStatusKeyRe  = regexp.MustCompile(`^buffer-status-stream-(\d+)$`)
	miscInfoKeyRe   = regexp.MustCompile(`^misc-info-stream-(\d+)$`)
	hostDeviceSufRe = regexp.MustCompile(`-device-(\d+)$`)
)

// ParseOpName splits "<x>-<y>-<name>" into core coordinate and op name.
func ParseOpName(key string) (x, y int, name string, ok bool) {
	m := opNameRe.FindStringSubmatch(key)
	if m == nil {
		return 0, 0, "", false
	}
	x, _ = strconv.Atoi(m[1])
	y, _ = strconv.Atoi(m[2])
	return x, y, m[3], true
}

// ClassifyFieldKey matches one NCRISC key against the recognized field kinds.
// The returned stream is -1 for epoch phases; paired reports whether the key
// carries the secondary series of a two-key family (dram-write cleared).
func ClassifyFieldKey(key string) (kind FieldKind, stream int, secondary bool, ok bool) {
	switch key {
	case "epoch":
		return FieldEpochTotal, -1, false, true
	case "epoch-prologue":
		return FieldEpochPrologue, -1, false, true
	case "epoch-loop":
		return FieldEpochLoop, -1, false, true
	case "epoch-epilogue":
		return FieldEpochEpilogue, -1, false, true
	}
	if m := qSlotKeyRe.FindStringSubmatch(key); m != nil {
		s, _ := strconv.Atoi(m[1])
		return FieldQSlotComplete, s, false, true
	}
	if m := dramReadKeyRe.FindStringSubmatch(key); m != nil {
		s, _ := strconv.Atoi(m[1])
		return FieldDramRead, s, false, true
	}
	if m := dramWSentKeyRe.FindStringSubmatch(key); m != nil {
		s, _ := strconv.Atoi(m[1])
		return FieldDramWrite, s, false, true
	}
	if m := dramWClearKeyRe.FindStringSubmatch(key); m != nil {
		s, _ := strconv.Atoi(m[1])
		return FieldDramWrite, s, true, true
	}
	if m := bufStatusKeyRe.FindStringSubmatch(key); m != nil {
		s, _ := strconv.Atoi(m[1])
		return FieldBufferStatus, s, false, true
	}
	if m := miscInfoKeyRe.FindStringSubmatch(key); m != nil {
		s, _ := strconv.Atoi(m[1])
		return FieldMiscInfo, s, false, true
	}
	return 0, 0, false, false
}

// HostEventDeviceID extracts the device id from a "-device-<id>" name suffix.
func HostEventDeviceID(name string) int {
	if m := hostDeviceSufRe.FindStringSubmatch(name); m != nil {
		id, _ := strconv.Atoi(m[1])
		return id
	}
	return -1
}
