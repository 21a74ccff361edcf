package fixtures

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
)

// SiliconOp describes one op entry of a generated silicon dump. Fields holds
// the raw NCRISC section keyed the way the postprocessor writes it, e.g.
// "epoch" -> map[string]interface{}{"start": 100, "end": 500}.
type SiliconOp struct {
	Name   string
	X, Y   int
	Fields map[string]interface{}
}

// EpochEvents is the per-epoch-events section of a silicon dump.
type EpochEvents struct {
	DeviceID  int
	AICLKMHz  float64
	EpochID   int
	GraphName string
}

// BundleGenerator writes synthetic perf dump bundles for tests.
type BundleGenerator struct {
	baseDir string
}

// NewBundleGenerator creates a generator rooted at baseDir, typically a
// t.TempDir().
func NewBundleGenerator(baseDir string) *BundleGenerator {
	return &BundleGenerator{baseDir: baseDir}
}

// GetBaseDir returns the bundle root directory.
func (g *BundleGenerator) GetBaseDir() string {
	return g.baseDir
}

// SimpleOp builds an op with just the epoch-total interval populated.
func SimpleOp(name string, x, y int, start, end float64) SiliconOp {
	return SiliconOp{
		Name: name, X: x, Y: y,
		Fields: map[string]interface{}{
			"epoch": map[string]interface{}{"start": start, "end": end},
		},
	}
}

// WriteSiliconDump writes perf_postprocess.json into the leaf directory.
func (g *BundleGenerator) WriteSiliconDump(leafPath string, events EpochEvents, ops ...SiliconOp) error {
	return g.writeSiliconFile(leafPath, "perf_postprocess.json", events, ops)
}

// WriteEpochSiliconDump writes the epoch-variant filename.
func (g *BundleGenerator) WriteEpochSiliconDump(leafPath string, epochIdx int, events EpochEvents, ops ...SiliconOp) error {
	name := fmt.Sprintf("perf_postprocess_epoch_%d.json", epochIdx)
	return g.writeSiliconFile(leafPath, name, events, ops)
}

// WriteModelDump writes runtime_table.json with the same op schema.
func (g *BundleGenerator) WriteModelDump(leafPath string, events EpochEvents, ops ...SiliconOp) error {
	return g.writeSiliconFile(leafPath, "runtime_table.json", events, ops)
}

func (g *BundleGenerator) writeSiliconFile(leafPath, filename string, events EpochEvents, ops []SiliconOp) error {
	payload := make(map[string]interface{}, len(ops)+1)
	for _, op := range ops {
		key := fmt.Sprintf("%d-%d-%s", op.X, op.Y, op.Name)
		payload[key] = map[string]interface{}{"NCRISC": op.Fields}
	}
	payload["per-epoch-events"] = map[string]interface{}{
		"device-id":  events.DeviceID,
		"AICLK":      events.AICLKMHz,
		"epoch-id":   events.EpochID,
		"graph-name": events.GraphName,
	}
	return g.writeJSON(filepath.Join(leafPath, filename), payload)
}

// WriteHostDump writes one host-process dump under <hostDirPath>/. Markers
// maps event names to {"start": [...], "end": [...]} bodies.
func (g *BundleGenerator) WriteHostDump(hostDirPath string, pid int, markers map[string]interface{}) error {
	name := fmt.Sprintf("perf_info_all_proc_%d.json", pid)
	return g.writeJSON(filepath.Join(hostDirPath, name), markers)
}

// CorrelatedHostMarkers builds the four markers that make a device clock
// derivable, plus nothing else.
func CorrelatedHostMarkers(deviceID int, runtimeStartNs, runtimeEndNs, startCycle, endCycle float64) map[string]interface{} {
	return map[string]interface{}{
		fmt.Sprintf("device-runtime-device-%d", deviceID): map[string]interface{}{
			"start": []float64{runtimeStartNs},
			"end":   []float64{runtimeEndNs},
		},
		fmt.Sprintf("device-start-cycle-aligned-device-%d", deviceID): map[string]interface{}{
			"start": []float64{startCycle},
			"end":   []float64{startCycle},
		},
		fmt.Sprintf("device-end-cycle-aligned-device-%d", deviceID): map[string]interface{}{
			"start": []float64{endCycle},
			"end":   []float64{endCycle},
		},
	}
}

// WriteGraphDump writes perf_graph_<name>.dot with the given node labels in
// index order, followed by the edges.
func (g *BundleGenerator) WriteGraphDump(leafPath, graphName string, labels []string, edges [][2]int) error {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("digraph %s {\n", graphName))
	for i, label := range labels {
		sb.WriteString(fmt.Sprintf("  %d [label=\"%s\"];\n", i, label))
	}
	for _, e := range edges {
		sb.WriteString(fmt.Sprintf("  %d -> %d [label=\"0\"];\n", e[0], e[1]))
	}
	sb.WriteString("}\n")

	name := fmt.Sprintf("perf_graph_%s.dot", graphName)
	return g.writeFile(filepath.Join(leafPath, name), []byte(sb.String()))
}

// WriteRawFile writes arbitrary content at a bundle-relative path; tests use
// it for malformed payloads and stray files.
func (g *BundleGenerator) WriteRawFile(relPath, content string) error {
	return g.writeFile(relPath, []byte(content))
}

func (g *BundleGenerator) writeJSON(relPath string, payload interface{}) error {
	data, err := sonic.Marshal(payload)
	if err != nil {
		return err
	}
	return g.writeFile(relPath, data)
}

func (g *BundleGenerator) writeFile(relPath string, data []byte) error {
	full := filepath.Join(g.baseDir, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0644)
}
