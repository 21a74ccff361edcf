package parser

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/tenstorrent/perf-timeline/internal/core/model"
	"github.com/tenstorrent/perf-timeline/internal/data/scanner"
	"github.com/tenstorrent/perf-timeline/internal/util"
)

// Parser ingests the dump payloads of scanned leaf directories into the four
// path-keyed record partitions.
type Parser struct {
	concurrency int
}

// leafResult is the decoded content of one leaf, produced by one worker.
type leafResult struct {
	path    string
	isHost  bool
	silicon *model.SiliconRecord
	model   *model.SiliconRecord
	graphs  []*model.GraphRecord
	host    *model.HostRecord
	err     error
}

// NewParser creates a new Parser instance.
func NewParser(concurrency int) *Parser {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Parser{concurrency: concurrency}
}

// Ingest decodes every leaf concurrently and merges the results in leaf
// order, so synthetic ids follow one global encounter order. An unreadable
// file aborts the whole ingestion; malformed payloads degrade to empty
// records and missing keys leave fields unpopulated.
func (p *Parser) Ingest(leaves []scanner.LeafFiles) (*model.RecordSet, error) {
	start := time.Now()
	util.LogDebugf("Start ingesting %d leaves, concurrency: %d", len(leaves), p.concurrency)

	results := make([]leafResult, len(leaves))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, p.concurrency)

	for i, leaf := range leaves {
		wg.Add(1)
		go func(i int, lf scanner.LeafFiles) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()
			results[i] = p.parseLeaf(lf)
		}(i, leaf)
	}
	wg.Wait()

	rs := model.NewRecordSet()
	nextCoreOpID := 0
	nextEventID := 0
	for _, res := range results {
		if res.err != nil {
			return nil, res.err
		}
		if res.isHost {
			for i := range res.host.Events {
				res.host.Events[i].EventID = nextEventID
				nextEventID++
			}
			rs.Host[res.path] = res.host
			continue
		}
		if res.silicon != nil {
			for i := range res.silicon.Ops {
				res.silicon.Ops[i].CoreOpID = nextCoreOpID
				nextCoreOpID++
			}
			rs.Silicon[res.path] = res.silicon
		}
		if res.model != nil {
			rs.Model[res.path] = res.model
		}
		for _, g := range res.graphs {
			rs.Graph[res.path] = g
		}
	}
	rs.Prune()

	util.LogDebugf("Ingestion finished: duration %v, %d silicon, %d model, %d host, %d graph records",
		time.Since(start), len(rs.Silicon), len(rs.Model), len(rs.Host), len(rs.Graph))
	return rs, nil
}

func (p *Parser) parseLeaf(lf scanner.LeafFiles) leafResult {
	res := leafResult{path: lf.Leaf.Path.String(), isHost: lf.Leaf.IsHost}

	if lf.Leaf.IsHost {
		host, err := p.parseHostDir(res.path, lf.Host)
		res.host, res.err = host, err
		return res
	}

	_, epochIdx := model.ClassifyDumpFile(baseName(lf.Silicon))
	silicon, err := p.parseDeviceDump(lf.Silicon, res.path, epochIdx)
	if err != nil {
		res.err = err
		return res
	}
	res.silicon = silicon

	for _, mf := range lf.Model {
		_, mIdx := model.ClassifyDumpFile(baseName(mf))
		rec, err := p.parseDeviceDump(mf, res.path, mIdx)
		if err != nil {
			res.err = err
			return res
		}
		if res.model == nil {
			res.model = rec
		} else {
			res.model.Ops = append(res.model.Ops, rec.Ops...)
		}
	}

	for _, gf := range lf.Graph {
		g, err := parseGraphDump(gf, res.path)
		if err != nil {
			res.err = err
			return res
		}
		if g != nil {
			res.graphs = append(res.graphs, g)
		}
	}
	return res
}

// parseDeviceDump decodes one silicon or model dump file.
func (p *Parser) parseDeviceDump(file, path string, epochIdx int) (*model.SiliconRecord, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("%w: read dump file %s: %v", model.ErrIo, file, err)
	}

	rec := &model.SiliconRecord{Path: path, EpochIdx: epochIdx, DeviceID: -1, EpochID: -1}

	var top map[string]map[string]interface{}
	if err := sonic.Unmarshal(data, &top); err != nil {
		util.LogWarnf("Malformed device dump %s, treating as empty: %v", file, err)
		return rec, nil
	}

	keys := sortedKeys(top)
	for _, key := range keys {
		if key == "per-epoch-events" {
			p.parseEpochEvents(rec, top[key])
			continue
		}
		x, y, name, ok := model.ParseOpName(key)
		if !ok {
			util.LogDebugf("Skipping op with unparsable identifier %q in %s", key, file)
			continue
		}
		op := model.OpDump{OpName: name, CoreX: x, CoreY: y}
		if ncrisc, ok := top[key]["NCRISC"].(map[string]interface{}); ok {
			op.Fields = parseOpFields(ncrisc)
		}
		rec.Ops = append(rec.Ops, op)
	}
	return rec, nil
}

func (p *Parser) parseEpochEvents(rec *model.SiliconRecord, events map[string]interface{}) {
	if v, ok := asFloat(events["device-id"]); ok {
		rec.DeviceID = int(v)
	}
	if v, ok := asFloat(events["AICLK"]); ok {
		rec.AICLKMHz = v
	}
	if v, ok := asFloat(events["epoch-id"]); ok {
		rec.EpochID = int(v)
	}
	if s, ok := events["graph-name"].(string); ok {
		rec.GraphName = s
	}
}

// parseOpFields classifies every NCRISC key once and builds the tagged field
// list. Unrecognized keys are ignored; absent sub-keys leave the field series
// empty rather than defaulting to zero.
func parseOpFields(ncrisc map[string]interface{}) []model.OpField {
	var fields []model.OpField
	// dram-write arrives as two parallel keys per stream; join them here.
	dramWrite := make(map[int]*model.OpField)
	dramRead := make(map[int]*model.OpField)

	for _, key := range sortedKeys(ncrisc) {
		kind, stream, secondary, ok := model.ClassifyFieldKey(key)
		if !ok {
			continue
		}
		value := ncrisc[key]
		switch kind {
		case model.FieldEpochTotal, model.FieldEpochPrologue, model.FieldEpochLoop, model.FieldEpochEpilogue:
			start, end, ok := asInterval(value)
			if !ok {
				continue
			}
			fields = append(fields, model.OpField{Kind: kind, Stream: -1, Start: start, End: end})
		case model.FieldQSlotComplete:
			if ts := asFloatSlice(value); ts != nil {
				fields = append(fields, model.OpField{Kind: kind, Stream: stream, Primary: ts})
			}
		case model.FieldDramRead:
			obj, ok := value.(map[string]interface{})
			if !ok {
				continue
			}
			f := dramRead[stream]
			if f == nil {
				f = &model.OpField{Kind: kind, Stream: stream}
				dramRead[stream] = f
			}
			f.Primary = append(f.Primary, asFloatSlice(obj["chunk-read-issued"])...)
			f.Secondary = append(f.Secondary, asFloatSlice(obj["tiles-flushed"])...)
		case model.FieldDramWrite:
			f := dramWrite[stream]
			if f == nil {
				f = &model.OpField{Kind: kind, Stream: stream}
				dramWrite[stream] = f
			}
			if secondary {
				f.Secondary = append(f.Secondary, asFloatSlice(value)...)
			} else {
				f.Primary = append(f.Primary, asFloatSlice(value)...)
			}
		case model.FieldBufferStatus:
			obj, ok := value.(map[string]interface{})
			if !ok {
				continue
			}
			fields = append(fields, model.OpField{
				Kind:      kind,
				Stream:    stream,
				Primary:   asFloatSlice(obj["buf-available"]),
				Secondary: asFloatSlice(obj["buf-full"]),
			})
		case model.FieldMiscInfo:
			if ts := asFloatSlice(value); ts != nil {
				fields = append(fields, model.OpField{Kind: kind, Stream: stream, Primary: ts})
			}
		}
	}

	for _, stream := range sortedIntKeys(dramRead) {
		fields = append(fields, *dramRead[stream])
	}
	for _, stream := range sortedIntKeys(dramWrite) {
		fields = append(fields, *dramWrite[stream])
	}
	return fields
}

// parseHostDir decodes every host-process dump of one host directory. The
// process id comes from the filename; event ids are assigned at merge time.
func (p *Parser) parseHostDir(path string, files []string) (*model.HostRecord, error) {
	rec := &model.HostRecord{Path: path}

	sorted := make([]string, len(files))
	copy(sorted, files)
	sort.Strings(sorted)

	for _, file := range sorted {
		kind, pid := model.ClassifyDumpFile(baseName(file))
		if kind != model.DumpHost {
			continue
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("%w: read host dump %s: %v", model.ErrIo, file, err)
		}
		var top map[string]map[string]interface{}
		if err := sonic.Unmarshal(data, &top); err != nil {
			util.LogWarnf("Malformed host dump %s, treating as empty: %v", file, err)
			continue
		}
		for _, name := range sortedKeys(top) {
			body := top[name]
			if body == nil {
				continue
			}
			rec.Events = append(rec.Events, model.HostEventDump{
				Name:      name,
				ProcessID: pid,
				DeviceID:  model.HostEventDeviceID(name),
				StartNs:   asFloatSlice(body["start"]),
				EndNs:     asFloatSlice(body["end"]),
			})
		}
	}
	return rec, nil
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedIntKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// asFloat coerces a decoded JSON value to float64.
func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// asFloatSlice coerces a decoded JSON value to a []float64; a bare number
// becomes a single-element series. Non-numeric entries are dropped.
func asFloatSlice(v interface{}) []float64 {
	switch arr := v.(type) {
	case []interface{}:
		out := make([]float64, 0, len(arr))
		for _, e := range arr {
			if f, ok := asFloat(e); ok {
				out = append(out, f)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		if f, ok := asFloat(v); ok {
			return []float64{f}
		}
	}
	return nil
}

// asInterval extracts a {"start","end"} pair.
func asInterval(v interface{}) (float64, float64, bool) {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return 0, 0, false
	}
	start, okS := asFloat(obj["start"])
	end, okE := asFloat(obj["end"])
	if !okS || !okE {
		return 0, 0, false
	}
	return start, end, true
}
