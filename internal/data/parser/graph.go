package parser

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/tenstorrent/perf-timeline/internal/core/model"
	"github.com/tenstorrent/perf-timeline/internal/util"
)

// Line grammar of the graph-topology dumps:
//
//	<id>[label="<name>"] [is_queue="0|1"];
//	<src>-><dst> [label="<stream>"];
//
// Everything else (digraph header, braces, comments) is ignored.
var (
	graphNodeRe = regexp.MustCompile(`^\s*(\d+)\s*\[\s*label="([^"]*)"\s*\]\s*(?:\[\s*is_queue="([01])"\s*\]\s*)?;?\s*$`)
	graphEdgeRe = regexp.MustCompile(`^\s*(\d+)\s*->\s*(\d+)\s*\[\s*label="([^"]*)"\s*\]\s*;?\s*$`)
	graphNameRe = regexp.MustCompile(`^perf_graph_(\S+)\.dot$`)
)

// parseGraphDump reads one .dot topology dump. Lines that match neither form
// are skipped; a file yielding no nodes at all counts as malformed and is
// dropped with a warning.
func parseGraphDump(file, path string) (*model.GraphRecord, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("%w: read graph dump %s: %v", model.ErrIo, file, err)
	}
	defer f.Close()

	rec := &model.GraphRecord{
		Path:  path,
		Nodes: make(map[int]model.GraphNode),
	}
	if m := graphNameRe.FindStringSubmatch(baseName(file)); m != nil {
		rec.Name = m[1]
	}

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if m := graphEdgeRe.FindStringSubmatch(line); m != nil {
			src, _ := strconv.Atoi(m[1])
			dst, _ := strconv.Atoi(m[2])
			rec.Edges = append(rec.Edges, model.GraphEdge{Src: src, Dst: dst, Stream: m[3]})
			continue
		}
		if m := graphNodeRe.FindStringSubmatch(line); m != nil {
			id, _ := strconv.Atoi(m[1])
			rec.Nodes[id] = model.GraphNode{
				ID:      id,
				Label:   m[2],
				IsQueue: m[3] == "1",
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: read graph dump %s: %v", model.ErrIo, file, err)
	}

	if len(rec.Nodes) == 0 {
		util.LogWarnf("Graph dump %s has no parsable nodes, dropping", file)
		return nil, nil
	}
	return rec, nil
}
