package model

import (
	"regexp"
	"strconv"
	"strings"
)

// FolderPath is an ordered sequence of directory segments relative to the
// bundle root. It identifies exactly one leaf data source.
type FolderPath []string

// ParseFolderPath splits a slash-joined key back into segments.
func ParseFolderPath(s string) FolderPath {
	if s == "" {
		return FolderPath{}
	}
	return FolderPath(strings.Split(s, "/"))
}

// String joins the segments with "/"; this is the canonical map key.
func (p FolderPath) String() string {
	return strings.Join(p, "/")
}

// Parent returns the path with the last segment removed.
func (p FolderPath) Parent() FolderPath {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1]
}

// Leaf returns the final segment, or "" for the root.
func (p FolderPath) Leaf() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// SiblingOf reports whether two paths share a parent.
func (p FolderPath) SiblingOf(q FolderPath) bool {
	if len(p) != len(q) || len(p) == 0 {
		return false
	}
	return p.Parent().String() == q.Parent().String()
}

// Equal reports segment-wise equality.
func (p FolderPath) Equal(q FolderPath) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the path.
func (p FolderPath) Clone() FolderPath {
	out := make(FolderPath, len(p))
	copy(out, p)
	return out
}

// DumpKind classifies a dump file by its name.
type DumpKind int

const (
	DumpUnknown DumpKind = iota
	DumpSilicon
	DumpModel
	DumpHost
	DumpGraph
)

// Filename schemas of the perf dump bundle.
var (
	siliconFileRe      = regexp.MustCompile(`^perf_postprocess\.json$`)
	siliconEpochFileRe = regexp.MustCompile(`^perf_postprocess_epoch_(\d+)\.json$`)
	modelFileRe        = regexp.MustCompile(`^runtime_table\.json$`)
	modelEpochFileRe   = regexp.MustCompile(`^runtime_table_epoch_(\d+)\.json$`)
	hostFileRe         = regexp.MustCompile(`^(.*)proc_(\d+)\.json$`)
	graphFileRe        = regexp.MustCompile(`^perf_graph_(\S+)\.dot$`)
)

// ClassifyDumpFile identifies a dump file by name. The second return value is
// the embedded epoch index for the epoch-variant silicon/model files, the
// process id for host files, or -1 when the name embeds nothing.
func ClassifyDumpFile(name string) (DumpKind, int) {
	switch {
	case siliconFileRe.MatchString(name):
		return DumpSilicon, -1
	case modelFileRe.MatchString(name):
		return DumpModel, -1
	case graphFileRe.MatchString(name):
		return DumpGraph, -1
	}
	if m := siliconEpochFileRe.FindStringSubmatch(name); m != nil {
		idx, _ := strconv.Atoi(m[1])
		return DumpSilicon, idx
	}
	if m := modelEpochFileRe.FindStringSubmatch(name); m != nil {
		idx, _ := strconv.Atoi(m[1])
		return DumpModel, idx
	}
	if m := hostFileRe.FindStringSubmatch(name); m != nil {
		pid, _ := strconv.Atoi(m[2])
		return DumpHost, pid
	}
	return DumpUnknown, -1
}

// FileEvent describes one filesystem change inside a watched bundle.
type FileEvent struct {
	Path      string
	Operation string
}
