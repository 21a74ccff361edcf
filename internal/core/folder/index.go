package folder

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/tenstorrent/perf-timeline/internal/core/model"
	"github.com/tenstorrent/perf-timeline/internal/util"
)

// ErrInvalidBundle is returned when discovery finds no valid leaf directory
// under the bundle root.
var ErrInvalidBundle = errors.New("bundle contains no valid perf dump directories")

// Mode classifies the overall shape of the bundle. It only affects downstream
// labeling; correlation never branches on it.
type Mode int

const (
	ModeCustom Mode = iota
	ModeSingleDirectory
	ModeSingleHostDirectory
	ModeUniformTraining
)

func (m Mode) String() string {
	switch m {
	case ModeSingleDirectory:
		return "single-directory"
	case ModeSingleHostDirectory:
		return "single-host-directory"
	case ModeUniformTraining:
		return "uniform-training"
	default:
		return "custom"
	}
}

// Training-layout schemas: five segments with a fwd_<n>/bwd_<n> pass segment,
// or three segments with an opt_<n> segment.
var (
	trainingPassRe = regexp.MustCompile(`^(fwd|bwd)_\d+$`)
	optimizerRe    = regexp.MustCompile(`^opt_\d+$`)
)

// Leaf is one valid data-source directory reported by the scanner.
type Leaf struct {
	Path   model.FolderPath
	IsHost bool
}

// Node is one directory of the pruned bundle tree. Children keep the
// scanner's depth-first (lexical) order, so index 0 is the first sibling.
type Node struct {
	Name     string
	Children []*Node
	IsLeaf   bool
	IsHost   bool
}

func (n *Node) child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Index is the immutable path index of one loaded bundle.
type Index struct {
	root   *Node
	leaves []model.FolderPath
	hosts  map[string]bool
	mode   Mode
}

// Build constructs the index from the scanner's leaf list. Leaves arrive in
// depth-first order and only valid leaves are inserted, so the resulting tree
// is pruned by construction. An empty leaf list rejects the whole bundle.
func Build(leaves []Leaf) (*Index, error) {
	if len(leaves) == 0 {
		return nil, ErrInvalidBundle
	}

	idx := &Index{
		root:  &Node{},
		hosts: make(map[string]bool),
	}

	for _, leaf := range leaves {
		if len(leaf.Path) == 0 {
			return nil, fmt.Errorf("leaf with empty path: %w", ErrInvalidBundle)
		}
		cur := idx.root
		for _, seg := range leaf.Path {
			next := cur.child(seg)
			if next == nil {
				next = &Node{Name: seg}
				cur.Children = append(cur.Children, next)
			}
			cur = next
		}
		cur.IsLeaf = true
		cur.IsHost = leaf.IsHost
		idx.leaves = append(idx.leaves, leaf.Path.Clone())
		if leaf.IsHost {
			idx.hosts[leaf.Path.String()] = true
		}
	}

	idx.mode = classify(leaves)
	util.LogDebugf("Folder index built: %d leaves, mode %s", len(idx.leaves), idx.mode)
	return idx, nil
}

func classify(leaves []Leaf) Mode {
	if len(leaves) == 1 && len(leaves[0].Path) == 1 {
		if leaves[0].IsHost {
			return ModeSingleHostDirectory
		}
		return ModeSingleDirectory
	}

	uniform := true
	for _, leaf := range leaves {
		p := leaf.Path
		if leaf.IsHost {
			// Host dirs ride alongside the training layout.
			p = p.Parent()
		}
		switch len(p) {
		case 5:
			if !trainingPassRe.MatchString(p[1]) {
				uniform = false
			}
		case 3:
			if !optimizerRe.MatchString(p[1]) {
				uniform = false
			}
		default:
			uniform = false
		}
		if !uniform {
			break
		}
	}
	if uniform {
		return ModeUniformTraining
	}
	return ModeCustom
}

// Mode returns the informational layout classification.
func (idx *Index) Mode() Mode {
	return idx.mode
}

// AllPaths returns every leaf path in depth-first order.
func (idx *Index) AllPaths() []model.FolderPath {
	out := make([]model.FolderPath, len(idx.leaves))
	for i, p := range idx.leaves {
		out[i] = p.Clone()
	}
	return out
}

// IsHostPath reports whether the given leaf is a host directory.
func (idx *Index) IsHostPath(p model.FolderPath) bool {
	return idx.hosts[p.String()]
}

// IsValidPath reports whether the path leads to a valid leaf.
func (idx *Index) IsValidPath(p model.FolderPath) bool {
	cur := idx.root
	for _, seg := range p {
		cur = cur.child(seg)
		if cur == nil {
			return false
		}
	}
	return cur.IsLeaf
}

// ClosestValidPath repairs a candidate path against the current tree: each
// invalid segment is replaced by the first sibling at that depth, and any
// missing depth is filled out with first children until a leaf is reached.
// Used to keep a previously-selected path selected across reloads.
func (idx *Index) ClosestValidPath(candidate model.FolderPath) model.FolderPath {
	var repaired model.FolderPath
	cur := idx.root
	for _, seg := range candidate {
		if len(cur.Children) == 0 {
			break
		}
		next := cur.child(seg)
		if next == nil {
			next = cur.Children[0]
		}
		repaired = append(repaired, next.Name)
		cur = next
	}
	for !cur.IsLeaf && len(cur.Children) > 0 {
		cur = cur.Children[0]
		repaired = append(repaired, cur.Name)
	}
	return repaired
}

// SelectionsAt returns, for each depth along the path, the sibling names
// available at that depth. The walk is forgiving: an invalid segment descends
// into the first sibling so the remaining depths still report choices.
func (idx *Index) SelectionsAt(p model.FolderPath) [][]string {
	var out [][]string
	cur := idx.root
	for _, seg := range p {
		if len(cur.Children) == 0 {
			break
		}
		names := make([]string, len(cur.Children))
		for i, c := range cur.Children {
			names[i] = c.Name
		}
		out = append(out, names)

		next := cur.child(seg)
		if next == nil {
			next = cur.Children[0]
		}
		cur = next
	}
	return out
}
