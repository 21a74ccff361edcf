package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/tenstorrent/perf-timeline/internal/core/folder"
	"github.com/tenstorrent/perf-timeline/internal/core/model"
	"github.com/tenstorrent/perf-timeline/internal/util"
)

// hostDirName is the literal directory name that marks a host leaf.
const hostDirName = "host"

// LeafFiles couples one valid leaf directory with the classified dump files
// found inside it. Paths are absolute; Leaf.Path is relative to the root.
type LeafFiles struct {
	Leaf    folder.Leaf
	Silicon string
	Model   []string
	Graph   []string
	Host    []string
}

// BundleScanner discovers the leaf directories of a perf dump bundle.
type BundleScanner struct {
	root string
}

// NewBundleScanner creates a scanner rooted at the given bundle directory.
func NewBundleScanner(root string) *BundleScanner {
	return &BundleScanner{root: root}
}

// Scan walks the bundle and returns every valid leaf in depth-first order.
// A directory is a valid leaf when it is named "host" and holds at least one
// host-process dump, or when it holds exactly one non-empty device dump.
// Unreadable directories or files abort the scan.
func (s *BundleScanner) Scan() ([]LeafFiles, error) {
	start := time.Now()
	util.LogDebugf("Start scanning bundle: %s", s.root)

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("%w: read bundle root %s: %v", model.ErrIo, s.root, err)
	}

	hasSubdir := false
	for _, e := range entries {
		if e.IsDir() {
			hasSubdir = true
			break
		}
	}

	var leaves []LeafFiles
	if !hasSubdir || filepath.Base(s.root) == hostDirName {
		// The chosen directory itself holds the dump files; its basename
		// becomes the single folder path, as the original layout does.
		leaf, ok, err := s.classifyDir(s.root, model.FolderPath{filepath.Base(s.root)})
		if err != nil {
			return nil, err
		}
		if ok {
			leaves = append(leaves, leaf)
		}
	} else {
		if err := s.scanDir(s.root, nil, &leaves); err != nil {
			return nil, err
		}
	}

	util.LogDebugf("Bundle scan completed: duration %v, %d leaf directories",
		time.Since(start), len(leaves))
	return leaves, nil
}

// scanDir recurses below the root, appending valid leaves in DFS order.
func (s *BundleScanner) scanDir(abs string, rel model.FolderPath, out *[]LeafFiles) error {
	entries, err := os.ReadDir(abs)
	if err != nil {
		return fmt.Errorf("%w: read dump directory %s: %v", model.ErrIo, abs, err)
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		childAbs := filepath.Join(abs, e.Name())
		childRel := append(rel.Clone(), e.Name())

		leaf, ok, err := s.classifyDir(childAbs, childRel)
		if err != nil {
			return err
		}
		if ok {
			*out = append(*out, leaf)
			if leaf.Leaf.IsHost {
				// Host dirs are terminal; nothing nests below them.
				continue
			}
		}
		if err := s.scanDir(childAbs, childRel, out); err != nil {
			return err
		}
	}
	return nil
}

// classifyDir decides whether one directory is a valid leaf and collects its
// dump files.
func (s *BundleScanner) classifyDir(abs string, rel model.FolderPath) (LeafFiles, bool, error) {
	entries, err := os.ReadDir(abs)
	if err != nil {
		return LeafFiles{}, false, fmt.Errorf("%w: read dump directory %s: %v", model.ErrIo, abs, err)
	}

	lf := LeafFiles{Leaf: folder.Leaf{Path: rel}}
	var siliconFiles []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		kind, _ := model.ClassifyDumpFile(e.Name())
		full := filepath.Join(abs, e.Name())
		switch kind {
		case model.DumpSilicon:
			siliconFiles = append(siliconFiles, full)
		case model.DumpModel:
			lf.Model = append(lf.Model, full)
		case model.DumpGraph:
			lf.Graph = append(lf.Graph, full)
		case model.DumpHost:
			lf.Host = append(lf.Host, full)
		}
	}

	if filepath.Base(abs) == hostDirName && len(lf.Host) > 0 {
		lf.Leaf.IsHost = true
		return lf, true, nil
	}

	// A device leaf carries exactly one silicon dump with real content.
	if len(siliconFiles) != 1 {
		return LeafFiles{}, false, nil
	}
	nonEmpty, err := hasContent(siliconFiles[0])
	if err != nil {
		return LeafFiles{}, false, err
	}
	if !nonEmpty {
		util.LogDebugf("Skipping leaf with empty device dump: %s", rel)
		return LeafFiles{}, false, nil
	}
	lf.Silicon = siliconFiles[0]
	return lf, true, nil
}

// hasContent reports whether a dump file decodes to a non-empty JSON object.
// Malformed content counts as empty, matching the record-level policy.
func hasContent(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("%w: read dump file %s: %v", model.ErrIo, path, err)
	}
	var payload map[string]interface{}
	if err := sonic.Unmarshal(data, &payload); err != nil {
		return false, nil
	}
	return len(payload) > 0, nil
}
