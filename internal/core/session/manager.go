package session

import (
	"sync/atomic"

	"github.com/tenstorrent/perf-timeline/internal/core/model"
	"github.com/tenstorrent/perf-timeline/internal/core/selection"
	"github.com/tenstorrent/perf-timeline/internal/util"
)

// Manager exposes exactly one active session to consumers and swaps it
// atomically on reload. There is no other process-wide state; a dropped
// session holds no locks and is simply garbage.
type Manager struct {
	active atomic.Pointer[Session]
}

// NewManager returns a manager with no active session.
func NewManager() *Manager {
	return &Manager{}
}

// Active returns the current session, or nil before the first load.
func (m *Manager) Active() *Session {
	return m.active.Load()
}

// Swap installs a session and returns the previous one.
func (m *Manager) Swap(s *Session) *Session {
	return m.active.Swap(s)
}

// Reload loads the root into a fresh session and swaps it in. The previous
// session's selected paths are repaired against the new tree so the user's
// selection survives a reload as closely as the data allows.
func (m *Manager) Reload(root string, concurrency int) (*Session, error) {
	next, err := Load(root, concurrency)
	if err != nil {
		return nil, err
	}

	if prev := m.Active(); prev != nil {
		prevSel := prev.Selection()
		repaired := selection.Selection{
			Cores:  prevSel.Cores,
			Fields: prevSel.Fields,
			Inputs: prevSel.Inputs,
		}
		seen := make(map[string]bool)
		for _, p := range prevSel.Paths {
			fixed := next.ClosestValidPath(model.ParseFolderPath(p)).String()
			if fixed != "" && !seen[fixed] {
				seen[fixed] = true
				repaired.Paths = append(repaired.Paths, fixed)
			}
		}
		next.UpdateSelection(repaired)
		next.SetUnit(prev.Unit())
		next.SetFrequencyMode(prev.FrequencyMode())
		util.LogDebugf("Carried %d selected path(s) across reload", len(repaired.Paths))
	}

	m.Swap(next)
	return next, nil
}
