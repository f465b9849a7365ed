package session

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/errandmate/errandmate/internal/gateway"
)

// snapshotFile is the partial state persisted across process restarts:
// identity and the authentication flag only. Loading and error flags are
// transient by contract and never written.
type snapshotFile struct {
	User            *gateway.User `yaml:"user,omitempty"`
	IsAuthenticated bool          `yaml:"isAuthenticated"`
	LastFetched     *time.Time    `yaml:"lastFetched,omitempty"`
	SavedAt         time.Time     `yaml:"savedAt"`
}

// SaveSnapshot writes the persistable slice of the session to path. An
// unauthenticated session removes the file instead.
func (s *Store) SaveSnapshot(path string) error {
	st := s.Snapshot()

	if !st.IsAuthenticated || st.User == nil {
		err := os.Remove(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	}

	snap := snapshotFile{
		User:            st.User,
		IsAuthenticated: st.IsAuthenticated,
		LastFetched:     st.LastFetched,
		SavedAt:         s.now(),
	}
	data, err := yaml.Marshal(&snap)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// RestoreSnapshot loads a previously saved session, if any. The restored
// session keeps AuthChecked false: the identity is only a hint for the UI
// until the next probe confirms the cookie is still valid. A missing or
// corrupt file restores nothing and is not an error.
func (s *Store) RestoreSnapshot(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	var snap snapshotFile
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return
	}
	if !snap.IsAuthenticated || snap.User == nil {
		return
	}

	s.transition("snapshot_restored", func() {
		s.state.User = snap.User
		s.state.IsAuthenticated = true
		s.state.LastFetched = snap.LastFetched
	})
}
