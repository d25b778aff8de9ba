package uistate

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	path := filepath.Join(t.TempDir(), "uistate.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDefaultsToOpen(t *testing.T) {
	s := newTestStore(t)

	open, err := s.IsOpen("timelinePanel", SectionVideo)
	require.NoError(t, err)
	require.True(t, open)
}

func TestSetOpenPersists(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SetOpen("timelinePanel", SectionAudio, false))

	open, err := s.IsOpen("timelinePanel", SectionAudio)
	require.NoError(t, err)
	require.False(t, open)
}

func TestSectionsAreIndependent(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SetOpen("p", SectionMain, false))

	open, err := s.IsOpen("p", SectionAttributes)
	require.NoError(t, err)
	require.True(t, open, "unrelated section should be unaffected")
}

func TestSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uistate.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SetOpen("p", SectionSubtitle, false))
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	open, err := s2.IsOpen("p", SectionSubtitle)
	require.NoError(t, err)
	require.False(t, open)
}
