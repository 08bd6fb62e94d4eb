package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexlapax/atlas/pkg/errors"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "project.json")
	store, err := NewStore(path)
	require.NoError(t, err)
	return store, path
}

func TestStore_Mutations(t *testing.T) {
	store, path := newTestStore(t)

	require.NoError(t, store.AddGoals("Reduce latency for users", "  ", "Ship weekly"))
	require.NoError(t, store.AddConstraints("Stay on the free tier"))
	require.NoError(t, store.SetArchitectureSummary("  Single Go binary.  "))
	require.NoError(t, store.SetConventions("gofmt formatting, short functions."))

	profile := store.Profile()
	assert.Equal(t, []string{"Reduce latency for users", "Ship weekly"}, profile.Goals)
	assert.Equal(t, []string{"Stay on the free tier"}, profile.Constraints)
	assert.Equal(t, "Single Go binary.", profile.ArchitectureSummary)
	assert.Equal(t, []string{"gofmt formatting, short functions."}, profile.Conventions)

	// Mutations persist across a fresh load.
	reloaded, err := NewStore(path)
	require.NoError(t, err)
	assert.Equal(t, profile, reloaded.Profile())
}

func TestStore_ProfileReturnsCopy(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.AddGoals("original goal"))

	profile := store.Profile()
	profile.Goals[0] = "mutated"

	assert.Equal(t, "original goal", store.Profile().Goals[0])
}

func TestStore_LoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, err := NewStore(path)
	assert.ErrorIs(t, err, errors.ErrCorruptStore)
}

func TestProfile_Describe(t *testing.T) {
	profile := Profile{
		Goals:               []string{"Reduce latency"},
		Constraints:         []string{"Stay on the free tier"},
		ArchitectureSummary: "Single Go binary.",
		Conventions:         []string{"gofmt formatting"},
	}

	out := profile.Describe()
	assert.Contains(t, out, "Project Goals:\n- Reduce latency")
	assert.Contains(t, out, "Constraints:\n- Stay on the free tier")
	assert.Contains(t, out, "Architecture Summary:\n- Single Go binary.")
	assert.Contains(t, out, "Coding Conventions:\n- gofmt formatting")
}

func TestDefaultProfile(t *testing.T) {
	profile := DefaultProfile()
	assert.False(t, profile.IsEmpty())
	assert.Len(t, profile.Goals, 3)
}
