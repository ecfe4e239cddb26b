package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/studychat/console/internal/interfaces"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	manager, err := NewManager()
	require.NoError(t, err)
	return manager
}

func TestNewManager_CreatesConfigDirectory(t *testing.T) {
	manager := newTestManager(t)

	info, err := os.Stat(filepath.Dir(manager.GetConfigPath()))
	require.NoError(t, err)
	require.True(t, info.IsDir())
	require.Equal(t, os.FileMode(0700), info.Mode().Perm())
}

func TestLoadProfile_CreatesDefaultsOnFirstUse(t *testing.T) {
	manager := newTestManager(t)

	profile, err := manager.LoadProfile("default")
	require.NoError(t, err)
	require.Equal(t, "default", profile.Name)
	require.Equal(t, "localhost:8000", profile.Host)
	require.Equal(t, "catppuccin", profile.Theme)

	info, err := os.Stat(manager.GetConfigPath())
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLoadProfile_UnknownName(t *testing.T) {
	manager := newTestManager(t)

	_, err := manager.LoadProfile("nonexistent")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestSaveAndLoadProfile_RoundTrip(t *testing.T) {
	manager := newTestManager(t)

	saved := &interfaces.Profile{
		Name:  "pilot",
		Host:  "study.example.com:8000",
		Theme: "plain",
		Participant: interfaces.ParticipantContext{
			ParticipantID: "P123",
			StudyID:       "S456",
			ExperimentID:  "E1",
		},
	}
	require.NoError(t, manager.SaveProfile(saved))

	manager.InvalidateCache()
	loaded, err := manager.LoadProfile("pilot")
	require.NoError(t, err)
	require.Equal(t, saved.Host, loaded.Host)
	require.Equal(t, saved.Theme, loaded.Theme)
	require.Equal(t, "P123", loaded.Participant.ParticipantID)
	require.Equal(t, "E1", loaded.Participant.ExperimentID)
}

func TestValidateProfile(t *testing.T) {
	manager := newTestManager(t)

	require.Error(t, manager.ValidateProfile(nil))
	require.Error(t, manager.ValidateProfile(&interfaces.Profile{Host: "localhost:8000"}))
	require.Error(t, manager.ValidateProfile(&interfaces.Profile{Name: "pilot"}))

	// Participant identifiers may be filled in from the command line later
	require.NoError(t, manager.ValidateProfile(&interfaces.Profile{Name: "pilot", Host: "localhost:8000"}))
}

func TestLoadTheme(t *testing.T) {
	manager := newTestManager(t)

	theme, err := manager.LoadTheme("catppuccin")
	require.NoError(t, err)
	require.Equal(t, "#89B4FA", theme.User)
	require.Equal(t, "#A6E3A1", theme.Bot)
	require.Equal(t, "#F38BA8", theme.Error)

	_, err = manager.LoadTheme("nonexistent")
	require.Error(t, err)
}

func TestDeleteProfile(t *testing.T) {
	manager := newTestManager(t)

	require.NoError(t, manager.SaveProfile(&interfaces.Profile{Name: "pilot", Host: "localhost:8000"}))
	require.NoError(t, manager.DeleteProfile("pilot"))

	_, err := manager.LoadProfile("pilot")
	require.Error(t, err)

	require.Error(t, manager.DeleteProfile("pilot"))
	require.Error(t, manager.DeleteProfile("default"))
}

func TestListProfiles(t *testing.T) {
	manager := newTestManager(t)

	require.NoError(t, manager.SaveProfile(&interfaces.Profile{Name: "pilot", Host: "localhost:8000"}))

	names, err := manager.ListProfiles()
	require.NoError(t, err)
	require.Contains(t, names, "default")
	require.Contains(t, names, "pilot")
}
