package tools

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"pmbot/pkg/persistence"
	"pmbot/pkg/proto"
)

func openTestStore(t *testing.T) *persistence.Store {
	t.Helper()
	store, err := persistence.Open(filepath.Join(t.TempDir(), "tools.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestTurn(params map[string]string) *proto.Turn {
	turn := proto.NewTurn("test input", "", 1, 1)
	for k, v := range params {
		value := v
		turn.Params[k] = &value
	}
	return turn
}

func seedAdmin(t *testing.T, store *persistence.Store, platformUserID int64) {
	t.Helper()
	_, err := store.UpsertUser(context.Background(), platformUserID, "admin", "Admin")
	require.NoError(t, err)
	require.NoError(t, store.SetUserRole(context.Background(), platformUserID, persistence.RoleAdmin))
}

func seedProject(t *testing.T, store *persistence.Store, name string) *persistence.Project {
	t.Helper()
	project, err := store.CreateProject(context.Background(), name, "", 1)
	require.NoError(t, err)
	return project
}
