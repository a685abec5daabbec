package migrations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFS_InitMigration(t *testing.T) {
	b, err := FS.ReadFile("00001_init.sql")
	require.NoError(t, err)
	s := string(b)
	require.True(t, strings.HasPrefix(s, "-- +goose Up"))
	require.Contains(t, s, "-- +goose Down")
	for _, tbl := range []string{"profiles", "daily_logs", "recipes"} {
		require.Contains(t, s, "CREATE TABLE IF NOT EXISTS "+tbl)
	}
}
