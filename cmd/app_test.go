package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/etnz/sidekick/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountDirs(t *testing.T) {
	root := t.TempDir()
	for _, f := range []string{"DeGiro/Account.csv", "Coinbase/history.csv", "Empty/.keep"} {
		path := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}
	a := &app{cfg: &config.Config{FileImporterPath: root}}

	dirs, err := a.accountDirs("", "")
	require.NoError(t, err)
	var names []string
	for _, d := range dirs {
		names = append(names, d.Name)
	}
	assert.ElementsMatch(t, []string{"DeGiro", "Coinbase"}, names)

	dirs, err = a.accountDirs(root, "degiro")
	require.NoError(t, err)
	require.Len(t, dirs, 1)
	assert.Equal(t, "DeGiro", dirs[0].Name)

	_, err = a.accountDirs("", "Bunq")
	assert.ErrorContains(t, err, `no directory for account "Bunq"`)

	a.cfg.FileImporterPath = ""
	_, err = a.accountDirs("", "")
	assert.ErrorContains(t, err, "no import path")
}
