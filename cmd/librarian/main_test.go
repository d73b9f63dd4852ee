package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/librarian/core"
)

func findStringFlag(flags []cli.Flag, name string) *cli.StringFlag {
	for _, f := range flags {
		if sf, ok := f.(*cli.StringFlag); ok && sf.Name == name {
			return sf
		}
	}
	return nil
}

func TestLibraryFlags(t *testing.T) {
	t.Run("db is required", func(t *testing.T) {
		dbFlag := findStringFlag(libraryFlags(), "db")
		require.NotNil(t, dbFlag)
		assert.True(t, dbFlag.Required)
	})

	t.Run("embedding-host has default value", func(t *testing.T) {
		hostFlag := findStringFlag(libraryFlags(), "embedding-host")
		require.NotNil(t, hostFlag)
		assert.Equal(t, "http://localhost:11434/v1", hostFlag.Value)
	})

	t.Run("embedding-model is required with no default", func(t *testing.T) {
		modelFlag := findStringFlag(libraryFlags(), "embedding-model")
		require.NotNil(t, modelFlag)
		assert.Empty(t, modelFlag.Value)
		assert.True(t, modelFlag.Required)
	})
}

func TestSetupLogger(t *testing.T) {
	newContext := func(level string) *cli.Context {
		set := flag.NewFlagSet("test", flag.ContinueOnError)
		set.String("log-level", level, "")
		return cli.NewContext(cli.NewApp(), set, nil)
	}

	t.Run("accepts known levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "INFO"} {
			assert.NoError(t, setupLogger(newContext(level)), level)
		}
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		err := setupLogger(newContext("loud"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestSeedFragments(t *testing.T) {
	fragments := seedFragments()
	require.NotEmpty(t, fragments)
	for _, f := range fragments {
		assert.NotEmpty(t, f.Text)
		assert.NotEmpty(t, f.Metadata["title"])
	}
}

func TestLoadFragments(t *testing.T) {
	t.Run("parses one fragment per line", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fragments.jsonl")
		content := `{"text":"fungi trade nutrients","metadata":{"title":"Mycelium"}}

{"id":"pinned","text":"locks lift boats"}
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		fragments, err := loadFragments(path)
		require.NoError(t, err)
		require.Len(t, fragments, 2)
		assert.Equal(t, "fungi trade nutrients", fragments[0].Text)
		assert.Equal(t, "Mycelium", fragments[0].Metadata["title"])
		assert.Equal(t, core.ID("pinned"), fragments[1].Id)
	})

	t.Run("reports line number on malformed input", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.jsonl")
		require.NoError(t, os.WriteFile(path, []byte(`{"text":"ok"}
not json
`), 0644))

		_, err := loadFragments(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), ":2:")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadFragments(filepath.Join(t.TempDir(), "absent.jsonl"))
		require.Error(t, err)
	})
}

func TestQueryCommandRequiresText(t *testing.T) {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	ctx := cli.NewContext(cli.NewApp(), set, nil)
	err := queryCommand(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query text is required")
}
