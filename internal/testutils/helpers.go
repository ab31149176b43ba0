package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/dialoguetree/pkg/dsl"
	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

// SetupTestRepo creates a temporary directory and initializes a Loam repository in it.
// It returns the absolute path to the temp dir and the initialized repository.
// It fails the test immediately on error.
func SetupTestRepo(t *testing.T, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	repo, err := loam.Init(absPath, opts...)
	require.NoError(t, err, "Failed to init loam repo")

	return absPath, repo
}

// WriteFiles writes each name/content pair under dir.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

// GuardDialogue builds a small branching dialogue:
//
//	greet (start) -> friend -> end
//	              -> foe
func GuardDialogue(t *testing.T) *dsl.Tree {
	t.Helper()

	b := dsl.New()
	b.Line("greet").Say("Guard", "Halt! Who goes there?").Start().Go("friend", "foe")
	b.Line("friend").Say("Hero", "A friend.").Preview("Friend").Go("end")
	b.Line("foe").Say("Hero", "Your worst `nightmare`.").Preview("Foe")
	b.Line("end").Say("Guard", "Pass, then.")

	tree, err := b.Build()
	require.NoError(t, err)
	return tree
}
