package selection_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"github.com/temirov/repotool/internal/selection"
)

const (
	testSelectorSubtestTemplateConstant = "%d_%s"
	testFixtureFilePermissions          = 0o644
	testFixtureDirectoryPermissions     = 0o755

	testRepositoryFixtureConstant = `-- README.md --
readme
-- nodes/loader.py --
loader
-- nodes/render/pipeline.py --
pipeline
-- _build/packages/old.zip --
stale
-- .git/HEAD --
ref: refs/heads/main
-- assets/texture.png --
binary
`
)

func materializeFixture(testInstance *testing.T, fixtureContent string) string {
	testInstance.Helper()

	fixtureRoot := testInstance.TempDir()
	fixtureArchive := txtar.Parse([]byte(fixtureContent))
	for _, fixtureFile := range fixtureArchive.Files {
		filePath := filepath.Join(fixtureRoot, filepath.FromSlash(fixtureFile.Name))
		require.NoError(testInstance, os.MkdirAll(filepath.Dir(filePath), testFixtureDirectoryPermissions))
		require.NoError(testInstance, os.WriteFile(filePath, fixtureFile.Data, testFixtureFilePermissions))
	}
	return fixtureRoot
}

func TestFilterSelect(testInstance *testing.T) {
	testCases := []struct {
		name            string
		includePatterns []string
		excludePatterns []string
		expectedPaths   []string
	}{
		{
			name:            "doublestar_matches_nested_python_files",
			includePatterns: []string{"**/*.py"},
			expectedPaths:   []string{"nodes/loader.py", "nodes/render/pipeline.py"},
		},
		{
			name:            "exclusion_wins_over_inclusion",
			includePatterns: []string{"**/*"},
			excludePatterns: []string{"_build/**", "**/*.png"},
			expectedPaths:   []string{"README.md", "nodes/loader.py", "nodes/render/pipeline.py"},
		},
		{
			name:            "explicit_file_names",
			includePatterns: []string{"README.md", "nodes/loader.py"},
			expectedPaths:   []string{"README.md", "nodes/loader.py"},
		},
		{
			name:            "no_matches",
			includePatterns: []string{"**/*.toml"},
			expectedPaths:   nil,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testSelectorSubtestTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			fixtureRoot := materializeFixture(testInstance, testRepositoryFixtureConstant)
			selectionFilter := selection.NewListFilter(testCase.includePatterns, testCase.excludePatterns)

			selectedPaths, selectionError := selectionFilter.Select(os.DirFS(fixtureRoot))
			require.NoError(testInstance, selectionError)
			require.Equal(testInstance, testCase.expectedPaths, selectedPaths)
		})
	}
}

func TestFilterSelectSkipsGitMetadata(testInstance *testing.T) {
	fixtureRoot := materializeFixture(testInstance, testRepositoryFixtureConstant)
	selectionFilter := selection.NewListFilter([]string{"**/*"}, nil)

	selectedPaths, selectionError := selectionFilter.Select(os.DirFS(fixtureRoot))
	require.NoError(testInstance, selectionError)
	require.NotContains(testInstance, selectedPaths, ".git/HEAD")
}

func TestFilterMatchesGroupedPatterns(testInstance *testing.T) {
	groupedFilter := selection.NewFilter(
		[][]string{{"nodes/**"}, {"README.md"}},
		[][]string{{"**/pipeline.py"}},
	)

	included, includeError := groupedFilter.Matches("nodes/loader.py")
	require.NoError(testInstance, includeError)
	require.True(testInstance, included)

	excluded, excludeError := groupedFilter.Matches("nodes/render/pipeline.py")
	require.NoError(testInstance, excludeError)
	require.False(testInstance, excluded)
}

func TestMatchPatternRejectsInvalidGlob(testInstance *testing.T) {
	_, matchError := selection.MatchPattern("[", "anything")
	require.Error(testInstance, matchError)
	require.Contains(testInstance, matchError.Error(), "invalid glob pattern")
}
