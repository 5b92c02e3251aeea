package selection

import (
	"fmt"
	"io/fs"
	"sort"

	doublestar "github.com/bmatcuk/doublestar/v4"
)

const (
	gitMetadataDirectoryNameConstant    = ".git"
	invalidPatternErrorTemplateConstant = "invalid glob pattern %q: %w"
)

// Filter pairs include and exclude glob pattern groups.
type Filter struct {
	includeGroups [][]string
	excludeGroups [][]string
}

// NewFilter constructs a filter from grouped pattern lists as found in package definitions.
func NewFilter(includeGroups [][]string, excludeGroups [][]string) Filter {
	return Filter{includeGroups: duplicateGroups(includeGroups), excludeGroups: duplicateGroups(excludeGroups)}
}

// NewListFilter constructs a filter from flat include and exclude lists as found in tooling sections.
func NewListFilter(includePatterns []string, excludePatterns []string) Filter {
	return NewFilter(wrapGroup(includePatterns), wrapGroup(excludePatterns))
}

// Matches reports whether the slash-separated path is selected by the filter.
// A path matched by both include and exclude patterns is excluded.
func (filter Filter) Matches(candidatePath string) (bool, error) {
	included, includeError := matchAnyGroup(filter.includeGroups, candidatePath)
	if includeError != nil {
		return false, includeError
	}
	if !included {
		return false, nil
	}

	excluded, excludeError := matchAnyGroup(filter.excludeGroups, candidatePath)
	if excludeError != nil {
		return false, excludeError
	}

	return !excluded, nil
}

// Select walks the file system and returns the sorted matching file paths.
// Directories themselves are never selected; .git trees are skipped.
func (filter Filter) Select(fileSystem fs.FS) ([]string, error) {
	var selectedPaths []string

	walkError := fs.WalkDir(fileSystem, ".", func(entryPath string, directoryEntry fs.DirEntry, entryError error) error {
		if entryError != nil {
			return entryError
		}

		if directoryEntry.IsDir() {
			if directoryEntry.Name() == gitMetadataDirectoryNameConstant {
				return fs.SkipDir
			}
			return nil
		}

		matched, matchError := filter.Matches(entryPath)
		if matchError != nil {
			return matchError
		}
		if matched {
			selectedPaths = append(selectedPaths, entryPath)
		}
		return nil
	})
	if walkError != nil {
		return nil, walkError
	}

	sort.Strings(selectedPaths)
	return selectedPaths, nil
}

// MatchPattern reports whether a single doublestar pattern matches the provided name.
func MatchPattern(pattern string, candidateName string) (bool, error) {
	matched, matchError := doublestar.Match(pattern, candidateName)
	if matchError != nil {
		return false, fmt.Errorf(invalidPatternErrorTemplateConstant, pattern, matchError)
	}
	return matched, nil
}

func matchAnyGroup(patternGroups [][]string, candidatePath string) (bool, error) {
	for _, patternGroup := range patternGroups {
		for _, pattern := range patternGroup {
			matched, matchError := MatchPattern(pattern, candidatePath)
			if matchError != nil {
				return false, matchError
			}
			if matched {
				return true, nil
			}
		}
	}
	return false, nil
}

func wrapGroup(patterns []string) [][]string {
	if len(patterns) == 0 {
		return nil
	}
	return [][]string{patterns}
}

func duplicateGroups(patternGroups [][]string) [][]string {
	if len(patternGroups) == 0 {
		return nil
	}
	duplicated := make([][]string, len(patternGroups))
	for groupIndex, patternGroup := range patternGroups {
		duplicatedGroup := make([]string, len(patternGroup))
		copy(duplicatedGroup, patternGroup)
		duplicated[groupIndex] = duplicatedGroup
	}
	return duplicated
}
