package pack_test

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/repotool/internal/pack"
	"github.com/temirov/repotool/internal/repoconfig"
)

const (
	testPackageIdentifierConstant = "main_package"
	testArchiveNameConstant       = "ComfyUI-RTX_Remix"
)

var testBuildTimestamp = time.Date(2026, time.August, 25, 12, 0, 0, 0, time.UTC)

func testBuildClock() time.Time {
	return testBuildTimestamp
}

func buildPackConfiguration(flowVersionScheme bool, windowsMaxPathLength int) repoconfig.Configuration {
	return repoconfig.Configuration{
		Repo: repoconfig.RepoSettings{Name: testArchiveNameConstant},
		Package: repoconfig.PackageSettings{
			Packages: map[string]repoconfig.PackageDefinition{
				testPackageIdentifierConstant: {
					FlowVersionScheme:    flowVersionScheme,
					ArchiveName:          testArchiveNameConstant,
					ArchiveFormat:        repoconfig.ArchiveFormatZip,
					WindowsMaxPathLength: windowsMaxPathLength,
					Files:                [][]string{{"**/*.py", "README.md"}},
					FilesExclude:         [][]string{{"_build/**"}},
				},
			},
		},
	}
}

func buildPackFileSystem() fstest.MapFS {
	return fstest.MapFS{
		"README.md":                &fstest.MapFile{Data: []byte("readme")},
		"nodes/loader.py":          &fstest.MapFile{Data: []byte("loader")},
		"nodes/render/pipeline.py": &fstest.MapFile{Data: []byte("pipeline")},
		"_build/packages/old.py":   &fstest.MapFile{Data: []byte("stale")},
	}
}

func TestArchiveBuilderDryRun(testInstance *testing.T) {
	archiveBuilder := pack.NewArchiveBuilder(zap.NewNop(), testBuildClock)

	buildResult, buildError := archiveBuilder.Build(buildPackConfiguration(false, 240), buildPackFileSystem(), pack.BuildOptions{
		OutputDirectory: testInstance.TempDir(),
		DryRun:          true,
	})
	require.NoError(testInstance, buildError)

	require.Equal(testInstance, testPackageIdentifierConstant, buildResult.PackageIdentifier)
	require.Equal(testInstance, testArchiveNameConstant+".zip", buildResult.ArchiveFileName)
	require.Equal(testInstance, []string{"README.md", "nodes/loader.py", "nodes/render/pipeline.py"}, buildResult.SelectedFiles)
	require.NoFileExists(testInstance, buildResult.ArchivePath)
}

func TestArchiveBuilderFlowVersionedArchiveName(testInstance *testing.T) {
	archiveBuilder := pack.NewArchiveBuilder(zap.NewNop(), testBuildClock)

	buildResult, buildError := archiveBuilder.Build(buildPackConfiguration(true, 240), buildPackFileSystem(), pack.BuildOptions{
		OutputDirectory: testInstance.TempDir(),
		DryRun:          true,
	})
	require.NoError(testInstance, buildError)
	require.Equal(testInstance, testArchiveNameConstant+"-2026.8.25.zip", buildResult.ArchiveFileName)
}

func TestArchiveBuilderVersionOverride(testInstance *testing.T) {
	archiveBuilder := pack.NewArchiveBuilder(zap.NewNop(), testBuildClock)

	buildResult, buildError := archiveBuilder.Build(buildPackConfiguration(false, 240), buildPackFileSystem(), pack.BuildOptions{
		OutputDirectory: testInstance.TempDir(),
		VersionOverride: "1.2.3",
		DryRun:          true,
	})
	require.NoError(testInstance, buildError)
	require.Equal(testInstance, testArchiveNameConstant+"-1.2.3.zip", buildResult.ArchiveFileName)
}

func TestArchiveBuilderPathLengthViolation(testInstance *testing.T) {
	archiveBuilder := pack.NewArchiveBuilder(zap.NewNop(), testBuildClock)

	_, buildError := archiveBuilder.Build(buildPackConfiguration(false, 20), buildPackFileSystem(), pack.BuildOptions{
		OutputDirectory: testInstance.TempDir(),
		DryRun:          true,
	})
	require.Error(testInstance, buildError)
	require.Contains(testInstance, buildError.Error(), "longer than 20 characters")
}

func TestArchiveBuilderUnknownPackage(testInstance *testing.T) {
	archiveBuilder := pack.NewArchiveBuilder(zap.NewNop(), testBuildClock)

	_, buildError := archiveBuilder.Build(buildPackConfiguration(false, 240), buildPackFileSystem(), pack.BuildOptions{
		PackageIdentifier: "missing_package",
		OutputDirectory:   testInstance.TempDir(),
		DryRun:            true,
	})
	require.Error(testInstance, buildError)
	require.Contains(testInstance, buildError.Error(), "missing_package")
}

func TestArchiveBuilderEmptySelection(testInstance *testing.T) {
	archiveBuilder := pack.NewArchiveBuilder(zap.NewNop(), testBuildClock)

	emptyFileSystem := fstest.MapFS{
		"notes.txt": &fstest.MapFile{Data: []byte("notes")},
	}
	_, buildError := archiveBuilder.Build(buildPackConfiguration(false, 240), emptyFileSystem, pack.BuildOptions{
		OutputDirectory: testInstance.TempDir(),
	})
	require.Error(testInstance, buildError)
	require.Contains(testInstance, buildError.Error(), "selected no files")
}

func TestArchiveBuilderWritesDeterministicArchive(testInstance *testing.T) {
	archiveBuilder := pack.NewArchiveBuilder(zap.NewNop(), testBuildClock)
	outputDirectory := testInstance.TempDir()

	firstResult, firstError := archiveBuilder.Build(buildPackConfiguration(false, 240), buildPackFileSystem(), pack.BuildOptions{
		OutputDirectory: outputDirectory,
	})
	require.NoError(testInstance, firstError)
	require.FileExists(testInstance, firstResult.ArchivePath)

	firstContents, firstReadError := os.ReadFile(firstResult.ArchivePath)
	require.NoError(testInstance, firstReadError)

	secondResult, secondError := archiveBuilder.Build(buildPackConfiguration(false, 240), buildPackFileSystem(), pack.BuildOptions{
		OutputDirectory: outputDirectory,
	})
	require.NoError(testInstance, secondError)

	secondContents, secondReadError := os.ReadFile(secondResult.ArchivePath)
	require.NoError(testInstance, secondReadError)
	require.Equal(testInstance, firstContents, secondContents)

	archiveReader, openError := zip.OpenReader(firstResult.ArchivePath)
	require.NoError(testInstance, openError)
	defer archiveReader.Close()

	entryNames := make([]string, 0, len(archiveReader.File))
	for _, archiveEntry := range archiveReader.File {
		entryNames = append(entryNames, archiveEntry.Name)
	}
	require.Equal(testInstance, []string{"README.md", "nodes/loader.py", "nodes/render/pipeline.py"}, entryNames)

	temporaryLeftovers, globError := filepath.Glob(filepath.Join(outputDirectory, ".repotool-*"))
	require.NoError(testInstance, globError)
	require.Empty(testInstance, temporaryLeftovers)
}
