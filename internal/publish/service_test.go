package publish_test

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/temirov/repotool/internal/publish"
	"github.com/temirov/repotool/internal/repoconfig"
)

const (
	testRepositoryNameConstant    = "ComfyUI-RTX_Remix"
	testArchiveFileNameConstant   = "ComfyUI-RTX_Remix.zip"
	testArchiveContentConstant    = "archive-bytes"
	testUnrelatedFileNameConstant = "notes.txt"
	testFilePermissions           = 0o644
)

var testPublishTimestamp = time.Date(2026, time.August, 25, 12, 0, 0, 0, time.UTC)

func testPublishClock() time.Time {
	return testPublishTimestamp
}

func buildPublishConfiguration(publishEnabled bool) repoconfig.Configuration {
	return repoconfig.Configuration{
		Repo: repoconfig.RepoSettings{Name: testRepositoryNameConstant},
		Publish: repoconfig.PublishSettings{
			Enabled:  publishEnabled,
			Packages: []string{"*.zip"},
		},
	}
}

func prepareSourceDirectory(testInstance *testing.T) string {
	testInstance.Helper()

	sourceDirectory := testInstance.TempDir()
	require.NoError(testInstance, os.WriteFile(filepath.Join(sourceDirectory, testArchiveFileNameConstant), []byte(testArchiveContentConstant), testFilePermissions))
	require.NoError(testInstance, os.WriteFile(filepath.Join(sourceDirectory, testUnrelatedFileNameConstant), []byte("notes"), testFilePermissions))
	return sourceDirectory
}

func TestServiceExecuteSkipsWhenDisabled(testInstance *testing.T) {
	publishService := publish.NewService(zap.NewNop(), testPublishClock)

	publishReport, executionError := publishService.Execute(buildPublishConfiguration(false), publish.Options{})
	require.NoError(testInstance, executionError)
	require.True(testInstance, publishReport.Skipped)
	require.Empty(testInstance, publishReport.Archives)
}

func TestServiceExecuteDryRun(testInstance *testing.T) {
	publishService := publish.NewService(zap.NewNop(), testPublishClock)
	sourceDirectory := prepareSourceDirectory(testInstance)
	destinationDirectory := filepath.Join(testInstance.TempDir(), "publish")

	publishReport, executionError := publishService.Execute(buildPublishConfiguration(true), publish.Options{
		SourceDirectory:      sourceDirectory,
		DestinationDirectory: destinationDirectory,
		DryRun:               true,
	})
	require.NoError(testInstance, executionError)
	require.False(testInstance, publishReport.Skipped)
	require.Len(testInstance, publishReport.Archives, 1)
	require.Equal(testInstance, testArchiveFileNameConstant, publishReport.Archives[0].FileName)
	require.Empty(testInstance, publishReport.ManifestPath)
	require.NoDirExists(testInstance, destinationDirectory)
}

func TestServiceExecutePublishesArchivesWithManifest(testInstance *testing.T) {
	publishService := publish.NewService(zap.NewNop(), testPublishClock)
	sourceDirectory := prepareSourceDirectory(testInstance)
	destinationDirectory := filepath.Join(testInstance.TempDir(), "publish")

	publishReport, executionError := publishService.Execute(buildPublishConfiguration(true), publish.Options{
		SourceDirectory:      sourceDirectory,
		DestinationDirectory: destinationDirectory,
	})
	require.NoError(testInstance, executionError)
	require.Len(testInstance, publishReport.Archives, 1)

	expectedDigest := sha256.Sum256([]byte(testArchiveContentConstant))
	publishedArchive := publishReport.Archives[0]
	require.Equal(testInstance, testArchiveFileNameConstant, publishedArchive.FileName)
	require.Equal(testInstance, int64(len(testArchiveContentConstant)), publishedArchive.SizeBytes)
	require.Equal(testInstance, hex.EncodeToString(expectedDigest[:]), publishedArchive.SHA256)

	copiedContents, readError := os.ReadFile(filepath.Join(destinationDirectory, testArchiveFileNameConstant))
	require.NoError(testInstance, readError)
	require.Equal(testInstance, testArchiveContentConstant, string(copiedContents))

	require.NoFileExists(testInstance, filepath.Join(destinationDirectory, testUnrelatedFileNameConstant))

	manifestContents, manifestReadError := os.ReadFile(publishReport.ManifestPath)
	require.NoError(testInstance, manifestReadError)

	var decodedManifest publish.Manifest
	require.NoError(testInstance, yaml.Unmarshal(manifestContents, &decodedManifest))
	require.Equal(testInstance, testRepositoryNameConstant, decodedManifest.RepositoryName)
	require.Equal(testInstance, destinationDirectory, decodedManifest.Destination)
	require.True(testInstance, decodedManifest.PublishedAt.Equal(testPublishTimestamp))
	require.Len(testInstance, decodedManifest.Archives, 1)
	require.Equal(testInstance, publishedArchive.SHA256, decodedManifest.Archives[0].SHA256)
}

func TestServiceExecuteNoArchivesMatched(testInstance *testing.T) {
	publishService := publish.NewService(zap.NewNop(), testPublishClock)
	sourceDirectory := testInstance.TempDir()
	require.NoError(testInstance, os.WriteFile(filepath.Join(sourceDirectory, testUnrelatedFileNameConstant), []byte("notes"), testFilePermissions))

	_, executionError := publishService.Execute(buildPublishConfiguration(true), publish.Options{
		SourceDirectory: sourceDirectory,
	})
	require.ErrorIs(testInstance, executionError, publish.ErrNoArchivesMatched)
}
