package pack

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const (
	temporaryArchivePatternConstant       = ".repotool-*.zip"
	archiveDirectoryPermissionsConstant   = 0o755
	archiveEntryCopyErrorTemplateConstant = "failed to copy %q into archive: %w"
	archiveCreateErrorTemplateConstant    = "failed to create archive %q: %w"
	archiveFinalizeErrorTemplateConstant  = "failed to finalize archive %q: %w"
)

// archiveEntryTimestamp pins every entry's modification time so identical
// trees produce byte-identical archives.
var archiveEntryTimestamp = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// ZipArchiveWriter writes zip containers with deterministic entry metadata.
type ZipArchiveWriter struct{}

// NewZipArchiveWriter constructs a zip archive writer.
func NewZipArchiveWriter() *ZipArchiveWriter {
	return &ZipArchiveWriter{}
}

// WriteArchive streams the listed entries from the source file system into a
// zip archive, replacing any existing archive atomically via a temporary file.
func (archiveWriter *ZipArchiveWriter) WriteArchive(destinationPath string, sourceFileSystem fs.FS, entryPaths []string) error {
	destinationDirectory := filepath.Dir(destinationPath)
	if directoryError := os.MkdirAll(destinationDirectory, archiveDirectoryPermissionsConstant); directoryError != nil {
		return fmt.Errorf(archiveCreateErrorTemplateConstant, destinationPath, directoryError)
	}

	temporaryFile, temporaryError := os.CreateTemp(destinationDirectory, temporaryArchivePatternConstant)
	if temporaryError != nil {
		return fmt.Errorf(archiveCreateErrorTemplateConstant, destinationPath, temporaryError)
	}
	temporaryPath := temporaryFile.Name()
	renameSucceeded := false
	defer func() {
		if !renameSucceeded {
			os.Remove(temporaryPath)
		}
	}()

	writeError := writeArchiveEntries(temporaryFile, sourceFileSystem, entryPaths)
	closeError := temporaryFile.Close()
	if writeError != nil {
		return writeError
	}
	if closeError != nil {
		return fmt.Errorf(archiveFinalizeErrorTemplateConstant, destinationPath, closeError)
	}

	if renameError := os.Rename(temporaryPath, destinationPath); renameError != nil {
		return fmt.Errorf(archiveFinalizeErrorTemplateConstant, destinationPath, renameError)
	}
	renameSucceeded = true

	return nil
}

func writeArchiveEntries(destinationFile *os.File, sourceFileSystem fs.FS, entryPaths []string) error {
	zipWriter := zip.NewWriter(destinationFile)

	for _, entryPath := range entryPaths {
		entryHeader := &zip.FileHeader{
			Name:     entryPath,
			Method:   zip.Deflate,
			Modified: archiveEntryTimestamp,
		}

		entryWriter, entryError := zipWriter.CreateHeader(entryHeader)
		if entryError != nil {
			return fmt.Errorf(archiveEntryCopyErrorTemplateConstant, entryPath, entryError)
		}

		if copyError := copyEntryContents(entryWriter, sourceFileSystem, entryPath); copyError != nil {
			return copyError
		}
	}

	if closeError := zipWriter.Close(); closeError != nil {
		return fmt.Errorf(archiveFinalizeErrorTemplateConstant, destinationFile.Name(), closeError)
	}

	return nil
}

func copyEntryContents(entryWriter io.Writer, sourceFileSystem fs.FS, entryPath string) error {
	sourceFile, openError := sourceFileSystem.Open(entryPath)
	if openError != nil {
		return fmt.Errorf(archiveEntryCopyErrorTemplateConstant, entryPath, openError)
	}
	defer sourceFile.Close()

	if _, copyError := io.Copy(entryWriter, sourceFile); copyError != nil {
		return fmt.Errorf(archiveEntryCopyErrorTemplateConstant, entryPath, copyError)
	}

	return nil
}
