package format

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/temirov/repotool/internal/repoconfig"
	"github.com/temirov/repotool/internal/selection"
	"github.com/temirov/repotool/internal/toolrunner"
)

const (
	formatterBatchSizeConstant = 25

	targetVersionFlagTemplateConstant = "--target-version=py%s"
	checkFlagConstant                 = "--check"
	pythonVersionSeparatorConstant    = "."

	executorNotConfiguredMessageConstant    = "shell executor not configured"
	missingToolSectionErrorTemplateConstant = "repo_format.%s is not configured"
	batchFailuresErrorTemplateConstant      = "formatter failed for %d of %d batches: %w"
	noFilesSelectedLogMessageConstant       = "no files matched formatter selection"
	formatCompletedLogMessageConstant       = "formatting completed"

	logFieldToolNameConstant   = "tool"
	logFieldFileCountConstant  = "file_count"
	logFieldBatchCountConstant = "batch_count"
	logFieldJobCountConstant   = "job_count"
)

// ErrExecutorNotConfigured indicates the service was built without a shell executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// Options select the formatter section and verification mode.
type Options struct {
	ToolName         string
	WorkingDirectory string
	Check            bool
}

// Result summarizes a formatter run.
type Result struct {
	SelectedFileCount int
	BatchCount        int
	FailedBatchCount  int
}

// Service batches selected files and drives the external formatter.
type Service struct {
	logger   *zap.Logger
	executor *toolrunner.ShellExecutor
}

// NewService validates collaborators and assembles a format service.
func NewService(logger *zap.Logger, executor *toolrunner.ShellExecutor) (*Service, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger, executor: executor}, nil
}

// Execute selects files per the configured globs and formats them with a bounded worker pool.
func (service *Service) Execute(executionContext context.Context, configuration repoconfig.Configuration, rootFileSystem fs.FS, options Options) (Result, error) {
	toolName := options.ToolName
	if len(toolName) == 0 {
		toolName = repoconfig.DefaultFormatToolName
	}

	formatSettings, settingsExist := configuration.FormatSettingsFor(toolName)
	if !settingsExist {
		return Result{}, fmt.Errorf(missingToolSectionErrorTemplateConstant, toolName)
	}

	selectionFilter := selection.NewListFilter(formatSettings.Files.Include, formatSettings.Files.Exclude)
	selectedFiles, selectionError := selectionFilter.Select(rootFileSystem)
	if selectionError != nil {
		return Result{}, selectionError
	}
	if len(selectedFiles) == 0 {
		service.logger.Info(noFilesSelectedLogMessageConstant, zap.String(logFieldToolNameConstant, toolName))
		return Result{}, nil
	}

	fileBatches := partitionFiles(selectedFiles, formatterBatchSizeConstant)
	baseArguments := buildBaseArguments(formatSettings.PythonVersion, options.Check)

	failedBatchErrors := service.runBatches(executionContext, fileBatches, baseArguments, formatSettings.JobCount, options.WorkingDirectory)

	executionResult := Result{
		SelectedFileCount: len(selectedFiles),
		BatchCount:        len(fileBatches),
		FailedBatchCount:  len(failedBatchErrors),
	}

	service.logger.Info(
		formatCompletedLogMessageConstant,
		zap.String(logFieldToolNameConstant, toolName),
		zap.Int(logFieldFileCountConstant, executionResult.SelectedFileCount),
		zap.Int(logFieldBatchCountConstant, executionResult.BatchCount),
		zap.Int(logFieldJobCountConstant, formatSettings.JobCount),
	)

	if len(failedBatchErrors) > 0 {
		return executionResult, fmt.Errorf(batchFailuresErrorTemplateConstant, len(failedBatchErrors), len(fileBatches), errors.Join(failedBatchErrors...))
	}

	return executionResult, nil
}

func (service *Service) runBatches(executionContext context.Context, fileBatches [][]string, baseArguments []string, jobCount int, workingDirectory string) []error {
	if jobCount < 1 {
		jobCount = 1
	}

	batchChannel := make(chan []string)
	var failureMutex sync.Mutex
	var failedBatchErrors []error
	var workerGroup sync.WaitGroup

	for workerIndex := 0; workerIndex < jobCount; workerIndex++ {
		workerGroup.Add(1)
		go func() {
			defer workerGroup.Done()
			for fileBatch := range batchChannel {
				batchArguments := append(append([]string{}, baseArguments...), fileBatch...)
				commandDetails := toolrunner.CommandDetails{Arguments: batchArguments, WorkingDirectory: workingDirectory}
				if _, executionError := service.executor.ExecuteFormatter(executionContext, commandDetails); executionError != nil {
					failureMutex.Lock()
					failedBatchErrors = append(failedBatchErrors, executionError)
					failureMutex.Unlock()
				}
			}
		}()
	}

	for _, fileBatch := range fileBatches {
		batchChannel <- fileBatch
	}
	close(batchChannel)
	workerGroup.Wait()

	return failedBatchErrors
}

func buildBaseArguments(pythonVersion string, checkOnly bool) []string {
	var baseArguments []string
	if len(pythonVersion) > 0 {
		compactVersion := strings.ReplaceAll(pythonVersion, pythonVersionSeparatorConstant, "")
		baseArguments = append(baseArguments, fmt.Sprintf(targetVersionFlagTemplateConstant, compactVersion))
	}
	if checkOnly {
		baseArguments = append(baseArguments, checkFlagConstant)
	}
	return baseArguments
}

func partitionFiles(filePaths []string, batchSize int) [][]string {
	if batchSize < 1 {
		batchSize = 1
	}

	var fileBatches [][]string
	for batchStart := 0; batchStart < len(filePaths); batchStart += batchSize {
		batchEnd := batchStart + batchSize
		if batchEnd > len(filePaths) {
			batchEnd = len(filePaths)
		}
		fileBatches = append(fileBatches, filePaths[batchStart:batchEnd])
	}
	return fileBatches
}
