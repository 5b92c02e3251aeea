package lint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"go.uber.org/zap"

	"github.com/temirov/repotool/internal/repoconfig"
	"github.com/temirov/repotool/internal/selection"
	"github.com/temirov/repotool/internal/toolrunner"
	"github.com/temirov/repotool/internal/utils"
)

const (
	executorNotConfiguredMessageConstant    = "shell executor not configured"
	missingToolSectionErrorTemplateConstant = "repo_lint.%s is not configured"
	lintFailedErrorTemplateConstant         = "linter reported findings: %w"
	noFilesSelectedLogMessageConstant       = "no files matched linter selection"
	lintCompletedLogMessageConstant         = "linting completed"

	logFieldToolNameConstant  = "tool"
	logFieldFileCountConstant = "file_count"
)

// ErrExecutorNotConfigured indicates the service was built without a shell executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// Options select the linter section and execution root.
type Options struct {
	ToolName         string
	WorkingDirectory string
}

// Result summarizes a linter run.
type Result struct {
	SelectedFileCount int
	FindingsReported  bool
}

// Service selects files per repo_lint and drives the external linter.
type Service struct {
	logger         *zap.Logger
	executor       *toolrunner.ShellExecutor
	findingsWriter io.Writer
}

// NewService validates collaborators and assembles a lint service.
// Findings emitted by the linter are streamed to the supplied writer.
func NewService(logger *zap.Logger, executor *toolrunner.ShellExecutor, findingsWriter io.Writer) (*Service, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if findingsWriter == nil {
		findingsWriter = io.Discard
	}
	return &Service{
		logger:         logger,
		executor:       executor,
		findingsWriter: utils.NewFlushingWriter(findingsWriter),
	}, nil
}

// Execute lints the configured selection in a single linter invocation.
func (service *Service) Execute(executionContext context.Context, configuration repoconfig.Configuration, rootFileSystem fs.FS, options Options) (Result, error) {
	toolName := options.ToolName
	if len(toolName) == 0 {
		toolName = repoconfig.DefaultLintToolName
	}

	lintSettings, settingsExist := configuration.LintSettingsFor(toolName)
	if !settingsExist {
		return Result{}, fmt.Errorf(missingToolSectionErrorTemplateConstant, toolName)
	}

	selectionFilter := selection.NewListFilter(lintSettings.Files.Include, lintSettings.Files.Exclude)
	selectedFiles, selectionError := selectionFilter.Select(rootFileSystem)
	if selectionError != nil {
		return Result{}, selectionError
	}
	if len(selectedFiles) == 0 {
		service.logger.Info(noFilesSelectedLogMessageConstant, zap.String(logFieldToolNameConstant, toolName))
		return Result{}, nil
	}

	commandDetails := toolrunner.CommandDetails{
		Arguments:        selectedFiles,
		WorkingDirectory: options.WorkingDirectory,
	}

	lintResult := Result{SelectedFileCount: len(selectedFiles)}

	_, executionError := service.executor.ExecuteLinter(executionContext, commandDetails)
	if executionError != nil {
		commandFailure := toolrunner.CommandFailedError{}
		if errors.As(executionError, &commandFailure) {
			lintResult.FindingsReported = true
			service.writeFindings(commandFailure.Result)
			return lintResult, fmt.Errorf(lintFailedErrorTemplateConstant, executionError)
		}
		return lintResult, executionError
	}

	service.logger.Info(
		lintCompletedLogMessageConstant,
		zap.String(logFieldToolNameConstant, toolName),
		zap.Int(logFieldFileCountConstant, lintResult.SelectedFileCount),
	)

	return lintResult, nil
}

func (service *Service) writeFindings(executionResult toolrunner.ExecutionResult) {
	if len(executionResult.StandardOutput) > 0 {
		io.WriteString(service.findingsWriter, executionResult.StandardOutput)
	}
	if len(executionResult.StandardError) > 0 {
		io.WriteString(service.findingsWriter, executionResult.StandardError)
	}
}
