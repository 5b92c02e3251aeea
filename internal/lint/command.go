package lint

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/repotool/internal/repoconfig"
	"github.com/temirov/repotool/internal/toolrunner"
	"github.com/temirov/repotool/internal/ui"
)

const (
	lintCommandUseConstant              = "lint"
	lintCommandShortDescriptionConstant = "Lint the files selected by repo_lint"
	lintCommandLongDescriptionConstant  = "lint runs the configured linter over every file matched by repo_lint globs and prints any findings."

	toolFlagNameConstant        = "tool"
	toolFlagDescriptionConstant = "Linter section from repo_lint to apply"

	unexpectedArgumentsErrorMessageConstant = "lint does not accept positional arguments"
	commandExecutionErrorTemplateConstant   = "lint failed: %w"
	noFilesSelectedMessageConstant          = "No files matched the linter selection\n"
	lintSummaryTemplateConstant             = "Linted %d file(s); no findings\n"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the resolved repo.toml configuration.
type ConfigurationProvider func() repoconfig.Configuration

// HumanReadableLoggingProvider reports whether console progress lines should be printed.
type HumanReadableLoggingProvider func() bool

// CommandBuilder assembles the lint command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        ConfigurationProvider
	HumanReadableLoggingProvider HumanReadableLoggingProvider
	WorkingDirectory             string
	CommandRunner                toolrunner.CommandRunner
}

// Build constructs the lint command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	lintCommand := &cobra.Command{
		Use:   lintCommandUseConstant,
		Short: lintCommandShortDescriptionConstant,
		Long:  lintCommandLongDescriptionConstant,
		RunE:  builder.runLint,
	}

	lintCommand.Flags().String(toolFlagNameConstant, repoconfig.DefaultLintToolName, toolFlagDescriptionConstant)

	return lintCommand, nil
}

func (builder *CommandBuilder) runLint(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(unexpectedArgumentsErrorMessageConstant)
	}

	toolFlagValue, toolFlagError := command.Flags().GetString(toolFlagNameConstant)
	if toolFlagError != nil {
		return toolFlagError
	}

	workingDirectory := builder.WorkingDirectory
	if len(workingDirectory) == 0 {
		resolvedWorkingDirectory, workingDirectoryError := os.Getwd()
		if workingDirectoryError != nil {
			return workingDirectoryError
		}
		workingDirectory = resolvedWorkingDirectory
	}

	commandRunner := builder.CommandRunner
	if commandRunner == nil {
		commandRunner = toolrunner.NewOSCommandRunner()
	}

	shellExecutor, executorError := toolrunner.NewShellExecutor(builder.resolveLogger(), commandRunner)
	if executorError != nil {
		return executorError
	}
	if builder.humanReadableLoggingEnabled() {
		shellExecutor.SetEventObserver(ui.NewCommandEventWriter(command.OutOrStdout()))
	}

	lintService, serviceError := NewService(builder.resolveLogger(), shellExecutor, command.OutOrStdout())
	if serviceError != nil {
		return serviceError
	}

	lintOptions := Options{
		ToolName:         toolFlagValue,
		WorkingDirectory: workingDirectory,
	}

	lintResult, executionError := lintService.Execute(command.Context(), builder.resolveConfiguration(), os.DirFS(workingDirectory), lintOptions)
	if executionError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, executionError)
	}

	if lintResult.SelectedFileCount == 0 {
		fmt.Fprint(command.OutOrStdout(), noFilesSelectedMessageConstant)
		return nil
	}

	fmt.Fprintf(command.OutOrStdout(), lintSummaryTemplateConstant, lintResult.SelectedFileCount)

	return nil
}

func (builder *CommandBuilder) humanReadableLoggingEnabled() bool {
	if builder.HumanReadableLoggingProvider == nil {
		return false
	}
	return builder.HumanReadableLoggingProvider()
}

func (builder *CommandBuilder) resolveConfiguration() repoconfig.Configuration {
	if builder.ConfigurationProvider == nil {
		return repoconfig.Configuration{}
	}
	return builder.ConfigurationProvider()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	if providedLogger := builder.LoggerProvider(); providedLogger != nil {
		return providedLogger
	}
	return zap.NewNop()
}
