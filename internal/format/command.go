package format

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/repotool/internal/repoconfig"
	"github.com/temirov/repotool/internal/toolrunner"
	"github.com/temirov/repotool/internal/ui"
	"github.com/temirov/repotool/internal/utils/flags"
)

const (
	formatCommandUseConstant              = "format"
	formatCommandShortDescriptionConstant = "Format the files selected by repo_format"
	formatCommandLongDescriptionConstant  = "format runs the configured formatter over every file matched by repo_format globs, splitting the selection into batches processed by job_count workers."

	toolFlagNameConstant         = "tool"
	toolFlagDescriptionConstant  = "Formatter section from repo_format to apply"
	checkFlagNameConstant        = "check"
	checkFlagDescriptionConstant = "Verify formatting without rewriting files"

	unexpectedArgumentsErrorMessageConstant = "format does not accept positional arguments"
	commandExecutionErrorTemplateConstant   = "format failed: %w"
	noFilesSelectedMessageConstant          = "No files matched the formatter selection\n"
	formatSummaryTemplateConstant           = "Formatted %d file(s) in %d batch(es)\n"
	checkSummaryTemplateConstant            = "Formatting verified for %d file(s) in %d batch(es)\n"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the resolved repo.toml configuration.
type ConfigurationProvider func() repoconfig.Configuration

// HumanReadableLoggingProvider reports whether console progress lines should be printed.
type HumanReadableLoggingProvider func() bool

// CommandBuilder assembles the format command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        ConfigurationProvider
	HumanReadableLoggingProvider HumanReadableLoggingProvider
	WorkingDirectory             string
	CommandRunner                toolrunner.CommandRunner

	checkFlagValue bool
}

// Build constructs the format command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	formatCommand := &cobra.Command{
		Use:   formatCommandUseConstant,
		Short: formatCommandShortDescriptionConstant,
		Long:  formatCommandLongDescriptionConstant,
		RunE:  builder.runFormat,
	}

	formatCommand.Flags().String(toolFlagNameConstant, repoconfig.DefaultFormatToolName, toolFlagDescriptionConstant)
	flags.AddToggleFlag(formatCommand.Flags(), &builder.checkFlagValue, checkFlagNameConstant, "", false, checkFlagDescriptionConstant)

	return formatCommand, nil
}

func (builder *CommandBuilder) runFormat(command *cobra.Command, arguments []string) error {
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

	formatService, serviceError := NewService(builder.resolveLogger(), shellExecutor)
	if serviceError != nil {
		return serviceError
	}

	formatOptions := Options{
		ToolName:         toolFlagValue,
		WorkingDirectory: workingDirectory,
		Check:            builder.checkFlagValue,
	}

	formatResult, executionError := formatService.Execute(command.Context(), builder.resolveConfiguration(), os.DirFS(workingDirectory), formatOptions)
	if executionError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, executionError)
	}

	if formatResult.SelectedFileCount == 0 {
		fmt.Fprint(command.OutOrStdout(), noFilesSelectedMessageConstant)
		return nil
	}

	summaryTemplate := formatSummaryTemplateConstant
	if builder.checkFlagValue {
		summaryTemplate = checkSummaryTemplateConstant
	}
	fmt.Fprintf(command.OutOrStdout(), summaryTemplate, formatResult.SelectedFileCount, formatResult.BatchCount)

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
