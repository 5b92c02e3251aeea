package ui

import (
	"fmt"
	"io"

	"github.com/temirov/repotool/internal/toolrunner"
	"github.com/temirov/repotool/internal/utils"
)

const (
	eventLineTemplateConstant = "%s\n"
)

// CommandEventWriter streams formatted command lifecycle messages to an output writer.
type CommandEventWriter struct {
	outputWriter io.Writer
	formatter    toolrunner.CommandMessageFormatter
}

// NewCommandEventWriter wraps the provided writer with flushing behavior and builds an observer.
func NewCommandEventWriter(outputWriter io.Writer) *CommandEventWriter {
	return &CommandEventWriter{outputWriter: utils.NewFlushingWriter(outputWriter)}
}

// CommandStarted reports a command about to run.
func (eventWriter *CommandEventWriter) CommandStarted(command toolrunner.ShellCommand) {
	eventWriter.writeLine(eventWriter.formatter.BuildStartedMessage(command))
}

// CommandCompleted reports the command outcome including non-zero exits.
func (eventWriter *CommandEventWriter) CommandCompleted(command toolrunner.ShellCommand, result toolrunner.ExecutionResult) {
	if result.ExitCode != 0 {
		eventWriter.writeLine(eventWriter.formatter.BuildFailureMessage(command, result))
		return
	}
	eventWriter.writeLine(eventWriter.formatter.BuildSuccessMessage(command))
}

// CommandExecutionFailed reports commands that could not be executed.
func (eventWriter *CommandEventWriter) CommandExecutionFailed(command toolrunner.ShellCommand, failure error) {
	eventWriter.writeLine(eventWriter.formatter.BuildExecutionFailureMessage(command, failure))
}

func (eventWriter *CommandEventWriter) writeLine(message string) {
	if eventWriter.outputWriter == nil {
		return
	}
	fmt.Fprintf(eventWriter.outputWriter, eventLineTemplateConstant, message)
}
