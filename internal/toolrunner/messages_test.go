package toolrunner_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/repotool/internal/toolrunner"
)

const testMessagesSubtestTemplateConstant = "%d_%s"

func TestCommandMessageFormatterBuildStartedMessage(testInstance *testing.T) {
	testCases := []struct {
		name            string
		command         toolrunner.ShellCommand
		expectedMessage string
	}{
		{
			name: "formatter_counts_file_arguments",
			command: toolrunner.ShellCommand{
				Name: toolrunner.CommandFormatter,
				Details: toolrunner.CommandDetails{
					Arguments: []string{"--target-version=py310", "nodes/loader.py", "nodes/render/pipeline.py"},
				},
			},
			expectedMessage: "Formatting 2 file(s) with black",
		},
		{
			name: "formatter_check_mode",
			command: toolrunner.ShellCommand{
				Name: toolrunner.CommandFormatter,
				Details: toolrunner.CommandDetails{
					Arguments: []string{"--check", "nodes/loader.py"},
				},
			},
			expectedMessage: "Checking formatting of 1 file(s) with black",
		},
		{
			name: "linter_counts_file_arguments",
			command: toolrunner.ShellCommand{
				Name: toolrunner.CommandLinter,
				Details: toolrunner.CommandDetails{
					Arguments: []string{"nodes/loader.py"},
				},
			},
			expectedMessage: "Linting 1 file(s) with flake8",
		},
		{
			name: "generic_command_label",
			command: toolrunner.ShellCommand{
				Name: toolrunner.CommandName("echo"),
				Details: toolrunner.CommandDetails{
					Arguments:        []string{"hello"},
					WorkingDirectory: testWorkingDirectory,
				},
			},
			expectedMessage: "Running echo hello (in /workspace/repository)",
		},
	}

	formatter := toolrunner.CommandMessageFormatter{}
	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testMessagesSubtestTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedMessage, formatter.BuildStartedMessage(testCase.command))
		})
	}
}

func TestCommandMessageFormatterBuildFailureMessage(testInstance *testing.T) {
	formatter := toolrunner.CommandMessageFormatter{}
	command := toolrunner.ShellCommand{
		Name:    toolrunner.CommandLinter,
		Details: toolrunner.CommandDetails{Arguments: []string{"nodes/loader.py"}},
	}
	result := toolrunner.ExecutionResult{ExitCode: 1, StandardError: "E501 line too long"}

	failureMessage := formatter.BuildFailureMessage(command, result)
	require.Equal(testInstance, "flake8 nodes/loader.py failed with exit code 1: E501 line too long", failureMessage)
}
