package format_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/repotool/internal/format"
	"github.com/temirov/repotool/internal/repoconfig"
	"github.com/temirov/repotool/internal/toolrunner"
)

const (
	testPythonVersionConstant    = "3.10"
	testTargetVersionFlag        = "--target-version=py310"
	testCheckFlagConstant        = "--check"
	testWorkingDirectoryConstant = "/workspace/repository"
	testGeneratedFileTemplate    = "nodes/module_%02d.py"
)

type stubCommandRunner struct {
	runnerMutex      sync.Mutex
	recordedCommands []toolrunner.ShellCommand
	exitCode         int
}

func (runner *stubCommandRunner) Run(_ context.Context, command toolrunner.ShellCommand) (toolrunner.ExecutionResult, error) {
	runner.runnerMutex.Lock()
	defer runner.runnerMutex.Unlock()
	runner.recordedCommands = append(runner.recordedCommands, command)
	return toolrunner.ExecutionResult{ExitCode: runner.exitCode}, nil
}

func (runner *stubCommandRunner) commandCount() int {
	runner.runnerMutex.Lock()
	defer runner.runnerMutex.Unlock()
	return len(runner.recordedCommands)
}

func (runner *stubCommandRunner) commands() []toolrunner.ShellCommand {
	runner.runnerMutex.Lock()
	defer runner.runnerMutex.Unlock()
	duplicated := make([]toolrunner.ShellCommand, len(runner.recordedCommands))
	copy(duplicated, runner.recordedCommands)
	return duplicated
}

func buildFormatConfiguration(jobCount int) repoconfig.Configuration {
	return repoconfig.Configuration{
		Repo: repoconfig.RepoSettings{Name: "ComfyUI-RTX_Remix"},
		Format: map[string]repoconfig.FormatSettings{
			repoconfig.DefaultFormatToolName: {
				Files: repoconfig.FileFilterSettings{
					Include: []string{"**/*.py"},
					Exclude: []string{"_build/**"},
				},
				PythonVersion: testPythonVersionConstant,
				JobCount:      jobCount,
			},
		},
	}
}

func buildFormatFileSystem(pythonFileCount int) fstest.MapFS {
	fileSystem := fstest.MapFS{
		"README.md":           &fstest.MapFile{Data: []byte("readme")},
		"_build/generated.py": &fstest.MapFile{Data: []byte("generated")},
	}
	for fileIndex := 0; fileIndex < pythonFileCount; fileIndex++ {
		fileSystem[fmt.Sprintf(testGeneratedFileTemplate, fileIndex)] = &fstest.MapFile{Data: []byte("pass")}
	}
	return fileSystem
}

func newFormatService(testInstance *testing.T, commandRunner toolrunner.CommandRunner) *format.Service {
	testInstance.Helper()

	shellExecutor, executorError := toolrunner.NewShellExecutor(zap.NewNop(), commandRunner)
	require.NoError(testInstance, executorError)

	formatService, serviceError := format.NewService(zap.NewNop(), shellExecutor)
	require.NoError(testInstance, serviceError)
	return formatService
}

func TestNewServiceRequiresExecutor(testInstance *testing.T) {
	_, serviceError := format.NewService(zap.NewNop(), nil)
	require.ErrorIs(testInstance, serviceError, format.ErrExecutorNotConfigured)
}

func TestServiceExecuteBatchesSelection(testInstance *testing.T) {
	commandRunner := &stubCommandRunner{}
	formatService := newFormatService(testInstance, commandRunner)

	formatResult, executionError := formatService.Execute(context.Background(), buildFormatConfiguration(2), buildFormatFileSystem(30), format.Options{
		WorkingDirectory: testWorkingDirectoryConstant,
	})
	require.NoError(testInstance, executionError)

	require.Equal(testInstance, 30, formatResult.SelectedFileCount)
	require.Equal(testInstance, 2, formatResult.BatchCount)
	require.Equal(testInstance, 0, formatResult.FailedBatchCount)
	require.Equal(testInstance, 2, commandRunner.commandCount())

	totalFileArguments := 0
	for _, recordedCommand := range commandRunner.commands() {
		require.Equal(testInstance, toolrunner.CommandFormatter, recordedCommand.Name)
		require.Equal(testInstance, testWorkingDirectoryConstant, recordedCommand.Details.WorkingDirectory)
		require.Equal(testInstance, testTargetVersionFlag, recordedCommand.Details.Arguments[0])
		require.NotContains(testInstance, recordedCommand.Details.Arguments, testCheckFlagConstant)
		totalFileArguments += len(recordedCommand.Details.Arguments) - 1
	}
	require.Equal(testInstance, 30, totalFileArguments)
}

func TestServiceExecuteCheckMode(testInstance *testing.T) {
	commandRunner := &stubCommandRunner{}
	formatService := newFormatService(testInstance, commandRunner)

	_, executionError := formatService.Execute(context.Background(), buildFormatConfiguration(1), buildFormatFileSystem(3), format.Options{
		Check: true,
	})
	require.NoError(testInstance, executionError)

	recordedCommands := commandRunner.commands()
	require.Len(testInstance, recordedCommands, 1)
	require.Contains(testInstance, recordedCommands[0].Details.Arguments, testCheckFlagConstant)
}

func TestServiceExecuteAggregatesBatchFailures(testInstance *testing.T) {
	commandRunner := &stubCommandRunner{exitCode: 1}
	formatService := newFormatService(testInstance, commandRunner)

	formatResult, executionError := formatService.Execute(context.Background(), buildFormatConfiguration(2), buildFormatFileSystem(30), format.Options{})
	require.Error(testInstance, executionError)
	require.Contains(testInstance, executionError.Error(), "formatter failed for 2 of 2 batches")
	require.Equal(testInstance, 2, formatResult.FailedBatchCount)
}

func TestServiceExecuteEmptySelection(testInstance *testing.T) {
	commandRunner := &stubCommandRunner{}
	formatService := newFormatService(testInstance, commandRunner)

	formatResult, executionError := formatService.Execute(context.Background(), buildFormatConfiguration(1), buildFormatFileSystem(0), format.Options{})
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, 0, formatResult.SelectedFileCount)
	require.Equal(testInstance, 0, commandRunner.commandCount())
}

func TestServiceExecuteUnknownTool(testInstance *testing.T) {
	commandRunner := &stubCommandRunner{}
	formatService := newFormatService(testInstance, commandRunner)

	_, executionError := formatService.Execute(context.Background(), buildFormatConfiguration(1), buildFormatFileSystem(1), format.Options{
		ToolName: "rustfmt",
	})
	require.Error(testInstance, executionError)
	require.Contains(testInstance, executionError.Error(), "repo_format.rustfmt is not configured")
}
