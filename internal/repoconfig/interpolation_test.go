package repoconfig_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/repotool/internal/repoconfig"
)

const (
	testInterpolationSubtestTemplateConstant = "%d_%s"

	testRepositoryNameConstant     = "ComfyUI-RTX_Remix"
	testLoggingLevelConstant       = "warn"
	testPackageIdentifierConstant  = "main_package"
	testPythonVersionConstant      = "3.10"
	testFormatToolNameConstant     = "python"
	testUnknownReferenceConstant   = "${conf:repo.owner}"
	testRepoNameReferenceConstant  = "${conf:repo.name}"
	testSelfReferenceValueConstant = "${conf:repo_package.packages.main_package.archive_name}"
)

func buildInterpolationConfiguration(archiveName string) repoconfig.Configuration {
	return repoconfig.Configuration{
		Repo: repoconfig.RepoSettings{
			Logging: testLoggingLevelConstant,
			Name:    testRepositoryNameConstant,
		},
		Package: repoconfig.PackageSettings{
			Packages: map[string]repoconfig.PackageDefinition{
				testPackageIdentifierConstant: {
					ArchiveName: archiveName,
				},
			},
		},
		Format: map[string]repoconfig.FormatSettings{
			testFormatToolNameConstant: {
				PythonVersion: testPythonVersionConstant,
			},
		},
	}
}

func TestResolverResolveString(testInstance *testing.T) {
	testCases := []struct {
		name          string
		rawValue      string
		expectedValue string
		expectedError error
	}{
		{
			name:          "no_reference_tokens",
			rawValue:      "static-archive",
			expectedValue: "static-archive",
		},
		{
			name:          "repo_name_reference",
			rawValue:      testRepoNameReferenceConstant,
			expectedValue: testRepositoryNameConstant,
		},
		{
			name:          "reference_with_surrounding_text",
			rawValue:      "prefix-" + testRepoNameReferenceConstant + "-suffix",
			expectedValue: "prefix-" + testRepositoryNameConstant + "-suffix",
		},
		{
			name:          "format_python_version_reference",
			rawValue:      "py${conf:repo_format.python.python_version}",
			expectedValue: "py" + testPythonVersionConstant,
		},
		{
			name:          "unknown_reference",
			rawValue:      testUnknownReferenceConstant,
			expectedError: repoconfig.UnresolvedReferenceError{Reference: "repo.owner"},
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testInterpolationSubtestTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			resolver := repoconfig.NewResolver(buildInterpolationConfiguration("archive"))

			resolvedValue, resolutionError := resolver.ResolveString(testCase.rawValue)
			if testCase.expectedError != nil {
				require.Error(testInstance, resolutionError)
				require.Equal(testInstance, testCase.expectedError, resolutionError)
				return
			}

			require.NoError(testInstance, resolutionError)
			require.Equal(testInstance, testCase.expectedValue, resolvedValue)
		})
	}
}

func TestResolveStringTransitiveReferences(testInstance *testing.T) {
	configuration := buildInterpolationConfiguration(testRepoNameReferenceConstant)
	resolver := repoconfig.NewResolver(configuration)

	resolvedValue, resolutionError := resolver.ResolveString("${conf:repo_package.packages.main_package.archive_name}")
	require.NoError(testInstance, resolutionError)
	require.Equal(testInstance, testRepositoryNameConstant, resolvedValue)
}

func TestResolveStringReferenceCycle(testInstance *testing.T) {
	configuration := buildInterpolationConfiguration(testSelfReferenceValueConstant)
	resolver := repoconfig.NewResolver(configuration)

	_, resolutionError := resolver.ResolveString(testSelfReferenceValueConstant)
	require.Error(testInstance, resolutionError)

	cycleError := repoconfig.ReferenceCycleError{}
	require.ErrorAs(testInstance, resolutionError, &cycleError)
	require.Equal(testInstance, "repo_package.packages.main_package.archive_name", cycleError.Reference)
}

func TestResolveConfigurationResolvesArchiveNames(testInstance *testing.T) {
	configuration := buildInterpolationConfiguration(testRepoNameReferenceConstant)

	resolvedConfiguration, resolutionError := repoconfig.ResolveConfiguration(configuration)
	require.NoError(testInstance, resolutionError)
	require.Equal(testInstance, testRepositoryNameConstant, resolvedConfiguration.Package.Packages[testPackageIdentifierConstant].ArchiveName)
}
