package repoconfig_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/repotool/internal/repoconfig"
)

func TestEncodeDecodeTOMLRoundTrip(testInstance *testing.T) {
	originalConfiguration := buildValidConfiguration()

	encodedDocument, encodeError := repoconfig.EncodeTOML(originalConfiguration)
	require.NoError(testInstance, encodeError)

	decodedConfiguration, decodeError := repoconfig.DecodeTOML(encodedDocument)
	require.NoError(testInstance, decodeError)
	require.Equal(testInstance, originalConfiguration, decodedConfiguration)
}

func TestEncodeYAMLContainsSectionKeys(testInstance *testing.T) {
	encodedDocument, encodeError := repoconfig.EncodeYAML(buildValidConfiguration())
	require.NoError(testInstance, encodeError)

	encodedText := string(encodedDocument)
	require.True(testInstance, strings.Contains(encodedText, "repo:"))
	require.True(testInstance, strings.Contains(encodedText, "repo_publish:"))
	require.True(testInstance, strings.Contains(encodedText, "repo_package:"))
	require.True(testInstance, strings.Contains(encodedText, "main_package:"))
}
