package configs

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"EPCISCONV_WORKERS",
		"EPCISCONV_PIPE_BUFFER_BYTES",
		"EPCISCONV_VERSION_SCAN_LIMIT",
		"EPCISCONV_GS1_COMPLIANT_DEFAULT",
		"EPCISCONV_INCLUDE_ASSOCIATION_EVENT_DEFAULT",
		"EPCISCONV_INCLUDE_PERSISTENT_DISPOSITION_DEFAULT",
		"EPCISCONV_INCLUDE_SENSOR_ELEMENT_LIST_DEFAULT",
		"EPCISCONV_VALIDATION_POLICY",
	}
	for _, k := range keys {
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 65536, cfg.PipeBufferSize)
	assert.Equal(t, 1024, cfg.VersionScanLimit)
	assert.True(t, cfg.DefaultGenerateGS1CompliantDocument)
	assert.True(t, cfg.DefaultIncludeAssociationEvent)
	assert.Equal(t, "abort", cfg.ValidationPolicy)
}

func TestLoadOverridesFromEnv(t *testing.T) {
	clearEnv(t)
	os.Setenv("EPCISCONV_PIPE_BUFFER_BYTES", "4096")
	os.Setenv("EPCISCONV_VALIDATION_POLICY", "skip")
	os.Setenv("EPCISCONV_INCLUDE_SENSOR_ELEMENT_LIST_DEFAULT", "false")
	defer clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4096, cfg.PipeBufferSize)
	assert.Equal(t, "skip", cfg.ValidationPolicy)
	assert.False(t, cfg.DefaultIncludeSensorElementList)
}

func TestLoadRejectsInvalidValidationPolicy(t *testing.T) {
	clearEnv(t)
	os.Setenv("EPCISCONV_VALIDATION_POLICY", "retry")
	defer clearEnv(t)

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsNonPositivePipeBufferSize(t *testing.T) {
	clearEnv(t)
	os.Setenv("EPCISCONV_PIPE_BUFFER_BYTES", "0")
	defer clearEnv(t)

	_, err := Load()
	assert.Error(t, err)
}
