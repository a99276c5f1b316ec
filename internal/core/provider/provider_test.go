package provider

import (
	"testing"

	"github.com/artpar/baasflow/internal/core/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Kind Tests
// =============================================================================

func TestParseKind(t *testing.T) {
	tests := []struct {
		input string
		want  Kind
	}{
		{"aws", KindAWS},
		{"AWS", KindAWS},
		{" local ", KindLocal},
		{"demo", KindDemo},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseKind(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseKind_Unknown(t *testing.T) {
	_, err := ParseKind("gcp")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestKind_ResourceKind(t *testing.T) {
	assert.Equal(t, catalog.ResourceServerless, KindAWS.ResourceKind())
	assert.Equal(t, catalog.ResourceLocal, KindLocal.ResourceKind())
	assert.Equal(t, catalog.ResourceServerless, KindDemo.ResourceKind())
}

// =============================================================================
// Region Tests
// =============================================================================

func TestResolveRegion_RequestWins(t *testing.T) {
	r, err := ResolveRegion("eu-west-1", "us-east-1")
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", r)
}

func TestResolveRegion_FallsBackToConfigured(t *testing.T) {
	r, err := ResolveRegion("  ", "us-east-1")
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", r)
}

func TestResolveRegion_Missing(t *testing.T) {
	_, err := ResolveRegion("", "")
	assert.ErrorIs(t, err, ErrRegionRequired)
}

// =============================================================================
// Credential Tests
// =============================================================================

func TestValidateAWSCredentials_DefaultChain(t *testing.T) {
	assert.NoError(t, ValidateAWSCredentials(AWSCredentials{}))
	assert.False(t, AWSCredentials{}.Static())
}

func TestValidateAWSCredentials_Static(t *testing.T) {
	creds := AWSCredentials{AccessKeyID: "AKIA", SecretAccessKey: "secret"}
	assert.NoError(t, ValidateAWSCredentials(creds))
	assert.True(t, creds.Static())
}

func TestValidateAWSCredentials_MissingSecret(t *testing.T) {
	err := ValidateAWSCredentials(AWSCredentials{AccessKeyID: "AKIA"})
	assert.ErrorIs(t, err, ErrAWSSecretKeyRequired)
}

func TestValidateAWSCredentials_MissingAccessKey(t *testing.T) {
	err := ValidateAWSCredentials(AWSCredentials{SecretAccessKey: "secret"})
	assert.ErrorIs(t, err, ErrAWSAccessKeyRequired)
}
