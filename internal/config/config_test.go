package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSSMClient is a test double for ssmParameterGetter.
type MockSSMClient struct {
	mock.Mock
}

func (m *MockSSMClient) GetParameter(ctx context.Context, params *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ssm.GetParameterOutput), args.Error(1)
}

func TestGetEnvOrDefault_WithValue(t *testing.T) {
	t.Setenv("TEST_ENV_KEY", "test-value")
	result := getEnvOrDefault("TEST_ENV_KEY", "default")
	assert.Equal(t, "test-value", result)
}

func TestGetEnvOrDefault_WithDefault(t *testing.T) {
	result := getEnvOrDefault("NONEXISTENT_KEY_FOR_TEST_12345", "default-value")
	assert.Equal(t, "default-value", result)
}

func TestGetEnvOrDefault_TrimsWhitespace(t *testing.T) {
	t.Setenv("TEST_ENV_WHITESPACE", "  trimmed  ")
	result := getEnvOrDefault("TEST_ENV_WHITESPACE", "default")
	assert.Equal(t, "trimmed", result)
}

func TestGetEnvDurationMinutes(t *testing.T) {
	t.Setenv("TEST_TTL_MINUTES", "25")
	assert.Equal(t, 25*time.Minute, getEnvDurationMinutes("TEST_TTL_MINUTES", 10))

	t.Setenv("TEST_TTL_MINUTES", "not-a-number")
	assert.Equal(t, 10*time.Minute, getEnvDurationMinutes("TEST_TTL_MINUTES", 10))

	t.Setenv("TEST_TTL_MINUTES", "-5")
	assert.Equal(t, 10*time.Minute, getEnvDurationMinutes("TEST_TTL_MINUTES", 10))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"primary", "work"}, splitList("primary, work"))
	assert.Equal(t, []string{"primary"}, splitList("primary,,  "))
	assert.Nil(t, splitList(""))
}

func TestGetGoogleCredentialsJSON_Valid(t *testing.T) {
	cfg := &Config{GoogleCredentials: `{"type": "service_account", "project_id": "test"}`}
	result, err := cfg.GetGoogleCredentialsJSON()
	require.NoError(t, err)
	assert.Equal(t, "service_account", result["type"])
	assert.Equal(t, "test", result["project_id"])
}

func TestGetGoogleCredentialsJSON_Invalid(t *testing.T) {
	cfg := &Config{GoogleCredentials: "not valid json"}
	_, err := cfg.GetGoogleCredentialsJSON()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse Google credentials JSON")
}

func TestLocation(t *testing.T) {
	cfg := &Config{Timezone: "America/Los_Angeles"}
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Los_Angeles", loc.String())

	cfg.Timezone = "Mars/Olympus_Mons"
	_, err = cfg.Location()
	assert.Error(t, err)
}

func TestLoadLocalConfig_MissingRequired(t *testing.T) {
	t.Setenv("GOOGLE_CREDENTIALS", "")

	_, err := loadLocalConfig()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_CREDENTIALS")
}

func TestLoadLocalConfig_Defaults(t *testing.T) {
	t.Setenv("GOOGLE_CREDENTIALS", `{"type":"service_account"}`)
	t.Setenv("CALENDAR_IDS", "")
	t.Setenv("TIMEZONE", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("CALENDAR_CACHE", "")
	t.Setenv("CALENDAR_CACHE_TTL_MINUTES", "")

	cfg, err := loadLocalConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"primary"}, cfg.CalendarIDs)
	assert.Equal(t, "America/Los_Angeles", cfg.Timezone)
	assert.Empty(t, cfg.RedisURL)
	assert.True(t, cfg.CalendarCacheEnabled)
	assert.Equal(t, 10*time.Minute, cfg.CalendarCacheTTL)
}

func TestLoadLocalConfig_CacheOff(t *testing.T) {
	t.Setenv("GOOGLE_CREDENTIALS", `{"type":"service_account"}`)
	t.Setenv("CALENDAR_CACHE", "off")

	cfg, err := loadLocalConfig()
	require.NoError(t, err)
	assert.False(t, cfg.CalendarCacheEnabled)
}

func TestGetParameter_Success(t *testing.T) {
	mockSSM := new(MockSSMClient)
	cfg := &Config{ssmClient: mockSSM}

	output := &ssm.GetParameterOutput{
		Parameter: &types.Parameter{
			Value: aws.String("test-value"),
		},
	}

	mockSSM.On("GetParameter", mock.Anything, mock.MatchedBy(func(input *ssm.GetParameterInput) bool {
		return *input.Name == "/test/param" && *input.WithDecryption == true
	})).Return(output, nil)

	result, err := cfg.getParameter(context.Background(), "/test/param", true)
	require.NoError(t, err)
	assert.Equal(t, "test-value", result)
	mockSSM.AssertExpectations(t)
}

func TestGetParameter_EmptyValue(t *testing.T) {
	mockSSM := new(MockSSMClient)
	cfg := &Config{ssmClient: mockSSM}

	output := &ssm.GetParameterOutput{
		Parameter: &types.Parameter{
			Value: nil,
		},
	}

	mockSSM.On("GetParameter", mock.Anything, mock.Anything).Return(output, nil)

	_, err := cfg.getParameter(context.Background(), "/test/param", true)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "is empty")
}

func TestGetParameter_APIError(t *testing.T) {
	mockSSM := new(MockSSMClient)
	cfg := &Config{ssmClient: mockSSM}

	mockSSM.On("GetParameter", mock.Anything, mock.Anything).Return(nil, errors.New("SSM API error"))

	_, err := cfg.getParameter(context.Background(), "/test/param", true)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get parameter /test/param")
	mockSSM.AssertExpectations(t)
}

func TestLoadFromParameterStore(t *testing.T) {
	mockSSM := new(MockSSMClient)
	cfg := &Config{ssmClient: mockSSM}

	t.Setenv("GOOGLE_CREDS_PARAM", "")
	t.Setenv("REDIS_URL_PARAM", "")

	mockSSM.On("GetParameter", mock.Anything, mock.MatchedBy(func(input *ssm.GetParameterInput) bool {
		return *input.Name == "/scheduling/google-creds"
	})).Return(&ssm.GetParameterOutput{
		Parameter: &types.Parameter{Value: aws.String(`{"type":"service_account"}`)},
	}, nil)

	mockSSM.On("GetParameter", mock.Anything, mock.MatchedBy(func(input *ssm.GetParameterInput) bool {
		return *input.Name == "/scheduling/redis-url"
	})).Return(&ssm.GetParameterOutput{
		Parameter: &types.Parameter{Value: aws.String("redis://cache.internal:6379/0")},
	}, nil)

	err := cfg.loadFromParameterStore()
	require.NoError(t, err)
	assert.Equal(t, `{"type":"service_account"}`, cfg.GoogleCredentials)
	assert.Equal(t, "redis://cache.internal:6379/0", cfg.RedisURL)
	mockSSM.AssertExpectations(t)
}

func TestLoadFromParameterStore_RedisOptional(t *testing.T) {
	mockSSM := new(MockSSMClient)
	cfg := &Config{ssmClient: mockSSM}

	t.Setenv("GOOGLE_CREDS_PARAM", "")
	t.Setenv("REDIS_URL_PARAM", "")

	mockSSM.On("GetParameter", mock.Anything, mock.MatchedBy(func(input *ssm.GetParameterInput) bool {
		return *input.Name == "/scheduling/google-creds"
	})).Return(&ssm.GetParameterOutput{
		Parameter: &types.Parameter{Value: aws.String(`{"type":"service_account"}`)},
	}, nil)

	mockSSM.On("GetParameter", mock.Anything, mock.MatchedBy(func(input *ssm.GetParameterInput) bool {
		return *input.Name == "/scheduling/redis-url"
	})).Return(nil, errors.New("ParameterNotFound"))

	err := cfg.loadFromParameterStore()
	require.NoError(t, err)
	assert.Empty(t, cfg.RedisURL)
}
