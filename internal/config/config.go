package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/joho/godotenv"
)

// Config holds everything the scheduling core needs at startup.
type Config struct {
	// Google Calendar settings.
	GoogleCredentials string
	CalendarIDs       []string

	// Reference timezone all events are normalized into.
	Timezone string

	// Cache settings. An empty RedisURL means no primary store is configured
	// and the process-local fallback carries all cached reads.
	RedisURL             string
	CalendarCacheEnabled bool
	CalendarCacheTTL     time.Duration

	LogLevel string

	// Only set when running on Lambda.
	ssmClient ssmParameterGetter
}

// ssmParameterGetter is the slice of the SSM API the loader needs.
type ssmParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Load reads configuration for the current environment. On Lambda, secrets
// come from SSM Parameter Store; locally they come from the environment,
// optionally seeded by a .env file.
func Load() (*Config, error) {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		return loadAWSConfig()
	}
	return loadLocalConfig()
}

func loadLocalConfig() (*Config, error) {
	// A missing .env file is not an error; plain env vars still apply.
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: no .env file loaded: %v\n", err)
	}

	cfg := &Config{
		GoogleCredentials:    getEnvOrDefault("GOOGLE_CREDENTIALS", ""),
		CalendarIDs:          splitList(getEnvOrDefault("CALENDAR_IDS", "primary")),
		Timezone:             getEnvOrDefault("TIMEZONE", "America/Los_Angeles"),
		RedisURL:             getEnvOrDefault("REDIS_URL", ""),
		CalendarCacheEnabled: getEnvOrDefault("CALENDAR_CACHE", "on") != "off",
		CalendarCacheTTL:     getEnvDurationMinutes("CALENDAR_CACHE_TTL_MINUTES", 10),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if cfg.GoogleCredentials == "" {
		return nil, fmt.Errorf("GOOGLE_CREDENTIALS environment variable is not set")
	}
	if len(cfg.CalendarIDs) == 0 {
		return nil, fmt.Errorf("CALENDAR_IDS must name at least one calendar")
	}

	return cfg, nil
}

func loadAWSConfig() (*Config, error) {
	awsConfig, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %v", err)
	}

	cfg := &Config{
		CalendarIDs:          splitList(getEnvOrDefault("CALENDAR_IDS", "primary")),
		Timezone:             getEnvOrDefault("TIMEZONE", "America/Los_Angeles"),
		CalendarCacheEnabled: getEnvOrDefault("CALENDAR_CACHE", "on") != "off",
		CalendarCacheTTL:     getEnvDurationMinutes("CALENDAR_CACHE_TTL_MINUTES", 10),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "INFO"),
		ssmClient:            ssm.NewFromConfig(awsConfig),
	}

	if err := cfg.loadFromParameterStore(); err != nil {
		return nil, fmt.Errorf("failed to load settings from Parameter Store: %v", err)
	}

	return cfg, nil
}

// loadFromParameterStore pulls secrets that must not live in plain env vars.
func (c *Config) loadFromParameterStore() error {
	ctx := context.TODO()

	googleCredsParam := getEnvOrDefault("GOOGLE_CREDS_PARAM", "/scheduling/google-creds")
	googleCreds, err := c.getParameter(ctx, googleCredsParam, true)
	if err != nil {
		return fmt.Errorf("failed to fetch Google credentials: %v", err)
	}
	c.GoogleCredentials = googleCreds

	// The Redis URL is optional; the cache falls back to the in-process store
	// when it is absent.
	redisParam := getEnvOrDefault("REDIS_URL_PARAM", "/scheduling/redis-url")
	redisURL, err := c.getParameter(ctx, redisParam, true)
	if err == nil {
		c.RedisURL = redisURL
	}

	return nil
}

func (c *Config) getParameter(ctx context.Context, paramName string, withDecryption bool) (string, error) {
	input := &ssm.GetParameterInput{
		Name:           aws.String(paramName),
		WithDecryption: aws.Bool(withDecryption),
	}

	result, err := c.ssmClient.GetParameter(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to get parameter %s: %v", paramName, err)
	}

	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %s is empty", paramName)
	}

	return *result.Parameter.Value, nil
}

// GetGoogleCredentialsJSON parses the configured Google credentials.
func (c *Config) GetGoogleCredentialsJSON() (map[string]interface{}, error) {
	var credentials map[string]interface{}
	if err := json.Unmarshal([]byte(c.GoogleCredentials), &credentials); err != nil {
		return nil, fmt.Errorf("failed to parse Google credentials JSON: %v", err)
	}
	return credentials, nil
}

// Location resolves the configured reference timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %v", c.Timezone, err)
	}
	return loc, nil
}

// getEnvOrDefault returns the trimmed env value, or the default when unset.
func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDurationMinutes(key string, defaultMinutes int) time.Duration {
	raw := getEnvOrDefault(key, "")
	if raw == "" {
		return time.Duration(defaultMinutes) * time.Minute
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		return time.Duration(defaultMinutes) * time.Minute
	}
	return time.Duration(minutes) * time.Minute
}

// splitList splits a comma-separated env value, dropping empty entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
