package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	App    AppConfig    `json:"app" yaml:"app"`
	API    APIConfig    `json:"api" yaml:"api"`
	Room   RoomConfig   `json:"room" yaml:"room"`
	Redis  RedisConfig  `json:"redis" yaml:"redis"`
	Auth   AuthConfig   `json:"auth" yaml:"auth"`
	Static StaticConfig `json:"static" yaml:"static"`
}

// AppConfig represents application configuration
type AppConfig struct {
	Name        string `json:"name" yaml:"name"`
	Version     string `json:"version" yaml:"version"`
	Debug       bool   `json:"debug" yaml:"debug"`
	LogDir      string `json:"log_dir" yaml:"log_dir"`
	Environment string `json:"environment" yaml:"environment"`
}

// APIConfig represents HTTP server configuration
type APIConfig struct {
	Host        string   `json:"host" yaml:"host"`
	Port        int      `json:"port" yaml:"port"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins"`
	Timeout     int      `json:"timeout" yaml:"timeout"`
}

// RoomConfig represents the collaborative room configuration
type RoomConfig struct {
	Name           string `json:"name" yaml:"name"`
	SendBufferSize int    `json:"send_buffer_size" yaml:"send_buffer_size"`
	MaxMessageSize int64  `json:"max_message_size" yaml:"max_message_size"`
}

// RedisConfig represents the durable note store configuration
type RedisConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
}

// AuthConfig represents the Google OAuth boundary configuration
type AuthConfig struct {
	GoogleClientID     string `json:"google_client_id" yaml:"google_client_id"`
	GoogleClientSecret string `json:"google_client_secret" yaml:"google_client_secret"`
	CookieName         string `json:"cookie_name" yaml:"cookie_name"`
	CookieMaxAge       int    `json:"cookie_max_age" yaml:"cookie_max_age"`
}

// StaticConfig represents static asset serving configuration
type StaticConfig struct {
	Dir string `json:"dir" yaml:"dir"`
}

// Load builds the configuration from YAML files with environment overrides.
func Load() *Config {
	configDir := getEnv("CONFIG_DIR", "config")
	yamlConfig := loadYAMLConfig(configDir)

	return &Config{
		App: AppConfig{
			Name:        getEnvWithYAML("APP_NAME", yamlConfig, "app.name", "stickies"),
			Version:     getEnvWithYAML("APP_VERSION", yamlConfig, "app.version", "1.0.0"),
			Debug:       getEnvBoolWithYAML("APP_DEBUG", yamlConfig, "app.debug", false),
			LogDir:      getEnvWithYAML("LOG_DIR", yamlConfig, "app.log_dir", "logs"),
			Environment: getEnvWithYAML("ENVIRONMENT", yamlConfig, "app.environment", "development"),
		},
		API: APIConfig{
			Host:        getEnvWithYAML("API_HOST", yamlConfig, "api.host", "0.0.0.0"),
			Port:        getEnvIntWithYAML("API_PORT", yamlConfig, "api.port", 8080),
			CORSOrigins: getEnvSliceWithYAML("CORS_ORIGINS", yamlConfig, "api.cors_origins", []string{"*"}),
			Timeout:     getEnvIntWithYAML("API_TIMEOUT", yamlConfig, "api.timeout", 30),
		},
		Room: RoomConfig{
			Name:           getEnvWithYAML("ROOM_NAME", yamlConfig, "room.name", "main-room"),
			SendBufferSize: getEnvIntWithYAML("ROOM_SEND_BUFFER_SIZE", yamlConfig, "room.send_buffer_size", 64),
			MaxMessageSize: getEnvInt64WithYAML("ROOM_MAX_MESSAGE_SIZE", yamlConfig, "room.max_message_size", 64*1024),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBoolWithYAML("REDIS_ENABLED", yamlConfig, "redis.enabled", false),
			Host:     getEnvWithYAML("REDIS_HOST", yamlConfig, "redis.host", "localhost"),
			Port:     getEnvIntWithYAML("REDIS_PORT", yamlConfig, "redis.port", 6379),
			Password: getEnvWithYAML("REDIS_PASSWORD", yamlConfig, "redis.password", ""),
			DB:       getEnvIntWithYAML("REDIS_DB", yamlConfig, "redis.db", 0),
		},
		Auth: AuthConfig{
			GoogleClientID:     getEnvWithYAML("GOOGLE_CLIENT_ID", yamlConfig, "auth.google_client_id", ""),
			GoogleClientSecret: getEnvWithYAML("GOOGLE_CLIENT_SECRET", yamlConfig, "auth.google_client_secret", ""),
			CookieName:         getEnvWithYAML("AUTH_COOKIE_NAME", yamlConfig, "auth.cookie_name", "user_session"),
			CookieMaxAge:       getEnvIntWithYAML("AUTH_COOKIE_MAX_AGE", yamlConfig, "auth.cookie_max_age", 7*24*3600),
		},
		Static: StaticConfig{
			Dir: getEnvWithYAML("STATIC_DIR", yamlConfig, "static.dir", "web"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// loadYAMLConfig loads configuration from YAML files
func loadYAMLConfig(configDir string) map[string]interface{} {
	yamlConfig := make(map[string]interface{})

	appConfigPath := filepath.Join(configDir, "app_config.yaml")
	if data, err := os.ReadFile(appConfigPath); err == nil {
		var config map[string]interface{}
		if err := yaml.Unmarshal(data, &config); err == nil {
			yamlConfig = config
		}
	}

	return yamlConfig
}

// getEnvWithYAML gets environment variable with YAML fallback
func getEnvWithYAML(envKey string, yamlConfig map[string]interface{}, yamlPath, defaultValue string) string {
	if value := os.Getenv(envKey); value != "" {
		return value
	}

	if yamlValue := getYAMLValue(yamlConfig, yamlPath); yamlValue != "" {
		return yamlValue
	}

	return defaultValue
}

// getEnvIntWithYAML gets integer environment variable with YAML fallback
func getEnvIntWithYAML(envKey string, yamlConfig map[string]interface{}, yamlPath string, defaultValue int) int {
	if value := os.Getenv(envKey); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}

	if yamlValue := getYAMLValue(yamlConfig, yamlPath); yamlValue != "" {
		if intValue, err := strconv.Atoi(yamlValue); err == nil {
			return intValue
		}
	}

	return defaultValue
}

// getEnvInt64WithYAML gets int64 environment variable with YAML fallback
func getEnvInt64WithYAML(envKey string, yamlConfig map[string]interface{}, yamlPath string, defaultValue int64) int64 {
	if value := os.Getenv(envKey); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}

	if yamlValue := getYAMLValue(yamlConfig, yamlPath); yamlValue != "" {
		if intValue, err := strconv.ParseInt(yamlValue, 10, 64); err == nil {
			return intValue
		}
	}

	return defaultValue
}

// getEnvBoolWithYAML gets boolean environment variable with YAML fallback
func getEnvBoolWithYAML(envKey string, yamlConfig map[string]interface{}, yamlPath string, defaultValue bool) bool {
	if value := os.Getenv(envKey); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}

	if yamlValue := getYAMLValue(yamlConfig, yamlPath); yamlValue != "" {
		if boolValue, err := strconv.ParseBool(yamlValue); err == nil {
			return boolValue
		}
	}

	return defaultValue
}

// getEnvSliceWithYAML gets string slice environment variable with YAML fallback
func getEnvSliceWithYAML(envKey string, yamlConfig map[string]interface{}, yamlPath string, defaultValue []string) []string {
	if value := os.Getenv(envKey); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, len(parts))
		for i, part := range parts {
			result[i] = strings.TrimSpace(part)
		}
		return result
	}

	if yamlValue := getYAMLSlice(yamlConfig, yamlPath); yamlValue != nil {
		return yamlValue
	}

	return defaultValue
}

// getYAMLValue gets value from YAML config using dot notation path
func getYAMLValue(config map[string]interface{}, path string) string {
	parts := strings.Split(path, ".")
	current := config

	for i, part := range parts {
		if i == len(parts)-1 {
			if value, ok := current[part]; ok {
				switch v := value.(type) {
				case string:
					return v
				case int:
					return strconv.Itoa(v)
				case bool:
					return strconv.FormatBool(v)
				}
			}
			break
		}

		if next, ok := current[part].(map[string]interface{}); ok {
			current = next
		} else {
			break
		}
	}

	return ""
}

// getYAMLSlice gets string slice from YAML config using dot notation path
func getYAMLSlice(config map[string]interface{}, path string) []string {
	parts := strings.Split(path, ".")
	current := config

	for i, part := range parts {
		if i == len(parts)-1 {
			if value, ok := current[part]; ok {
				if slice, ok := value.([]interface{}); ok {
					result := make([]string, len(slice))
					for i, item := range slice {
						if str, ok := item.(string); ok {
							result[i] = str
						}
					}
					return result
				}
			}
			break
		}

		if next, ok := current[part].(map[string]interface{}); ok {
			current = next
		} else {
			break
		}
	}

	return nil
}

// Addr returns the host:port the HTTP server binds to.
func (c *APIConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Addr returns the host:port of the redis server.
func (c *RedisConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
