package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ConfigLoader resolves the agent's Config from environment, file, and
// built-in defaults, in that precedence order (viper's AutomaticEnv wins over
// a config file value, and a config file value wins over SetDefault).
type ConfigLoader struct {
	configPath string
	envPrefix  string
	viper      *viper.Viper
}

// NewConfigLoader builds a ConfigLoader rooted at configPath, with envPrefix
// defaulting to "NEOAGENT" when empty.
func NewConfigLoader(configPath, envPrefix string) *ConfigLoader {
	if envPrefix == "" {
		envPrefix = "NEOAGENT"
	}
	return &ConfigLoader{
		configPath: configPath,
		envPrefix:  envPrefix,
		viper:      viper.New(),
	}
}

// LoadConfig runs the full resolution pipeline and returns the validated Config.
func (cl *ConfigLoader) LoadConfig() (*Config, error) {
	cl.viper.SetConfigType("yaml")
	cl.viper.SetEnvPrefix(cl.envPrefix)
	cl.viper.AutomaticEnv()
	cl.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cl.bindEnvVars()
	cl.setDefaults()

	if err := cl.loadConfigFile(); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	var cfg Config
	if err := cl.viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cl.validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (cl *ConfigLoader) loadConfigFile() error {
	if cl.configPath == "" {
		if envPath := os.Getenv("NEOAGENT_CONFIG_PATH"); envPath != "" {
			cl.configPath = envPath
		} else {
			cl.configPath = "./configs"
		}
	}

	if ext := filepath.Ext(cl.configPath); ext == ".yaml" || ext == ".yml" {
		cl.viper.SetConfigFile(cl.configPath)
		if err := cl.viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", cl.configPath, err)
		}
		return nil
	}

	env := cl.getEnvironment()

	cl.viper.AddConfigPath(cl.configPath)
	cl.viper.AddConfigPath("./configs")
	cl.viper.AddConfigPath(".")

	configName := fmt.Sprintf("config.%s", env)
	cl.viper.SetConfigName(configName)

	if err := cl.viper.ReadInConfig(); err != nil {
		cl.viper.SetConfigName("config")
		if err := cl.viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				// No config file anywhere in the search path: defaults carry the run.
				return nil
			}
			return fmt.Errorf("config file not found: %w", err)
		}
	}

	return nil
}

func (cl *ConfigLoader) getEnvironment() string {
	env := os.Getenv("NEOAGENT_ENV")
	if env == "" {
		env = os.Getenv("GO_ENV")
	}
	if env == "" {
		env = "development"
	}
	return env
}

func (cl *ConfigLoader) bindEnvVars() {
	cl.viper.BindEnv("app.name", "NEOAGENT_APP_NAME")
	cl.viper.BindEnv("app.version", "NEOAGENT_APP_VERSION")
	cl.viper.BindEnv("app.environment", "NEOAGENT_APP_ENVIRONMENT")
	cl.viper.BindEnv("app.debug", "NEOAGENT_APP_DEBUG")
	cl.viper.BindEnv("app.timezone", "NEOAGENT_APP_TIMEZONE")

	cl.viper.BindEnv("server.host", "NEOAGENT_SERVER_HOST")
	cl.viper.BindEnv("server.port", "NEOAGENT_SERVER_PORT")
	cl.viper.BindEnv("server.mode", "NEOAGENT_SERVER_MODE")

	cl.viper.BindEnv("agent.id", "NEOAGENT_AGENT_ID")
	cl.viper.BindEnv("agent.name", "NEOAGENT_AGENT_NAME")
	cl.viper.BindEnv("agent.work_dir", "NEOAGENT_AGENT_WORK_DIR")

	cl.viper.BindEnv("discovery.threads_discovery", "NEOAGENT_DISCOVERY_THREADS")
	cl.viper.BindEnv("discovery.nmap_enabled", "NEOAGENT_DISCOVERY_NMAP_ENABLED")
	cl.viper.BindEnv("discovery.netbios_enabled", "NEOAGENT_DISCOVERY_NETBIOS_ENABLED")
	cl.viper.BindEnv("discovery.snmp_enabled", "NEOAGENT_DISCOVERY_SNMP_ENABLED")

	cl.viper.BindEnv("redis.addr", "NEOAGENT_REDIS_ADDR")
	cl.viper.BindEnv("redis.password", "NEOAGENT_REDIS_PASSWORD")
	cl.viper.BindEnv("redis.db", "NEOAGENT_REDIS_DB")

	cl.viper.BindEnv("reporter.endpoint", "NEOAGENT_REPORTER_ENDPOINT")

	cl.viper.BindEnv("log.level", "NEOAGENT_LOG_LEVEL")
	cl.viper.BindEnv("log.file_path", "NEOAGENT_LOG_FILE_PATH")
}

func (cl *ConfigLoader) setDefaults() {
	cl.viper.SetDefault("app.name", "neoagent")
	cl.viper.SetDefault("app.version", "1.0.0")
	cl.viper.SetDefault("app.environment", "development")
	cl.viper.SetDefault("app.debug", false)
	cl.viper.SetDefault("app.timezone", "UTC")

	cl.viper.SetDefault("server.host", "0.0.0.0")
	cl.viper.SetDefault("server.port", 8081)
	cl.viper.SetDefault("server.mode", "debug")
	cl.viper.SetDefault("server.read_timeout", "30s")
	cl.viper.SetDefault("server.write_timeout", "30s")
	cl.viper.SetDefault("server.idle_timeout", "60s")
	cl.viper.SetDefault("server.max_header_bytes", 1048576)

	cl.viper.SetDefault("agent.work_dir", "./work")
	cl.viper.SetDefault("agent.temp_dir", "./temp")
	cl.viper.SetDefault("agent.log_dir", "./logs")
	cl.viper.SetDefault("agent.data_dir", "./data")

	cl.viper.SetDefault("discovery.threads_discovery", 8)
	cl.viper.SetDefault("discovery.nmap_enabled", true)
	cl.viper.SetDefault("discovery.nmap_binary_path", "nmap")
	cl.viper.SetDefault("discovery.nmap_binary_version", "7.90")
	cl.viper.SetDefault("discovery.netbios_enabled", true)
	cl.viper.SetDefault("discovery.netbios_timeout", "2s")
	cl.viper.SetDefault("discovery.snmp_enabled", true)
	cl.viper.SetDefault("discovery.snmp_timeout", "3s")
	cl.viper.SetDefault("discovery.startup_throttle_every", 4)
	cl.viper.SetDefault("discovery.startup_throttle_delay", "200ms")

	cl.viper.SetDefault("redis.db", 0)
	cl.viper.SetDefault("redis.ttl", "24h")

	cl.viper.SetDefault("reporter.endpoint", "http://localhost:8080/netdiscovery")
	cl.viper.SetDefault("reporter.timeout", "10s")

	cl.viper.SetDefault("log.level", "info")
	cl.viper.SetDefault("log.format", "json")
	cl.viper.SetDefault("log.output", "stdout")
	cl.viper.SetDefault("log.file_path", "./logs/agent.log")
	cl.viper.SetDefault("log.max_size", 100)
	cl.viper.SetDefault("log.max_backups", 3)
	cl.viper.SetDefault("log.max_age", 28)
	cl.viper.SetDefault("log.compress", true)
	cl.viper.SetDefault("log.caller", true)
}

func (cl *ConfigLoader) validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	if cfg.Discovery.ThreadsDiscovery <= 0 {
		return fmt.Errorf("discovery threads must be positive")
	}
	if cfg.Reporter.Endpoint == "" {
		return fmt.Errorf("reporter endpoint is required")
	}
	if cfg.Agent.ID == "" {
		cfg.Agent.ID = generateAgentID()
	}

	return cl.validateDirectories(cfg)
}

func (cl *ConfigLoader) validateDirectories(cfg *Config) error {
	dirs := []string{cfg.Agent.WorkDir, cfg.Agent.TempDir, cfg.Agent.LogDir, cfg.Agent.DataDir}
	for _, dir := range dirs {
		if dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}
	return nil
}

// GetConfigPath returns the config file viper actually resolved, if any.
func (cl *ConfigLoader) GetConfigPath() string {
	return cl.viper.ConfigFileUsed()
}

// LoadConfigFromFile loads a Config rooted at the directory containing configFile.
func LoadConfigFromFile(configFile string) (*Config, error) {
	configPath := filepath.Dir(configFile)
	loader := NewConfigLoader(configPath, "NEOAGENT")
	return loader.LoadConfig()
}
