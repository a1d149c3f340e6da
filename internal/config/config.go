package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the agent's full configuration tree.
type Config struct {
	App        *AppConfig        `yaml:"app" mapstructure:"app"`
	Server     *ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        *LogConfig        `yaml:"log" mapstructure:"log"`
	Agent      *AgentConfig      `yaml:"agent" mapstructure:"agent"`
	Discovery  *DiscoveryConfig  `yaml:"discovery" mapstructure:"discovery"`
	Redis      *RedisConfig      `yaml:"redis" mapstructure:"redis"`
	Reporter   *ReporterConfig   `yaml:"reporter" mapstructure:"reporter"`
	Middleware *MiddlewareConfig `yaml:"middleware" mapstructure:"middleware"`
}

// AppConfig carries application-level identity and environment.
type AppConfig struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Version     string `yaml:"version" mapstructure:"version"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`
	Timezone    string `yaml:"timezone" mapstructure:"timezone"`
}

// ServerConfig configures the local status/health HTTP API.
type ServerConfig struct {
	Host           string        `yaml:"host" mapstructure:"host"`
	Port           int           `yaml:"port" mapstructure:"port"`
	Mode           string        `yaml:"mode" mapstructure:"mode"`
	ReadTimeout    time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes" mapstructure:"max_header_bytes"`
}

// LogConfig configures structured logging output.
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`
	Format     string `yaml:"format" mapstructure:"format"`
	Output     string `yaml:"output" mapstructure:"output"`
	FilePath   string `yaml:"file_path" mapstructure:"file_path"`
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"`
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
	Caller     bool   `yaml:"caller" mapstructure:"caller"`
}

// AgentConfig carries this agent instance's identity and filesystem layout.
type AgentConfig struct {
	ID      string `yaml:"id" mapstructure:"id"`
	Name    string `yaml:"name" mapstructure:"name"`
	WorkDir string `yaml:"work_dir" mapstructure:"work_dir"`
	TempDir string `yaml:"temp_dir" mapstructure:"temp_dir"`
	LogDir  string `yaml:"log_dir" mapstructure:"log_dir"`
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`
}

// DiscoveryConfig configures a single discovery pass: concurrency, probe
// selection, and external tool locations.
type DiscoveryConfig struct {
	ThreadsDiscovery int           `yaml:"threads_discovery" mapstructure:"threads_discovery"`
	NmapEnabled      bool          `yaml:"nmap_enabled" mapstructure:"nmap_enabled"`
	NmapBinaryPath   string        `yaml:"nmap_binary_path" mapstructure:"nmap_binary_path"`
	NmapBinaryVersion string       `yaml:"nmap_binary_version" mapstructure:"nmap_binary_version"`
	NetbiosEnabled   bool          `yaml:"netbios_enabled" mapstructure:"netbios_enabled"`
	NetbiosTimeout   time.Duration `yaml:"netbios_timeout" mapstructure:"netbios_timeout"`
	SNMPEnabled      bool          `yaml:"snmp_enabled" mapstructure:"snmp_enabled"`
	SNMPTimeout      time.Duration `yaml:"snmp_timeout" mapstructure:"snmp_timeout"`

	StartupThrottleEvery int           `yaml:"startup_throttle_every" mapstructure:"startup_throttle_every"`
	StartupThrottleDelay time.Duration `yaml:"startup_throttle_delay" mapstructure:"startup_throttle_delay"`
}

// RedisConfig configures the Result Spool's durable backend. Addr is left
// empty to fall back to an in-memory spool.
type RedisConfig struct {
	Addr     string        `yaml:"addr" mapstructure:"addr"`
	Password string        `yaml:"password" mapstructure:"password"`
	DB       int           `yaml:"db" mapstructure:"db"`
	TTL      time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// ReporterConfig configures outbound delivery to the inventory server.
type ReporterConfig struct {
	Endpoint string        `yaml:"endpoint" mapstructure:"endpoint"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// MiddlewareConfig configures the local status API's HTTP middleware stack.
type MiddlewareConfig struct {
	Logging *LoggingConfig `yaml:"logging" json:"logging"`
	CORS    *CORSConfig    `yaml:"cors" json:"cors"`
}

// LoggingConfig configures the request/response logging middleware.
type LoggingConfig struct {
	EnableRequestLog     bool          `yaml:"enable_request_log" json:"enable_request_log"`
	EnableResponseLog    bool          `yaml:"enable_response_log" json:"enable_response_log"`
	LogRequestBody       bool          `yaml:"log_request_body" json:"log_request_body"`
	LogResponseBody      bool          `yaml:"log_response_body" json:"log_response_body"`
	LogHeaders           bool          `yaml:"log_headers" json:"log_headers"`
	SlowRequestThreshold time.Duration `yaml:"slow_request_threshold" json:"slow_request_threshold"`
	MaxBodySize          int64         `yaml:"max_body_size" json:"max_body_size"`
	SkipPaths            []string      `yaml:"skip_paths" json:"skip_paths"`
}

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	Enabled          bool     `yaml:"enabled" json:"enabled"`
	AllowAllOrigins  bool     `yaml:"allow_all_origins" json:"allow_all_origins"`
	AllowOrigins     []string `yaml:"allow_origins" json:"allow_origins"`
	AllowMethods     []string `yaml:"allow_methods" json:"allow_methods"`
	AllowHeaders     []string `yaml:"allow_headers" json:"allow_headers"`
	ExposeHeaders    []string `yaml:"expose_headers" json:"expose_headers"`
	AllowCredentials bool     `yaml:"allow_credentials" json:"allow_credentials"`
	MaxAge           int      `yaml:"max_age" json:"max_age"`
}

// LoadConfig loads the agent configuration from the given path (or the
// default search locations when omitted), applying environment overrides
// and defaults.
func LoadConfig(configPath ...string) (*Config, error) {
	var path string
	if len(configPath) > 0 && configPath[0] != "" {
		path = configPath[0]
	}

	loader := NewConfigLoader(path, "NEOAGENT")
	cfg, err := loader.LoadConfig()
	if err != nil {
		return nil, err
	}

	globalConfig = cfg
	return cfg, nil
}

// loadConfigFileAuto searches the well-known config locations and loads the
// first one found, leaving cfg at its defaults if none exists.
func loadConfigFileAuto(cfg *Config) error {
	configPaths := []string{
		"config.yaml",
		"config.yml",
		"configs/config.yaml",
		"configs/config.yml",
		"/etc/neoagent/config.yaml",
		"/etc/neoagent/config.yml",
	}

	if p := os.Getenv("AGENT_CONFIG_PATH"); p != "" {
		configPaths = append([]string{p}, configPaths...)
	}

	var configFile string
	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			configFile = path
			break
		}
	}
	if configFile == "" {
		return nil
	}

	return loadConfigFile(cfg, configFile)
}

// loadFromEnv applies a small set of well-known environment variable
// overrides on top of whatever was loaded from file.
func loadFromEnv(cfg *Config) error {
	if cfg.Server == nil {
		cfg.Server = &ServerConfig{}
	}
	if port := os.Getenv("AGENT_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if host := os.Getenv("AGENT_HOST"); host != "" {
		cfg.Server.Host = host
	}

	if cfg.App == nil {
		cfg.App = &AppConfig{}
	}
	if debug := os.Getenv("NEOAGENT_DEBUG"); debug != "" {
		cfg.App.Debug = strings.ToLower(debug) == "true"
	}

	if cfg.Log == nil {
		cfg.Log = &LogConfig{}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if filePath := os.Getenv("LOG_FILE_PATH"); filePath != "" {
		cfg.Log.FilePath = filePath
	}

	if cfg.Agent == nil {
		cfg.Agent = &AgentConfig{}
	}
	if id := os.Getenv("AGENT_ID"); id != "" {
		cfg.Agent.ID = id
	}
	if workDir := os.Getenv("AGENT_WORK_DIR"); workDir != "" {
		cfg.Agent.WorkDir = workDir
	}
	if dataDir := os.Getenv("AGENT_DATA_DIR"); dataDir != "" {
		cfg.Agent.DataDir = dataDir
	}

	if cfg.Redis == nil {
		cfg.Redis = &RedisConfig{}
	}
	if addr := os.Getenv("NEOAGENT_REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if password := os.Getenv("NEOAGENT_REDIS_PASSWORD"); password != "" {
		cfg.Redis.Password = password
	}

	if cfg.Reporter == nil {
		cfg.Reporter = &ReporterConfig{}
	}
	if endpoint := os.Getenv("NEOAGENT_REPORTER_ENDPOINT"); endpoint != "" {
		cfg.Reporter.Endpoint = endpoint
	}

	if cfg.Discovery == nil {
		cfg.Discovery = &DiscoveryConfig{}
	}
	if threads := os.Getenv("NEOAGENT_DISCOVERY_THREADS"); threads != "" {
		if t, err := strconv.Atoi(threads); err == nil {
			cfg.Discovery.ThreadsDiscovery = t
		}
	}

	return nil
}

// setDefaults fills every unset field with its production default.
func setDefaults(cfg *Config) {
	if cfg.Server == nil {
		cfg.Server = &ServerConfig{}
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8081
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60 * time.Second
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = 1 << 20
	}

	if cfg.Log == nil {
		cfg.Log = &LogConfig{}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "file"
	}
	if cfg.Log.FilePath == "" {
		cfg.Log.FilePath = "logs/agent.log"
	}
	if cfg.Log.MaxSize == 0 {
		cfg.Log.MaxSize = 100
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = 10
	}
	if cfg.Log.MaxAge == 0 {
		cfg.Log.MaxAge = 30
	}

	if cfg.Agent == nil {
		cfg.Agent = &AgentConfig{}
	}
	if cfg.Agent.ID == "" {
		cfg.Agent.ID = generateAgentID()
	}
	if cfg.Agent.Name == "" {
		cfg.Agent.Name = "neoagent"
	}
	if cfg.Agent.WorkDir == "" {
		cfg.Agent.WorkDir = "./work"
	}
	if cfg.Agent.TempDir == "" {
		cfg.Agent.TempDir = "./temp"
	}
	if cfg.Agent.LogDir == "" {
		cfg.Agent.LogDir = "./logs"
	}
	if cfg.Agent.DataDir == "" {
		cfg.Agent.DataDir = "./data"
	}

	if cfg.Discovery == nil {
		cfg.Discovery = &DiscoveryConfig{}
	}
	if cfg.Discovery.ThreadsDiscovery == 0 {
		cfg.Discovery.ThreadsDiscovery = 8
	}
	if cfg.Discovery.NmapBinaryPath == "" {
		cfg.Discovery.NmapBinaryPath = "nmap"
	}
	if cfg.Discovery.NmapBinaryVersion == "" {
		cfg.Discovery.NmapBinaryVersion = "7.90"
	}
	if cfg.Discovery.NetbiosTimeout == 0 {
		cfg.Discovery.NetbiosTimeout = 2 * time.Second
	}
	if cfg.Discovery.SNMPTimeout == 0 {
		cfg.Discovery.SNMPTimeout = 3 * time.Second
	}
	if cfg.Discovery.StartupThrottleEvery == 0 {
		cfg.Discovery.StartupThrottleEvery = 4
	}
	if cfg.Discovery.StartupThrottleDelay == 0 {
		cfg.Discovery.StartupThrottleDelay = 200 * time.Millisecond
	}

	if cfg.Redis == nil {
		cfg.Redis = &RedisConfig{}
	}
	if cfg.Redis.TTL == 0 {
		cfg.Redis.TTL = 24 * time.Hour
	}

	if cfg.Reporter == nil {
		cfg.Reporter = &ReporterConfig{}
	}
	if cfg.Reporter.Endpoint == "" {
		cfg.Reporter.Endpoint = "http://localhost:8080/netdiscovery"
	}
	if cfg.Reporter.Timeout == 0 {
		cfg.Reporter.Timeout = 10 * time.Second
	}
}

// validateConfig checks the minimal set of fields a bad config file most
// commonly gets wrong.
func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	if cfg.Discovery.ThreadsDiscovery <= 0 {
		return fmt.Errorf("invalid discovery threads: %d", cfg.Discovery.ThreadsDiscovery)
	}
	if cfg.Reporter.Endpoint == "" {
		return fmt.Errorf("reporter endpoint must not be empty")
	}

	dirs := []string{cfg.Agent.WorkDir, cfg.Agent.TempDir, cfg.Agent.LogDir, cfg.Agent.DataDir}
	for _, dir := range dirs {
		if err := ensureDir(dir); err != nil {
			return fmt.Errorf("failed to ensure directory %s: %w", dir, err)
		}
	}

	return nil
}

// loadConfigFile reads and unmarshals a YAML or JSON config file into cfg.
func loadConfigFile(cfg *Config, configPath string) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch filepath.Ext(configPath) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config file format: %s", filepath.Ext(configPath))
	}

	return nil
}

// ensureDirectories creates every agent working directory that does not yet exist.
func ensureDirectories(cfg *Config) error {
	dirs := []string{cfg.Agent.WorkDir, cfg.Agent.TempDir, cfg.Agent.LogDir, cfg.Agent.DataDir}
	for _, dir := range dirs {
		if dir != "" {
			if err := ensureDir(dir); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}
	return nil
}

func ensureDir(dir string) error {
	if dir == "" {
		return nil
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	return os.MkdirAll(absDir, 0755)
}

func generateAgentID() string {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}
	return fmt.Sprintf("agent-%s-%d", hostname, time.Now().Unix())
}

var globalConfig *Config

// GetConfig returns the process-wide Config, loading it on first use.
func GetConfig() *Config {
	if globalConfig == nil {
		cfg, err := LoadConfig("")
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
		globalConfig = cfg
	}
	return globalConfig
}

// ReloadConfig reloads and replaces the process-wide Config.
func ReloadConfig() error {
	cfg, err := LoadConfig("")
	if err != nil {
		return err
	}
	globalConfig = cfg
	return nil
}
