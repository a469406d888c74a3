package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "/etc/fabric-authz/config"
	ConfigFileName    = "fabric-authz.yml"
)

// Config holds all authorization service settings
type Config struct {
	// TrustedProxies is a list of CIDR ranges for trusted proxies
	TrustedProxies []string `yaml:"trusted_proxies" json:"trusted_proxies"`

	// DefaultIdentityProvider is assumed when a request omits one
	DefaultIdentityProvider string `yaml:"default_identity_provider" json:"default_identity_provider"`

	// IdentityServiceURL is the external identity service consulted for
	// user metadata in member search. Empty disables the lookup.
	IdentityServiceURL string `yaml:"identity_service_url" json:"identity_service_url"`

	// MemberSearchPageSizeMax caps the page_size accepted by member search
	MemberSearchPageSizeMax int `yaml:"member_search_page_size_max" json:"member_search_page_size_max"`

	// RequestTimeoutSeconds bounds resolution requests
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds" json:"request_timeout_seconds"`

	// AuditEnabled enables the audit event store
	AuditEnabled bool `yaml:"audit_enabled" json:"audit_enabled"`

	// sources tracks where each value came from
	sources map[string]string

	// configFilePath is the path to the config file
	configFilePath string
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// Global singleton config
var (
	globalConfig *Config
	configMu     sync.RWMutex
)

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	configMu.RLock()
	if globalConfig != nil {
		configMu.RUnlock()
		return globalConfig
	}
	configMu.RUnlock()

	configMu.Lock()
	defer configMu.Unlock()

	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			globalConfig = newDefault()
		} else {
			globalConfig = cfg
		}
	}
	return globalConfig
}

// Reload reloads the configuration from file and environment
func Reload() error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	configMu.Lock()
	globalConfig = cfg
	configMu.Unlock()
	return nil
}

// newDefault returns a config with default values
func newDefault() *Config {
	return &Config{
		TrustedProxies:          []string{},
		DefaultIdentityProvider: "windows",
		IdentityServiceURL:      "",
		MemberSearchPageSizeMax: 100,
		RequestTimeoutSeconds:   30,
		AuditEnabled:            true,
		sources:                 make(map[string]string),
	}
}

// Load loads configuration from file and environment variables.
// Environment variables take precedence over file values.
func Load() (*Config, error) {
	config := newDefault()

	for _, name := range attributeNames() {
		config.sources[name] = "default"
	}

	configPath := os.Getenv("FABRIC_AUTHZ_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	config.configFilePath = filepath.Join(configPath, ConfigFileName)

	if data, err := os.ReadFile(config.configFilePath); err == nil {
		var fileConfig Config
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
		config.applyFileConfig(&fileConfig)
	}

	config.applyEnvConfig()

	return config, nil
}

func attributeNames() []string {
	return []string{
		"trusted_proxies", "default_identity_provider", "identity_service_url",
		"member_search_page_size_max", "request_timeout_seconds", "audit_enabled",
	}
}

func (c *Config) applyFileConfig(file *Config) {
	if len(file.TrustedProxies) > 0 {
		c.TrustedProxies = file.TrustedProxies
		c.sources["trusted_proxies"] = "file"
	}
	if file.DefaultIdentityProvider != "" {
		c.DefaultIdentityProvider = file.DefaultIdentityProvider
		c.sources["default_identity_provider"] = "file"
	}
	if file.IdentityServiceURL != "" {
		c.IdentityServiceURL = file.IdentityServiceURL
		c.sources["identity_service_url"] = "file"
	}
	if file.MemberSearchPageSizeMax != 0 {
		c.MemberSearchPageSizeMax = file.MemberSearchPageSizeMax
		c.sources["member_search_page_size_max"] = "file"
	}
	if file.RequestTimeoutSeconds != 0 {
		c.RequestTimeoutSeconds = file.RequestTimeoutSeconds
		c.sources["request_timeout_seconds"] = "file"
	}
}

func (c *Config) applyEnvConfig() {
	if val := os.Getenv("FABRIC_AUTHZ_TRUSTED_PROXIES"); val != "" {
		c.TrustedProxies = splitAndTrim(val)
		c.sources["trusted_proxies"] = "environment"
	}
	if val := os.Getenv("FABRIC_AUTHZ_DEFAULT_IDENTITY_PROVIDER"); val != "" {
		c.DefaultIdentityProvider = val
		c.sources["default_identity_provider"] = "environment"
	}
	if val := os.Getenv("FABRIC_AUTHZ_IDENTITY_SERVICE_URL"); val != "" {
		c.IdentityServiceURL = val
		c.sources["identity_service_url"] = "environment"
	}
	if val := os.Getenv("FABRIC_AUTHZ_MEMBER_SEARCH_PAGE_SIZE_MAX"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.MemberSearchPageSizeMax = i
			c.sources["member_search_page_size_max"] = "environment"
		}
	}
	if val := os.Getenv("FABRIC_AUTHZ_REQUEST_TIMEOUT_SECONDS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.RequestTimeoutSeconds = i
			c.sources["request_timeout_seconds"] = "environment"
		}
	}
	if val := os.Getenv("FABRIC_AUTHZ_AUDIT_ENABLED"); val != "" {
		c.AuditEnabled = val == "true" || val == "1"
		c.sources["audit_enabled"] = "environment"
	}
}

// ConfigFilePath returns the path to the config file
func (c *Config) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *Config) Source(name string) string {
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// RequestTimeout returns the request timeout as a duration
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// IsTrustedProxy checks if an IP is from a trusted proxy
func (c *Config) IsTrustedProxy(ip string) bool {
	if len(c.TrustedProxies) == 0 {
		return false
	}

	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		return false
	}

	for _, cidr := range c.TrustedProxies {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			if net.ParseIP(cidr) != nil && cidr == ip {
				return true
			}
			continue
		}
		if network.Contains(parsedIP) {
			return true
		}
	}
	return false
}

// Validate validates the configuration
func (c *Config) Validate() error {
	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			if net.ParseIP(cidr) == nil {
				return fmt.Errorf("invalid trusted_proxies value: %s", cidr)
			}
		}
	}
	if c.MemberSearchPageSizeMax < 1 {
		return fmt.Errorf("member_search_page_size_max must be positive, got %d", c.MemberSearchPageSizeMax)
	}
	if c.RequestTimeoutSeconds < 1 {
		return fmt.Errorf("request_timeout_seconds must be positive, got %d", c.RequestTimeoutSeconds)
	}
	return nil
}

// Attributes returns all configuration attributes with their values and sources
func (c *Config) Attributes() []Attribute {
	return []Attribute{
		{Name: "trusted_proxies", Value: strings.Join(c.TrustedProxies, ","), Source: c.Source("trusted_proxies")},
		{Name: "default_identity_provider", Value: c.DefaultIdentityProvider, Source: c.Source("default_identity_provider")},
		{Name: "identity_service_url", Value: c.IdentityServiceURL, Source: c.Source("identity_service_url")},
		{Name: "member_search_page_size_max", Value: strconv.Itoa(c.MemberSearchPageSizeMax), Source: c.Source("member_search_page_size_max")},
		{Name: "request_timeout_seconds", Value: strconv.Itoa(c.RequestTimeoutSeconds), Source: c.Source("request_timeout_seconds")},
		{Name: "audit_enabled", Value: strconv.FormatBool(c.AuditEnabled), Source: c.Source("audit_enabled")},
	}
}

// FormatText returns a text representation of the configuration
func (c *Config) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-40s %-30s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-40s %-30s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-40s %-30s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *Config) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
