package config

import (
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"BioDigest/internal/domain"
)

const (
	defaultTimezone = "Asia/Shanghai"

	configPathEnv   = "BIODIGEST_CONFIG"
	llmAPIKeyEnv    = "SILICONFLOW_API_KEY"
	llmModelEnv     = "LLM_MODEL"
	smtpServerEnv   = "SMTP_SERVER"
	smtpPortEnv     = "SMTP_PORT"
	smtpSenderEnv   = "SMTP_SENDER_EMAIL"
	smtpPasswordEnv = "SMTP_PASSWORD"
	recipientEnv    = "EMAIL_RECIPIENT"
)

// Config holds high-level settings required across the application.
type Config struct {
	Timezone    string              `yaml:"timezone"`
	WindowHours int                 `yaml:"windowHours"`
	ReportTimes []string            `yaml:"reportTimes"`
	Queries     []domain.QueryBlock `yaml:"queries"`
	Exclude     []string            `yaml:"exclude"`
	Digest      DigestConfig        `yaml:"digest"`
	Sources     SourcesConfig       `yaml:"sources"`
	LLM         LLMConfig           `yaml:"llm"`
	Mail        MailConfig          `yaml:"-"`
	Storage     StorageConfig       `yaml:"storage"`
	Logging     LoggingConfig       `yaml:"logging"`

	location *time.Location
}

// DigestConfig shapes the generated report.
type DigestConfig struct {
	Mode             string `yaml:"mode"`
	AbstractMaxChars int    `yaml:"abstractMaxChars"`
	MaxItems         int    `yaml:"maxItems"`
}

// SourcesConfig groups settings for the two article providers.
type SourcesConfig struct {
	BioRxiv BioRxivConfig `yaml:"biorxiv"`
	PubMed  PubMedConfig  `yaml:"pubmed"`
}

// BioRxivConfig lists the subject feeds to poll.
type BioRxivConfig struct {
	Feeds           []string `yaml:"feeds"`
	DefaultCategory string   `yaml:"defaultCategory"`
}

// PubMedConfig scopes the literature-index query.
type PubMedConfig struct {
	BaseURL     string   `yaml:"baseUrl"`
	Venues      []string `yaml:"venues"`
	MaxPerVenue int      `yaml:"maxPerVenue"`
	DaysBack    int      `yaml:"daysBack"`
}

// LLMConfig defines how to contact the summarization API.
type LLMConfig struct {
	Endpoint     string  `yaml:"endpoint"`
	Model        string  `yaml:"model"`
	SystemPrompt string  `yaml:"systemPrompt"`
	Temperature  float32 `yaml:"temperature"`
	MaxTokens    int     `yaml:"maxTokens"`
	APIKey       string  `yaml:"-"`
}

// MailConfig is populated exclusively from the environment.
type MailConfig struct {
	Server     string
	Port       int
	Sender     string
	Password   string
	Recipients []string
}

// StorageConfig locates the per-period artifact directory.
type StorageConfig struct {
	DataDir string `yaml:"dataDir"`
}

// LoggingConfig tunes the slog setup.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Location resolves the configured timezone string to a time.Location.
func (c Config) Location() *time.Location {
	if c.location != nil {
		return c.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// DigestMode returns the digest mode tag, defaulting to the concise template.
func (d DigestConfig) DigestMode() domain.DigestMode {
	if strings.EqualFold(strings.TrimSpace(d.Mode), string(domain.ModeDeep)) {
		return domain.ModeDeep
	}
	return domain.ModeConcise
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	path := os.Getenv(configPathEnv)
	if path == "" {
		path = "config.yaml"
	}
	if raw, err := os.ReadFile(path); err != nil {
		log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
	} else {
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(llmAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv(llmModelEnv); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv(smtpServerEnv); v != "" {
		c.Mail.Server = v
	}
	if v := os.Getenv(smtpPortEnv); v != "" {
		if port, err := parsePort(v); err == nil {
			c.Mail.Port = port
		}
	}
	if v := os.Getenv(smtpSenderEnv); v != "" {
		c.Mail.Sender = v
	}
	if v := os.Getenv(smtpPasswordEnv); v != "" {
		c.Mail.Password = v
	}
	if v := os.Getenv(recipientEnv); v != "" {
		c.Mail.Recipients = SplitRecipients(v)
	}
}

// SplitRecipients parses a comma- or semicolon-separated address list.
func SplitRecipients(raw string) []string {
	raw = strings.ReplaceAll(raw, ";", ",")
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if addr := strings.TrimSpace(part); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

func parsePort(v string) (int, error) {
	port := 0
	for _, ch := range v {
		if ch < '0' || ch > '9' {
			return 0, os.ErrInvalid
		}
		port = port*10 + int(ch-'0')
	}
	return port, nil
}

func (c *Config) bindTimezone() {
	tz := c.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Timezone != "" {
		base.Timezone = override.Timezone
	}
	if override.WindowHours > 0 {
		base.WindowHours = override.WindowHours
	}
	if len(override.ReportTimes) > 0 {
		base.ReportTimes = override.ReportTimes
	}
	if len(override.Queries) > 0 {
		base.Queries = override.Queries
	}
	if len(override.Exclude) > 0 {
		base.Exclude = override.Exclude
	}

	if override.Digest.Mode != "" {
		base.Digest.Mode = override.Digest.Mode
	}
	if override.Digest.AbstractMaxChars > 0 {
		base.Digest.AbstractMaxChars = override.Digest.AbstractMaxChars
	}
	if override.Digest.MaxItems > 0 {
		base.Digest.MaxItems = override.Digest.MaxItems
	}

	if len(override.Sources.BioRxiv.Feeds) > 0 {
		base.Sources.BioRxiv.Feeds = override.Sources.BioRxiv.Feeds
	}
	if override.Sources.BioRxiv.DefaultCategory != "" {
		base.Sources.BioRxiv.DefaultCategory = override.Sources.BioRxiv.DefaultCategory
	}
	if override.Sources.PubMed.BaseURL != "" {
		base.Sources.PubMed.BaseURL = override.Sources.PubMed.BaseURL
	}
	if len(override.Sources.PubMed.Venues) > 0 {
		base.Sources.PubMed.Venues = override.Sources.PubMed.Venues
	}
	if override.Sources.PubMed.MaxPerVenue > 0 {
		base.Sources.PubMed.MaxPerVenue = override.Sources.PubMed.MaxPerVenue
	}
	if override.Sources.PubMed.DaysBack > 0 {
		base.Sources.PubMed.DaysBack = override.Sources.PubMed.DaysBack
	}

	if override.LLM.Endpoint != "" {
		base.LLM.Endpoint = override.LLM.Endpoint
	}
	if override.LLM.Model != "" {
		base.LLM.Model = override.LLM.Model
	}
	if override.LLM.SystemPrompt != "" {
		base.LLM.SystemPrompt = override.LLM.SystemPrompt
	}
	if override.LLM.Temperature > 0 {
		base.LLM.Temperature = override.LLM.Temperature
	}
	if override.LLM.MaxTokens > 0 {
		base.LLM.MaxTokens = override.LLM.MaxTokens
	}

	if override.Storage.DataDir != "" {
		base.Storage.DataDir = override.Storage.DataDir
	}
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.File != "" {
		base.Logging.File = override.Logging.File
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Timezone:    defaultTimezone,
		WindowHours: 12,
		ReportTimes: []string{"09:00", "21:00"},
		Digest: DigestConfig{
			Mode:             string(domain.ModeConcise),
			AbstractMaxChars: 500,
			MaxItems:         20,
		},
		Sources: SourcesConfig{
			BioRxiv: BioRxivConfig{
				Feeds: []string{
					"https://connect.biorxiv.org/biorxiv_xml.php?subject=cancer_biology",
					"https://connect.biorxiv.org/biorxiv_xml.php?subject=cell_biology",
					"https://connect.biorxiv.org/biorxiv_xml.php?subject=immunology",
				},
				DefaultCategory: "cancer-biology",
			},
			PubMed: PubMedConfig{
				BaseURL: "https://eutils.ncbi.nlm.nih.gov/entrez/eutils",
				Venues: []string{
					"Nature", "Science", "Cell",
					"Nature Medicine", "Nature Biotechnology", "Nature Cancer",
					"Nature Cell Biology", "Nature Genetics", "Nature Immunology",
					"Nature Methods", "Cell Stem Cell", "Cancer Cell",
					"Cancer Discovery", "Immunity", "Molecular Cell",
					"Developmental Cell",
				},
				MaxPerVenue: 10,
				DaysBack:    3,
			},
		},
		LLM: LLMConfig{
			Endpoint:     "https://api.siliconflow.cn/v1",
			Model:        "deepseek-ai/DeepSeek-V3.2-Exp",
			SystemPrompt: "You are a professional biomedical research assistant specialized in analyzing and summarizing the latest advances in oncology.",
			Temperature:  0.7,
			MaxTokens:    4000,
		},
		Storage: StorageConfig{DataDir: "data"},
		Logging: LoggingConfig{Level: "info", File: "biodigest.log"},
		location: tz,
	}
}
