package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed species.yaml
var speciesYAML []byte

type Config struct {
	Storage   StorageConfig
	Database  DatabaseConfig
	Detector  DetectorConfig
	OpenAI    OpenAIConfig
	Gemini    GeminiConfig
	Video     VideoConfig
	Thumbnail ThumbnailConfig
	Notify    NotifyConfig
	Web       WebConfig
	Log       LogConfig
	Catalog   CatalogConfig
}

type StorageConfig struct {
	Bucket   string
	Region   string
	Endpoint string // optional S3-compatible endpoint (e.g. MinIO) for local development
}

type DatabaseConfig struct {
	Driver       string // postgres, mariadb or memory
	URL          string // PostgreSQL URL or MariaDB DSN
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type DetectorConfig struct {
	Provider                string  // http, openai or gemini
	URL                     string  // detection sidecar URL, defaults to http://localhost:8000
	MinConfidence           float64 // applied during ingestion
	ContentSearchConfidence float64 // applied when detecting species in a query file
}

type OpenAIConfig struct {
	Token string
}

type GeminiConfig struct {
	APIKey string
}

type VideoConfig struct {
	FFmpegPath  string
	FFprobePath string
}

type ThumbnailConfig struct {
	Width int
}

type NotifyConfig struct {
	Enabled bool
	Region  string
}

type WebConfig struct {
	Port           int
	Host           string
	AllowedOrigins []string // CORS whitelist, localhost is always allowed
}

type LogConfig struct {
	Mode string
}

// CatalogConfig lists the species the detector can report.
type CatalogConfig struct {
	Species []SpeciesEntry `yaml:"species"`
}

type SpeciesEntry struct {
	Name string `yaml:"name"`
}

// Names returns the catalog species names in file order.
func (c CatalogConfig) Names() []string {
	names := make([]string, 0, len(c.Species))
	for _, s := range c.Species {
		names = append(names, s.Name)
	}
	return names
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads a float in [0, 1], falling back to defaultVal.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 && f <= 1 {
		return f
	}
	return defaultVal
}

func envBool(key string) bool {
	b, _ := strconv.ParseBool(os.Getenv(key))
	return b
}

func envString(key, defaultVal string) string {
	if s := strings.TrimSpace(os.Getenv(key)); s != "" {
		return s
	}
	return defaultVal
}

// envList splits a comma-separated variable, dropping empty entries.
func envList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func Load() *Config {
	var catalog CatalogConfig
	if err := yaml.Unmarshal(speciesYAML, &catalog); err != nil {
		// Embedded at build time, so this only fails on a broken build.
		panic("failed to unmarshal embedded species.yaml: " + err.Error())
	}

	region := envString("S3_REGION", "us-east-1")

	return &Config{
		Storage: StorageConfig{
			Bucket:   os.Getenv("S3_BUCKET"),
			Region:   region,
			Endpoint: os.Getenv("S3_ENDPOINT"),
		},
		Database: DatabaseConfig{
			Driver:       strings.ToLower(envString("DATABASE_DRIVER", "postgres")),
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Detector: DetectorConfig{
			Provider:                strings.ToLower(envString("DETECTOR_PROVIDER", "http")),
			URL:                     envString("DETECTOR_URL", "http://localhost:8000"),
			MinConfidence:           envFloat("DETECTOR_MIN_CONFIDENCE", 0),
			ContentSearchConfidence: envFloat("CONTENT_SEARCH_MIN_CONFIDENCE", 0.5),
		},
		OpenAI: OpenAIConfig{
			Token: os.Getenv("OPENAI_TOKEN"),
		},
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
		},
		Video: VideoConfig{
			FFmpegPath:  envString("FFMPEG_PATH", "ffmpeg"),
			FFprobePath: envString("FFPROBE_PATH", "ffprobe"),
		},
		Thumbnail: ThumbnailConfig{
			Width: envInt("THUMBNAIL_WIDTH", 256),
		},
		Notify: NotifyConfig{
			Enabled: envBool("NOTIFY_ENABLED"),
			Region:  envString("SNS_REGION", region),
		},
		Web: WebConfig{
			Port:           envInt("WEB_PORT", 8080),
			Host:           envString("WEB_HOST", "0.0.0.0"),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		Log: LogConfig{
			Mode: envString("LOG_MODE", "dev"),
		},
		Catalog: catalog,
	}
}
