package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultPDFPasswords is the ordered list of passwords probed against encrypted PDFs.
var DefaultPDFPasswords = []string{"", "password", "123456", "admin", "1234", "12345678", "0000", "user", "owner"}

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Upload     UploadConfig
	Processing ProcessingConfig
	Inference  InferenceConfig
	Analysis   AnalysisConfig
	Archive    ArchiveConfig
	S3         S3Config
	Log        LogConfig
	CORS       CORSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// UploadConfig holds upload storage settings.
type UploadConfig struct {
	Dir           string `mapstructure:"dir"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	MaxFiles      int    `mapstructure:"max_files"`
}

// ProcessingConfig holds document normalization settings.
type ProcessingConfig struct {
	WorkDir           string   `mapstructure:"work_dir"`
	DPI               int      `mapstructure:"dpi"`
	MaxImageDimension int      `mapstructure:"max_image_dimension"`
	PDFPasswords      []string `mapstructure:"pdf_passwords"`
}

// InferenceConfig holds settings for the vision-and-text inference backend.
type InferenceConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	Model           string        `mapstructure:"model"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"`
	TimeoutSecs     int           `mapstructure:"timeout_secs"`
	Temperature     float64       `mapstructure:"temperature"`
	PageMaxTokens   int           `mapstructure:"page_max_tokens"`
	ReportMaxTokens int           `mapstructure:"report_max_tokens"`
	PageConcurrency int           `mapstructure:"page_concurrency"`
}

// AnalysisConfig holds per-request pipeline settings.
type AnalysisConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	CleanupDelay time.Duration `mapstructure:"cleanup_delay"`
}

// ArchiveConfig selects where finished reports are archived.
type ArchiveConfig struct {
	Provider string `mapstructure:"provider"`
	Prefix   string `mapstructure:"prefix"`
}

// S3Config holds AWS S3 settings used by the report archive.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// LogConfig holds logging settings. Level "debug" adds microsecond
// timestamps and file positions to log lines and enables gin debug output.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads configuration from environment variables with the CREDITSCOPE_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CREDITSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "0s")
	v.SetDefault("server.environment", "development")

	// Upload defaults
	v.SetDefault("upload.dir", "./uploads")
	v.SetDefault("upload.max_file_size_mb", 50)
	v.SetDefault("upload.max_files", 10)

	// Processing defaults
	v.SetDefault("processing.work_dir", "")
	v.SetDefault("processing.dpi", 200)
	v.SetDefault("processing.max_image_dimension", 2048)
	v.SetDefault("processing.pdf_passwords", "")

	// Inference defaults
	v.SetDefault("inference.base_url", "http://localhost:11434")
	v.SetDefault("inference.model", "qwen2.5vl:7b")
	v.SetDefault("inference.max_retries", 3)
	v.SetDefault("inference.retry_delay", "2s")
	v.SetDefault("inference.timeout_secs", 300)
	v.SetDefault("inference.temperature", 0.1)
	v.SetDefault("inference.page_max_tokens", 2048)
	v.SetDefault("inference.report_max_tokens", 4096)
	v.SetDefault("inference.page_concurrency", 1)

	// Analysis defaults
	v.SetDefault("analysis.timeout", "30m")
	v.SetDefault("analysis.cleanup_delay", "5s")

	// Archive defaults
	v.SetDefault("archive.provider", "noop")
	v.SetDefault("archive.prefix", "reports")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "creditscope-reports")
	v.SetDefault("s3.endpoint", "")

	// Log defaults
	v.SetDefault("log.level", "debug")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000,http://localhost:5173,http://127.0.0.1:5173")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                    "CREDITSCOPE_SERVER_PORT",
		"server.read_timeout":            "CREDITSCOPE_SERVER_READ_TIMEOUT",
		"server.write_timeout":           "CREDITSCOPE_SERVER_WRITE_TIMEOUT",
		"server.environment":             "CREDITSCOPE_SERVER_ENVIRONMENT",
		"upload.dir":                     "CREDITSCOPE_UPLOAD_DIR",
		"upload.max_file_size_mb":        "CREDITSCOPE_UPLOAD_MAX_FILE_SIZE_MB",
		"upload.max_files":               "CREDITSCOPE_UPLOAD_MAX_FILES",
		"processing.work_dir":            "CREDITSCOPE_PROCESSING_WORK_DIR",
		"processing.dpi":                 "CREDITSCOPE_PROCESSING_DPI",
		"processing.max_image_dimension": "CREDITSCOPE_PROCESSING_MAX_IMAGE_DIMENSION",
		"processing.pdf_passwords":       "CREDITSCOPE_PROCESSING_PDF_PASSWORDS",
		"inference.base_url":             "CREDITSCOPE_INFERENCE_BASE_URL",
		"inference.model":                "CREDITSCOPE_INFERENCE_MODEL",
		"inference.max_retries":          "CREDITSCOPE_INFERENCE_MAX_RETRIES",
		"inference.retry_delay":          "CREDITSCOPE_INFERENCE_RETRY_DELAY",
		"inference.timeout_secs":         "CREDITSCOPE_INFERENCE_TIMEOUT_SECS",
		"inference.temperature":          "CREDITSCOPE_INFERENCE_TEMPERATURE",
		"inference.page_max_tokens":      "CREDITSCOPE_INFERENCE_PAGE_MAX_TOKENS",
		"inference.report_max_tokens":    "CREDITSCOPE_INFERENCE_REPORT_MAX_TOKENS",
		"inference.page_concurrency":     "CREDITSCOPE_INFERENCE_PAGE_CONCURRENCY",
		"analysis.timeout":               "CREDITSCOPE_ANALYSIS_TIMEOUT",
		"analysis.cleanup_delay":         "CREDITSCOPE_ANALYSIS_CLEANUP_DELAY",
		"archive.provider":               "CREDITSCOPE_ARCHIVE_PROVIDER",
		"archive.prefix":                 "CREDITSCOPE_ARCHIVE_PREFIX",
		"s3.region":                      "CREDITSCOPE_S3_REGION",
		"s3.bucket":                      "CREDITSCOPE_S3_BUCKET",
		"s3.endpoint":                    "CREDITSCOPE_S3_ENDPOINT",
		"s3.access_key":                  "CREDITSCOPE_S3_ACCESS_KEY",
		"s3.secret_key":                  "CREDITSCOPE_S3_SECRET_KEY",
		"log.level":                      "CREDITSCOPE_LOG_LEVEL",
		"cors.allowed_origins":           "CREDITSCOPE_CORS_ALLOWED_ORIGINS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Container platforms set a PORT env var. Use it if CREDITSCOPE_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("CREDITSCOPE_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.Upload = UploadConfig{
		Dir:           v.GetString("upload.dir"),
		MaxFileSizeMB: v.GetInt64("upload.max_file_size_mb"),
		MaxFiles:      v.GetInt("upload.max_files"),
	}

	workDir := v.GetString("processing.work_dir")
	if workDir == "" {
		workDir = filepath.Join(os.TempDir(), "creditscope")
	}
	passwords := splitList(v.GetString("processing.pdf_passwords"), false)
	if len(passwords) == 0 {
		passwords = append([]string(nil), DefaultPDFPasswords...)
	}
	cfg.Processing = ProcessingConfig{
		WorkDir:           workDir,
		DPI:               v.GetInt("processing.dpi"),
		MaxImageDimension: v.GetInt("processing.max_image_dimension"),
		PDFPasswords:      passwords,
	}

	cfg.Inference = InferenceConfig{
		BaseURL:         strings.TrimRight(v.GetString("inference.base_url"), "/"),
		Model:           v.GetString("inference.model"),
		MaxRetries:      v.GetInt("inference.max_retries"),
		RetryDelay:      v.GetDuration("inference.retry_delay"),
		TimeoutSecs:     v.GetInt("inference.timeout_secs"),
		Temperature:     v.GetFloat64("inference.temperature"),
		PageMaxTokens:   v.GetInt("inference.page_max_tokens"),
		ReportMaxTokens: v.GetInt("inference.report_max_tokens"),
		PageConcurrency: v.GetInt("inference.page_concurrency"),
	}
	cfg.Analysis = AnalysisConfig{
		Timeout:      v.GetDuration("analysis.timeout"),
		CleanupDelay: v.GetDuration("analysis.cleanup_delay"),
	}
	cfg.Archive = ArchiveConfig{
		Provider: v.GetString("archive.provider"),
		Prefix:   v.GetString("archive.prefix"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
	}
	cfg.Log = LogConfig{
		Level: strings.ToLower(v.GetString("log.level")),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins"), true),
	}

	return cfg, nil
}

// splitList splits a comma-separated value. Empty entries are dropped when
// dropEmpty is set; otherwise a lone empty value yields no entries but
// explicit empty items (",admin") are kept so the empty password can be listed.
func splitList(raw string, dropEmpty bool) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" && dropEmpty {
			continue
		}
		out = append(out, item)
	}
	return out
}
