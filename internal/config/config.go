package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 聚合服务启动需要的关键配置。
type Config struct {
	HTTPPort           string
	StorageDir         string
	CORSAllowedOrigins []string
	RateLimitRequests  int
	RateLimitWindow    time.Duration
	DBHost             string
	DBPort             int
	DBUser             string
	DBPassword         string
	DBName             string
	DBSSLMode          string
	// 鉴权配置
	AuthEnabled bool
	AuthMode    string // "token" 或 "jwt"
	JWTSecret   string
	JWKSURL     string
	// 存储配置
	StorageDriver string // "local" 或 "s3"
	S3Endpoint    string // S3/MinIO 端点，不含协议
	S3AccessKey   string
	S3SecretKey   string
	S3Bucket      string
	S3Region      string
	S3Prefix      string
	S3UseSSL      bool // 是否使用 HTTPS
	S3PathStyle   bool // 是否使用路径风格访问（MinIO 需要设为 true）
	// 日志
	LogLevel  string
	LogFormat string // "json" 或 "console"
	// 上传入库
	MaxUploadBytes     int64
	IngestAllowedTypes []string
	IngestHash         string
	IngestBatchMode    string
	IngestConcurrency  int
	TempSweepTTL       time.Duration
	TempSweepInterval  time.Duration
	// GitHub
	GitHubToken  string
	GitHubOwner  string
	GitHubRepo   string
	GitHubAPIURL string
}

// env 先读环境变量，再回退到 QUILL_CONFIG 指向的 YAML 文件。
type env struct {
	file map[string]string
}

func (e env) get(key string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return e.file[key]
}

// Load 从环境变量加载配置，并提供默认值。
func Load() (*Config, error) {
	e := env{}
	if path := os.Getenv("QUILL_CONFIG"); path != "" {
		values, err := readFile(path)
		if err != nil {
			return nil, err
		}
		e.file = values
	}
	return e.load()
}

// readFile 读取 YAML 配置文件，键名与环境变量相同（大小写不敏感）。
func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		key := strings.ToUpper(strings.TrimSpace(k))
		switch val := v.(type) {
		case nil:
			continue
		case []any:
			parts := make([]string, 0, len(val))
			for _, item := range val {
				parts = append(parts, fmt.Sprint(item))
			}
			out[key] = strings.Join(parts, ",")
		default:
			out[key] = fmt.Sprint(val)
		}
	}
	return out, nil
}

func (e env) load() (*Config, error) {
	port := e.orDefault("PORT", "8080")

	storage := e.orDefault("STORAGE_DIR", "./data")
	if err := ensureDir(storage); err != nil {
		return nil, fmt.Errorf("确保存储目录失败: %w", err)
	}

	corsOrigins := parseList(e.get("CORS_ALLOWED_ORIGINS"))
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"http://localhost:5173"}
	}

	rateLimitRequests, err := e.parseInt("RATE_LIMIT_REQUESTS", 60)
	if err != nil {
		return nil, err
	}

	rateLimitWindow, err := e.parseDuration("RATE_LIMIT_WINDOW", time.Minute)
	if err != nil {
		return nil, err
	}

	dbPort, err := e.parseInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}

	// 鉴权配置
	authMode := strings.ToLower(e.orDefault("AUTH_MODE", "token"))
	if authMode != "token" && authMode != "jwt" {
		return nil, fmt.Errorf("AUTH_MODE 只能是 token 或 jwt: %q", authMode)
	}

	storageDriver := strings.ToLower(e.orDefault("STORAGE_DRIVER", "local"))
	if storageDriver != "local" && storageDriver != "s3" {
		return nil, fmt.Errorf("STORAGE_DRIVER 只能是 local 或 s3: %q", storageDriver)
	}

	maxUpload, err := e.parseInt("MAX_UPLOAD_BYTES", 100<<20)
	if err != nil {
		return nil, err
	}

	concurrency, err := e.parseInt("INGEST_CONCURRENCY", 8)
	if err != nil {
		return nil, err
	}

	sweepTTL, err := e.parseDuration("TEMP_SWEEP_TTL", time.Hour)
	if err != nil {
		return nil, err
	}

	sweepInterval, err := e.parseDuration("TEMP_SWEEP_INTERVAL", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	allowed := parseList(e.get("INGEST_ALLOWED_TYPES"))
	if len(allowed) == 0 {
		allowed = []string{"image/*"}
	}

	return &Config{
		HTTPPort:           port,
		StorageDir:         storage,
		CORSAllowedOrigins: corsOrigins,
		RateLimitRequests:  rateLimitRequests,
		RateLimitWindow:    rateLimitWindow,
		DBHost:             e.orDefault("DB_HOST", "127.0.0.1"),
		DBPort:             dbPort,
		DBUser:             e.orDefault("DB_USER", "quill"),
		DBPassword:         e.orDefault("DB_PASSWORD", "quill"),
		DBName:             e.orDefault("DB_NAME", "quill"),
		DBSSLMode:          e.orDefault("DB_SSL_MODE", "disable"),
		AuthEnabled:        e.parseBool("AUTH_ENABLED", true),
		AuthMode:           authMode,
		JWTSecret:          e.get("JWT_SECRET"),
		JWKSURL:            e.get("JWKS_URL"),
		StorageDriver:      storageDriver,
		S3Endpoint:         e.orDefault("S3_ENDPOINT", "localhost:9000"),
		S3AccessKey:        e.orDefault("S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey:        e.orDefault("S3_SECRET_KEY", "minioadmin"),
		S3Bucket:           e.orDefault("S3_BUCKET", "quill"),
		S3Region:           e.orDefault("S3_REGION", "us-east-1"),
		S3Prefix:           e.get("S3_PREFIX"),
		S3UseSSL:           e.parseBool("S3_USE_SSL", false),
		S3PathStyle:        e.parseBool("S3_PATH_STYLE", true),
		LogLevel:           e.orDefault("LOG_LEVEL", "info"),
		LogFormat:          e.orDefault("LOG_FORMAT", "json"),
		MaxUploadBytes:     int64(maxUpload),
		IngestAllowedTypes: allowed,
		IngestHash:         e.orDefault("INGEST_HASH", "sha256"),
		IngestBatchMode:    e.orDefault("INGEST_BATCH_MODE", "immediate"),
		IngestConcurrency:  concurrency,
		TempSweepTTL:       sweepTTL,
		TempSweepInterval:  sweepInterval,
		GitHubToken:        e.get("GITHUB_TOKEN"),
		GitHubOwner:        e.get("GITHUB_OWNER"),
		GitHubRepo:         e.get("GITHUB_REPO"),
		GitHubAPIURL:       e.orDefault("GITHUB_API_URL", "https://api.github.com"),
	}, nil
}

func ensureDir(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("路径 %s 已存在但不是目录", path)
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(path, 0o755)
	}

	return err
}

func parseList(raw string) []string {
	if raw == "" {
		return nil
	}

	items := strings.Split(raw, ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func (e env) parseInt(key string, defaultValue int) (int, error) {
	raw := e.get(key)
	if raw == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("解析 %s 失败: %w", key, err)
	}
	if value <= 0 {
		return defaultValue, nil
	}
	return value, nil
}

func (e env) parseDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := e.get(key)
	if raw == "" {
		return defaultValue, nil
	}

	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("解析 %s 失败: %w", key, err)
	}
	if value <= 0 {
		return defaultValue, nil
	}
	return value, nil
}

func (e env) parseBool(key string, defaultValue bool) bool {
	raw := strings.TrimSpace(e.get(key))
	if raw == "" {
		return defaultValue
	}
	lower := strings.ToLower(raw)
	return lower == "true" || lower == "1" || lower == "yes"
}

func (e env) orDefault(key, defaultValue string) string {
	if value := e.get(key); value != "" {
		return value
	}
	return defaultValue
}

// PostgresDSN 生成标准 postgres:// 连接串，供数据访问层直接使用。
func (c *Config) PostgresDSN() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUser, c.DBPassword),
		Host:   fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:   c.DBName,
	}

	q := url.Values{}
	if c.DBSSLMode != "" {
		q.Set("sslmode", c.DBSSLMode)
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// GitHubEnabled 报告是否配置了 issue 镜像所需的仓库信息。
func (c *Config) GitHubEnabled() bool {
	return c.GitHubToken != "" && c.GitHubOwner != "" && c.GitHubRepo != ""
}

// TempDir 是上传流水线写临时文件的目录，位于存储根目录下。
func (c *Config) TempDir() string {
	return filepath.Join(c.StorageDir, ".tmp")
}
