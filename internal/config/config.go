package config

import (
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Поддерживаемые бэкенды файлового хранилища.
const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

type Config struct {
	// База данных и секреты
	DatabaseDSN   string `env:"DATABASE_URI"`
	AuthSecret    string `env:"AUTH_SECRET"`
	RefreshSecret string `env:"REFRESH_SECRET"`

	// Время жизни токенов
	AccessTTLHours int `env:"ACCESS_TTL_HOURS"`
	RefreshTTLDays int `env:"REFRESH_TTL_DAYS"`

	// HTTP
	BaseURL        string        `env:"BASE_URL"`
	EnableHTTPS    bool          `env:"ENABLE_HTTPS"`
	ServerURL      string        `env:"-"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// Файлы
	StorageBackend string `env:"STORAGE_BACKEND"`
	UploadDir      string `env:"UPLOAD_DIR"`
	MaxUploadMB    int    `env:"MAX_UPLOAD_MB"`
	S3Endpoint     string `env:"S3_ENDPOINT"`
	S3AccessKey    string `env:"S3_ACCESS_KEY"`
	S3SecretKey    string `env:"S3_SECRET_KEY"`
	S3Bucket       string `env:"S3_BUCKET"`

	// Пагинация
	DefaultPageSize int `env:"DEFAULT_PAGE_SIZE"`
	MaxPageSize     int `env:"MAX_PAGE_SIZE"`

	// Первичный администратор
	AdminUsername string `env:"ADMIN_USERNAME"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	// Размер очереди журнала аудита
	AuditBuffer int `env:"AUDIT_BUFFER"`

	Version bool `env:"-"` // show client version and exit (flag only)
}

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	// flags работают ТОЛЬКО если переменные из env не заданы
	flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "строка подключения к БД (postgres://... или путь к файлу SQLite)")
	flag.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "секрет для подписи access-токенов")
	flag.StringVar(&cfg.RefreshSecret, "refresh-secret", cfg.RefreshSecret, "секрет для подписи refresh-токенов")
	flag.IntVar(&cfg.AccessTTLHours, "access-ttl-hours", cfg.AccessTTLHours, "время жизни access-токена, часы")
	flag.IntVar(&cfg.RefreshTTLDays, "refresh-ttl-days", cfg.RefreshTTLDays, "время жизни refresh-токена, дни")
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "адрес сервера в виде host:port")
	flag.BoolVar(&cfg.EnableHTTPS, "https", cfg.EnableHTTPS, "enable HTTPS")
	flag.DurationVar(&cfg.RequestTimeout, "request-timeout", cfg.RequestTimeout, "таймаут обработки запроса")
	flag.StringVar(&cfg.StorageBackend, "storage", cfg.StorageBackend, "файловое хранилище: local | minio")
	flag.StringVar(&cfg.UploadDir, "upload-dir", cfg.UploadDir, "каталог для загруженных файлов")
	flag.IntVar(&cfg.MaxUploadMB, "max-upload-mb", cfg.MaxUploadMB, "максимальный размер тела multipart-запроса, МБ")
	flag.StringVar(&cfg.S3Endpoint, "s3-endpoint", cfg.S3Endpoint, "адрес MinIO/S3")
	flag.StringVar(&cfg.S3Bucket, "s3-bucket", cfg.S3Bucket, "бакет для вложений")
	flag.IntVar(&cfg.DefaultPageSize, "page-size", cfg.DefaultPageSize, "размер страницы по умолчанию")
	flag.IntVar(&cfg.MaxPageSize, "max-page-size", cfg.MaxPageSize, "максимальный размер страницы")
	flag.StringVar(&cfg.AdminUsername, "admin-user", cfg.AdminUsername, "логин администратора, создаваемого при старте")
	flag.StringVar(&cfg.AdminPassword, "admin-password", cfg.AdminPassword, "пароль администратора, создаваемого при старте")

	flag.BoolVar(&cfg.Version, "version", cfg.Version, "Show client version and exit")

	flag.Parse()

	cfg.applyDefaults()

	return cfg
}

func (c *Config) applyDefaults() {
	if c.DatabaseDSN == "" {
		c.DatabaseDSN = "trackingcar.db"
	}
	if c.AuthSecret == "" {
		c.AuthSecret = "dev-secret-key"
	}
	// refresh-токены никогда не подписываются тем же ключом, что и access
	if c.RefreshSecret == "" || c.RefreshSecret == c.AuthSecret {
		c.RefreshSecret = deriveKey(c.AuthSecret, "refresh")
	}
	if c.AccessTTLHours <= 0 {
		c.AccessTTLHours = 1
	}
	if c.RefreshTTLDays <= 0 {
		c.RefreshTTLDays = 7
	}

	// validate BaseURL: must be in "address:port" (no scheme, no path). Otherwise use default.
	hostPortRe := regexp.MustCompile(`^[A-Za-z0-9\.\-]+:\d{1,5}$`)
	if !hostPortRe.MatchString(c.BaseURL) {
		c.BaseURL = "localhost:8081"
	}
	if c.EnableHTTPS {
		c.ServerURL = "https://" + c.BaseURL
	} else {
		c.ServerURL = "http://" + c.BaseURL
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}

	c.StorageBackend = strings.ToLower(strings.TrimSpace(c.StorageBackend))
	if c.StorageBackend != StorageMinio {
		c.StorageBackend = StorageLocal
	}
	if c.UploadDir == "" {
		c.UploadDir = "uploads"
	}
	if c.MaxUploadMB <= 0 {
		c.MaxUploadMB = 20
	}
	if c.S3Bucket == "" {
		c.S3Bucket = "tracking-car"
	}

	if c.MaxPageSize <= 0 {
		c.MaxPageSize = 100
	}
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = 25
	}
	if c.DefaultPageSize > c.MaxPageSize {
		c.DefaultPageSize = c.MaxPageSize
	}

	if c.AuditBuffer <= 0 {
		c.AuditBuffer = 256
	}
}

// deriveKey получает отдельный ключ из базового секрета.
func deriveKey(secret, purpose string) string {
	sum := sha256.Sum256([]byte(purpose + ":" + secret))
	return hex.EncodeToString(sum[:])
}
