package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Media    MediaConfig
	Queue    QueueConfig
	Cache    CacheConfig
	Deploy   DeployConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
	// PublicBaseURL — адрес публичного фронтенда, используется в мета-страницах
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт). Используется для всех режимов.
	Addrs []string `mapstructure:"addrs"`

	// Addr: Альтернативный адрес для режима 'single', если Addrs пустой.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"`
}

// JWTConfig содержит настройки JWT
type JWTConfig struct {
	Secret        string `mapstructure:"secret"`
	ExpirationHrs int    `mapstructure:"expirationHrs"`
}

// MediaConfig содержит настройки видеохостингов и лимиты загрузки
type MediaConfig struct {
	Cloudinary CloudinaryConfig
	Filestack  FilestackConfig

	// BulkThresholdMB: файлы больше этого размера уходят на bulk-бэкенд. По умолчанию 70.
	BulkThresholdMB int `mapstructure:"bulk_threshold_mb"`

	// MaxUploadMB: жесткий потолок размера файла. По умолчанию 500.
	MaxUploadMB int `mapstructure:"max_upload_mb"`

	// UploadTimeout: таймаут на полный цикл загрузки у вендора (загрузки больших
	// файлов медленные, поэтому он намного больше таймаутов HTTP сервера).
	UploadTimeout time.Duration `mapstructure:"upload_timeout"`
}

// CloudinaryConfig содержит креденшалы fast-бэкенда
type CloudinaryConfig struct {
	CloudName string `mapstructure:"cloud_name"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	Folder    string `mapstructure:"folder"`
}

// FilestackConfig содержит креденшалы bulk-бэкенда
type FilestackConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// QueueConfig содержит настройки очереди отложенных загрузок
type QueueConfig struct {
	// Concurrency: сколько задач воркер обрабатывает одновременно. По умолчанию 2.
	Concurrency int `mapstructure:"concurrency"`

	// MaxAttempts: попыток на задачу до терминального failed. По умолчанию 3.
	MaxAttempts int `mapstructure:"max_attempts"`

	// BackoffBase: стартовая задержка экспоненциального бэкоффа. По умолчанию 2s.
	BackoffBase time.Duration `mapstructure:"backoff_base"`

	// KeepFinished: сколько завершенных/упавших задач хранить для инспекции. По умолчанию 10.
	KeepFinished int `mapstructure:"keep_finished"`
}

// CacheConfig содержит настройки кеша кампаний
type CacheConfig struct {
	// TTL: страховочный срок жизни записи; нормальная инвалидация происходит при записи.
	TTL time.Duration `mapstructure:"ttl"`
}

// DeployConfig содержит настройки вотчера деплой-хука (cmd/deploywatch)
type DeployConfig struct {
	HookURL      string        `mapstructure:"hook_url"`
	PollURL      string        `mapstructure:"poll_url"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Load загружает конфигурацию из файла
func Load(configPath string) (*Config, error) {
	vip := viper.New() // Используем новый экземпляр Viper, чтобы избежать глобального состояния

	// 1. Значения по умолчанию
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.readtimeout", 30)
	vip.SetDefault("server.writetimeout", 30)
	vip.SetDefault("media.bulk_threshold_mb", 70)
	vip.SetDefault("media.max_upload_mb", 500)
	vip.SetDefault("media.upload_timeout", 15*time.Minute)
	vip.SetDefault("media.cloudinary.folder", "campaigns")
	vip.SetDefault("queue.concurrency", 2)
	vip.SetDefault("queue.max_attempts", 3)
	vip.SetDefault("queue.backoff_base", 2*time.Second)
	vip.SetDefault("queue.keep_finished", 10)
	vip.SetDefault("cache.ttl", time.Hour)
	vip.SetDefault("deploy.poll_interval", 2*time.Minute)

	// 2. Привязываем переменные окружения ЯВНО
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	vip.BindEnv("jwt.secret", "JWT_SECRET")
	vip.BindEnv("jwt.expirationHrs", "JWT_EXPIRATIONHRS")

	vip.BindEnv("media.cloudinary.cloud_name", "CLOUDINARY_CLOUD_NAME")
	vip.BindEnv("media.cloudinary.api_key", "CLOUDINARY_API_KEY")
	vip.BindEnv("media.cloudinary.api_secret", "CLOUDINARY_API_SECRET")
	vip.BindEnv("media.filestack.api_key", "FILESTACK_API_KEY")

	vip.BindEnv("server.port", "SERVER_PORT")
	vip.BindEnv("server.public_base_url", "PUBLIC_BASE_URL")

	vip.BindEnv("deploy.hook_url", "DEPLOY_HOOK_URL")
	vip.BindEnv("deploy.poll_url", "DEPLOY_POLL_URL")

	// 3. Путь к файлу конфигурации (не страшно, если файла нет, т.к. есть BindEnv)
	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	// 4. Анмаршалим конфигурацию (Viper объединит файл и привязанные env vars)
	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Логирование конфигурации (только в debug режиме)
	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Загруженные значения конфигурации ---")
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Redis Addr: %s", cfg.Redis.Addr)
		log.Printf("Redis Mode: %s", cfg.Redis.Mode)
		log.Printf("Cloudinary Cloud: %s", cfg.Media.Cloudinary.CloudName)
		log.Printf("Filestack Key Set: %t", cfg.Media.Filestack.APIKey != "")
		log.Printf("JWT Secret Set: %t", cfg.JWT.Secret != "")
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("-----------------------------------------")
	}

	// 6. Проверка обязательных параметров
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT secret is required in config (check JWT_SECRET env var)")
	}
	if cfg.Database.Host == "" || cfg.Database.DBName == "" || cfg.Database.User == "" {
		return nil, fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if cfg.Media.Cloudinary.CloudName == "" || cfg.Media.Cloudinary.APIKey == "" || cfg.Media.Cloudinary.APISecret == "" {
		return nil, fmt.Errorf("cloudinary configuration is incomplete (check CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY, CLOUDINARY_API_SECRET env vars)")
	}
	if cfg.Media.BulkThresholdMB <= 0 || cfg.Media.MaxUploadMB <= cfg.Media.BulkThresholdMB {
		return nil, fmt.Errorf("invalid media size limits: bulk_threshold_mb=%d, max_upload_mb=%d", cfg.Media.BulkThresholdMB, cfg.Media.MaxUploadMB)
	}

	return &cfg, nil
}
