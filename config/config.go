package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// SecuritySettings holds the static query-security toggles consumed by the
// execution gate. Loaded from the environment and passed by value into the
// gate at call time so the engine stays pure and testable.
type SecuritySettings struct {
	EnableDDLBlock          bool
	EnableDMLBlock          bool
	BlockedKeywords         []string // parsed from comma-separated env value
	EnableSQLInjectionCheck bool
	MaxResultRows           int // 0 = no LIMIT injection
}

// AppConfig holds application configuration loaded from environment variables and .env file.
type AppConfig struct {
	// Metadata database config
	DBHost string
	DBPort int
	DBUser string
	DBPass string
	DBName string

	// Logging config
	LogLevel      string
	LogFile       string
	LogMaxSize    int // MB
	LogMaxBackups int
	LogMaxAge     int // days
	LogCompress   bool

	// Auth config
	JWTSecret string

	// Query execution security defaults
	Security SecuritySettings

	// Audit recorder config
	AuditQueueSize int // bounded queue length for fire-and-forget audit writes

	// Target connection behaviour
	ConnectTimeoutSeconds int // dial timeout when opening target databases
}

// Cfg is the global application configuration instance.
var Cfg AppConfig

// LoadConfig loads and validates application configuration from .env file and environment variables.
func LoadConfig() error {
	if err := godotenv.Load(); err != nil {
		// Use standard log here since logger is not initialized yet
		log.Printf("[WARN] .env file not found or cannot be loaded: %v", err)
	} else {
		log.Printf("[INFO] .env file loaded successfully")
	}

	Cfg.DBHost = getEnv("DB_HOST", "127.0.0.1")
	Cfg.DBPort = getEnvInt("DB_PORT", 3306)
	Cfg.DBUser = getEnv("DB_USER", "root")
	Cfg.DBPass = getEnv("DB_PASS", "")
	Cfg.DBName = getEnv("DB_NAME", "sqlconsole")

	// Load logging config
	Cfg.LogLevel = getEnv("LOG_LEVEL", "DEBUG")
	Cfg.LogFile = getEnv("LOG_FILE", "/var/log/sqlconsole/sqlconsoleapi.log")
	Cfg.LogMaxSize = getEnvInt("LOG_MAX_SIZE", 10)
	Cfg.LogMaxBackups = getEnvInt("LOG_MAX_BACKUPS", 3)
	Cfg.LogMaxAge = getEnvInt("LOG_MAX_AGE", 28)
	Cfg.LogCompress = getEnvBool("LOG_COMPRESS", true)

	Cfg.JWTSecret = getEnv("JWT_SECRET", "sqlconsole-dev-secret")

	// Load query security toggles
	Cfg.Security = SecuritySettings{
		EnableDDLBlock:          getEnvBool("ENABLE_DDL_BLOCK", true),
		EnableDMLBlock:          getEnvBool("ENABLE_DML_BLOCK", false),
		BlockedKeywords:         getEnvStringSlice("BLOCKED_KEYWORDS", nil),
		EnableSQLInjectionCheck: getEnvBool("ENABLE_SQL_INJECTION_CHECK", true),
		MaxResultRows:           getEnvInt("MAX_RESULT_ROWS", 1000),
	}

	Cfg.AuditQueueSize = getEnvInt("AUDIT_QUEUE_SIZE", 256)
	Cfg.ConnectTimeoutSeconds = getEnvInt("CONNECT_TIMEOUT_SECONDS", 10)

	log.Printf("[INFO] Config loaded - DB: %s@%s:%d/%s, LogLevel: %s",
		Cfg.DBUser, Cfg.DBHost, Cfg.DBPort, Cfg.DBName, Cfg.LogLevel)
	log.Printf("[INFO] Security defaults - DDLBlock: %v, DMLBlock: %v, InjectionCheck: %v, MaxResultRows: %d, BlockedKeywords: %v",
		Cfg.Security.EnableDDLBlock, Cfg.Security.EnableDMLBlock,
		Cfg.Security.EnableSQLInjectionCheck, Cfg.Security.MaxResultRows, Cfg.Security.BlockedKeywords)

	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if boolVal, err := strconv.ParseBool(val); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

// getEnvStringSlice parses comma-separated environment variable into string slice
// Format: "item1,item2,item3" -> []string{"item1", "item2", "item3"}
func getEnvStringSlice(key string, defaultVal []string) []string {
	if val := os.Getenv(key); val != "" {
		items := strings.Split(val, ",")
		result := make([]string, 0, len(items))
		for _, item := range items {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return defaultVal
}
