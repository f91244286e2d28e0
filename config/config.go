package config

import (
	"os"
	"strconv"
)

// JWTConfig JWT相关配置
type JWTConfig struct {
	SecretKey       string
	AccessTokenTTL  int // 小时
	RefreshTokenTTL int // 小时
}

// DBConfig 数据库相关配置
type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// RedisConfig Redis相关配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SMSConfig 阿里云短信配置
type SMSConfig struct {
	AccessKeyID     string
	AccessKeySecret string
	SignName        string
	TemplateCode    string
}

// Config 应用配置
type Config struct {
	JWTConfig   JWTConfig
	DBConfig    DBConfig
	RedisConfig RedisConfig
	SMSConfig   SMSConfig
	MediaDir    string
	LogDir      string
	Port        string
}

// getEnv 读取环境变量，不存在时返回默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt 读取整数环境变量
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// LoadConfig 加载应用配置
func LoadConfig() Config {
	return Config{
		JWTConfig: JWTConfig{
			SecretKey:       getEnv("JWT_SECRET_KEY", "kol-crm-secret-key"),
			AccessTokenTTL:  getEnvInt("JWT_ACCESS_TOKEN_TTL", 24),
			RefreshTokenTTL: getEnvInt("JWT_REFRESH_TOKEN_TTL", 168),
		},
		DBConfig: DBConfig{
			Host:     getEnv("DB_HOST", "127.0.0.1"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "kol_crm"),
		},
		RedisConfig: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		SMSConfig: SMSConfig{
			AccessKeyID:     getEnv("SMS_ACCESS_KEY_ID", ""),
			AccessKeySecret: getEnv("SMS_ACCESS_KEY_SECRET", ""),
			SignName:        getEnv("SMS_SIGN_NAME", ""),
			TemplateCode:    getEnv("SMS_TEMPLATE_CODE", ""),
		},
		MediaDir: getEnv("MEDIA_DIR", "./media"),
		LogDir:   getEnv("LOG_DIR", "./logs"),
		Port:     getEnv("PORT", "8088"),
	}
}
