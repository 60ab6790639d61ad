package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port        string `mapstructure:"port"`
		MetricsPort string `mapstructure:"metrics_port"`
		Env         string `mapstructure:"env"` // "production" enables release mode and strips panic stacks from 500s
	} `mapstructure:"server"`
	Database struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
	} `mapstructure:"database"`
	Auth struct {
		JWTSecret     string `mapstructure:"jwt_secret"`
		AdminUsername string `mapstructure:"admin_username"`
		AdminEmail    string `mapstructure:"admin_email"`
		AdminPassword string `mapstructure:"admin_password"`
	} `mapstructure:"auth"`
	Team struct {
		// OpenManagement keeps the flat "trusted team" behavior: any
		// authenticated account may list members and create accounts with a
		// caller-supplied role. Set to false to gate both behind role=admin.
		OpenManagement bool `mapstructure:"open_management"`
	} `mapstructure:"team"`
	Mail struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		From     string `mapstructure:"from"`
	} `mapstructure:"mail"`
	Storage struct {
		Provider      string `mapstructure:"provider"` // "local" or "s3"
		LocalPath     string `mapstructure:"local_path"`
		KeyID         string `mapstructure:"key_id"`
		AppKey        string `mapstructure:"app_key"`
		Endpoint      string `mapstructure:"endpoint"`
		Region        string `mapstructure:"region"`
		Bucket        string `mapstructure:"bucket"`
		PublicBaseURL string `mapstructure:"public_base_url"`
	} `mapstructure:"storage"`
}

func Load() *Config {
	viper.SetEnvPrefix("TASKMASTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Register keys
	viper.BindEnv("server.port")
	viper.BindEnv("server.metrics_port")
	viper.BindEnv("server.env")

	viper.BindEnv("database.host")
	viper.BindEnv("database.port")
	viper.BindEnv("database.user")
	viper.BindEnv("database.password")
	viper.BindEnv("database.name")

	viper.BindEnv("auth.jwt_secret")
	viper.BindEnv("auth.admin_username")
	viper.BindEnv("auth.admin_email")
	viper.BindEnv("auth.admin_password")

	viper.BindEnv("team.open_management")

	viper.BindEnv("mail.host")
	viper.BindEnv("mail.port")
	viper.BindEnv("mail.username")
	viper.BindEnv("mail.password")
	viper.BindEnv("mail.from")

	viper.BindEnv("storage.provider")
	viper.BindEnv("storage.local_path")
	viper.BindEnv("storage.key_id")
	viper.BindEnv("storage.app_key")
	viper.BindEnv("storage.endpoint")
	viper.BindEnv("storage.region")
	viper.BindEnv("storage.bucket")
	viper.BindEnv("storage.public_base_url")

	// Defaults
	viper.SetDefault("server.port", ":8080")
	viper.SetDefault("server.metrics_port", ":9091")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("database.port", "5432")
	viper.SetDefault("auth.admin_username", "admin")
	viper.SetDefault("auth.admin_email", "admin@taskmaster.local")
	viper.SetDefault("team.open_management", true)
	viper.SetDefault("mail.port", 587)
	viper.SetDefault("storage.provider", "local")
	viper.SetDefault("storage.local_path", "./data")
	viper.SetDefault("storage.public_base_url", "")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("Warning: Config error: %s", err)
		} else {
			log.Println("Info: config.yaml not found, using Environment Variables only.")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}

	// Missing secrets are a startup failure, never a request-time one.
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("Critical: JWT secret is missing (TASKMASTER_AUTH_JWT_SECRET)")
	}
	if cfg.Database.Host == "" || cfg.Database.Name == "" {
		log.Fatal("Critical: database host/name are missing (TASKMASTER_DATABASE_HOST / TASKMASTER_DATABASE_NAME)")
	}

	return &cfg
}
