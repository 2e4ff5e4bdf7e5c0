package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Mail providers
const (
	MailProviderConsole  = "console"
	MailProviderSMTP     = "smtp"
	MailProviderSendgrid = "sendgrid"
)

// Database engines
const (
	EngineSQLite   = "sqlite"
	EnginePostgres = "postgres"
)

type (
	ServerConfig struct {
		Host            string
		Address         string
		ShutdownTimeout time.Duration
		DisableReqLogs  bool
	}

	DatabaseConfig struct {
		Engine       string
		DSN          string
		MaxOpenConns int
	}

	UploadsConfig struct {
		Dir      string
		MaxBytes string // echo BodyLimit format, e.g. "16M"
	}

	MailConfig struct {
		Provider       string
		SMTPHost       string
		SMTPPort       int
		SenderEmail    string
		SenderPassword string
		SendgridApiKey string
	}

	StorageConfig struct {
		S3Bucket    string
		S3Region    string
		S3Endpoint  string
		S3AccessKey string
		S3SecretKey string
	}

	ITAdminConfig struct {
		Username string
		Password string
	}

	Config struct {
		Env          string
		Build        string
		Debug        bool
		TestMode     bool
		AppName      string
		BaseURL      string
		SecretKey    string
		RollbarToken string

		Server   ServerConfig
		Database DatabaseConfig
		Uploads  UploadsConfig
		Mail     MailConfig
		Storage  StorageConfig
		ITAdmin  ITAdminConfig

		defaultFromEmail string
	}
)

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("build", "dev")
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "CoachDesk")
	conf.SetDefault("baseURL", "http://localhost:5000")
	conf.SetDefault("secretKey", "k3v9-q!ao2w)zr7^n$c=8uxe4(t!h#b*m2(#py6s^$dwn1fj")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("server.host", "localhost")
	conf.SetDefault("server.address", ":5000")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("server.disableReqLogs", false)
	conf.SetDefault("database.engine", EngineSQLite)
	conf.SetDefault("database.dsn", "file:coach_saas.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	conf.SetDefault("database.maxOpenConns", 0)
	conf.SetDefault("uploads.dir", "uploads")
	conf.SetDefault("uploads.maxBytes", "16M")
	conf.SetDefault("mail.provider", "")
	conf.SetDefault("mail.smtpHost", "smtp.gmail.com")
	conf.SetDefault("mail.smtpPort", 587)
	conf.SetDefault("mail.senderEmail", "")
	conf.SetDefault("mail.senderPassword", "")
	conf.SetDefault("mail.sendgridApiKey", "")
	conf.SetDefault("storage.s3Bucket", "")
	conf.SetDefault("storage.s3Region", "us-east-1")
	conf.SetDefault("storage.s3Endpoint", "")
	conf.SetDefault("storage.s3AccessKey", "")
	conf.SetDefault("storage.s3SecretKey", "")
	conf.SetDefault("itAdmin.username", "itadmin")
	conf.SetDefault("itAdmin.password", "itadmin123")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, PROD
	if env == "" {
		env = "DEV"
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	if wd, err := os.Getwd(); err == nil {
		dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
			}
		} else if !os.IsNotExist(err) {
			log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
		}
	}
	conf.AutomaticEnv()

	// plain mail credentials are honoured without the env prefix
	_ = conf.BindEnv("mail.senderEmail", env+"_MAIL_SENDEREMAIL", "SENDER_EMAIL")
	_ = conf.BindEnv("mail.senderPassword", env+"_MAIL_SENDERPASSWORD", "SENDER_PASSWORD")

	c := &Config{
		Env:          env,
		Build:        conf.GetString("build"),
		Debug:        conf.GetBool("debug"),
		TestMode:     env == "TEST",
		AppName:      conf.GetString("appName"),
		BaseURL:      strings.TrimSuffix(conf.GetString("baseURL"), "/"),
		SecretKey:    conf.GetString("secretKey"),
		RollbarToken: conf.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:            conf.GetString("server.host"),
			Address:         conf.GetString("server.address"),
			ShutdownTimeout: conf.GetDuration("server.shutdownTimeout"),
			DisableReqLogs:  conf.GetBool("server.disableReqLogs"),
		},
		Database: DatabaseConfig{
			Engine:       conf.GetString("database.engine"),
			DSN:          conf.GetString("database.dsn"),
			MaxOpenConns: conf.GetInt("database.maxOpenConns"),
		},
		Uploads: UploadsConfig{
			Dir:      conf.GetString("uploads.dir"),
			MaxBytes: conf.GetString("uploads.maxBytes"),
		},
		Mail: MailConfig{
			Provider:       conf.GetString("mail.provider"),
			SMTPHost:       conf.GetString("mail.smtpHost"),
			SMTPPort:       conf.GetInt("mail.smtpPort"),
			SenderEmail:    conf.GetString("mail.senderEmail"),
			SenderPassword: conf.GetString("mail.senderPassword"),
			SendgridApiKey: conf.GetString("mail.sendgridApiKey"),
		},
		Storage: StorageConfig{
			S3Bucket:    conf.GetString("storage.s3Bucket"),
			S3Region:    conf.GetString("storage.s3Region"),
			S3Endpoint:  conf.GetString("storage.s3Endpoint"),
			S3AccessKey: conf.GetString("storage.s3AccessKey"),
			S3SecretKey: conf.GetString("storage.s3SecretKey"),
		},
		ITAdmin: ITAdminConfig{
			Username: conf.GetString("itAdmin.username"),
			Password: conf.GetString("itAdmin.password"),
		},
		defaultFromEmail: conf.GetString("defaultFromEmail"),
	}
	c.Mail.Provider = c.mailProvider()
	return c
}

// mailProvider falls back to the console sink whenever credentials for the requested provider are missing.
func (c *Config) mailProvider() string {
	provider := strings.ToLower(c.Mail.Provider)
	hasSendgrid := c.Mail.SendgridApiKey != ""
	hasSMTP := c.Mail.SenderEmail != "" && c.Mail.SenderPassword != ""

	switch provider {
	case MailProviderSendgrid:
		if hasSendgrid {
			return provider
		}
	case MailProviderSMTP:
		if hasSMTP {
			return provider
		}
	case "":
		if hasSendgrid {
			return MailProviderSendgrid
		}
		if hasSMTP {
			return MailProviderSMTP
		}
	}
	return MailProviderConsole
}

func (c *Config) DefaultFromEmail() mail.Address {
	if c.Mail.SenderEmail != "" {
		return mail.Address{Name: c.AppName, Address: c.Mail.SenderEmail}
	}
	return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
}

// UseS3 reports whether uploaded assets go to an S3-compatible bucket instead of the local uploads dir.
func (c *Config) UseS3() bool {
	return c.Storage.S3Bucket != ""
}
