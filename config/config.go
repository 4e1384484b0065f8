// config/config.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/dalemusser/contactform/internal/apperr"
	"github.com/dalemusser/contactform/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	// EnvPrefix prefixes every environment variable, e.g. FORM_SUBMISSION_SENDING_EMAIL.
	EnvPrefix = "FORM_SUBMISSION"

	// DefaultProfile is the config file section read when no profile is chosen.
	DefaultProfile = "application"
)

// Mail transports understood by internal/mailer.
const (
	TransportSendmail = "sendmail"
	TransportSMTP     = "smtp"
	TransportSES      = "ses"
)

// HTTPConfig groups listener and timeout settings.
type HTTPConfig struct {
	HTTPPort int    `mapstructure:"http_port"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`

	ReadTimeout       time.Duration `mapstructure:"-"`
	ReadHeaderTimeout time.Duration `mapstructure:"-"`
	WriteTimeout      time.Duration `mapstructure:"-"`
	IdleTimeout       time.Duration `mapstructure:"-"`
	ShutdownTimeout   time.Duration `mapstructure:"-"`
}

// UseTLS reports whether a certificate pair was configured.
func (h HTTPConfig) UseTLS() bool {
	return h.CertFile != "" && h.KeyFile != ""
}

// CORSConfig groups CORS behavior for browser form posts from other origins.
type CORSConfig struct {
	EnableCORS           bool     `mapstructure:"enable_cors"`
	CORSAllowedOrigins   []string `mapstructure:"cors_allowed_origins"`
	CORSAllowedMethods   []string `mapstructure:"cors_allowed_methods"`
	CORSAllowedHeaders   []string `mapstructure:"cors_allowed_headers"`
	CORSAllowCredentials bool     `mapstructure:"cors_allow_credentials"`
	CORSMaxAge           int      `mapstructure:"cors_max_age"`
}

// MailConfig holds the relay addresses and transport settings.
type MailConfig struct {
	SendingEmail     string `mapstructure:"sending_email"`
	DestinationEmail string `mapstructure:"destination_email"`

	Transport    string `mapstructure:"mail_transport"`
	SendmailPath string `mapstructure:"sendmail_path"`

	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUsername string `mapstructure:"smtp_username"`
	SMTPPassword string `mapstructure:"smtp_password"`
	SMTPTLS      string `mapstructure:"smtp_tls"` // mandatory | opportunistic | ssl | none

	SESRegion    string `mapstructure:"ses_region"`
	SESAccessKey string `mapstructure:"ses_access_key"`
	SESSecretKey string `mapstructure:"ses_secret_key"`

	SendTimeout time.Duration `mapstructure:"-"`
}

// Config is the fully resolved, immutable service configuration.
type Config struct {
	Env      string `mapstructure:"env"`       // "dev" | "prod"
	LogLevel string `mapstructure:"log_level"` // debug, info, warn, error …
	Profile  string `mapstructure:"profile"`

	// ConfigFile is the file that was merged, empty when none was found.
	ConfigFile string `mapstructure:"-"`

	HTTP HTTPConfig `mapstructure:",squash"`
	CORS CORSConfig `mapstructure:",squash"`
	Mail MailConfig `mapstructure:",squash"`

	MaxRequestBodyBytes int64 `mapstructure:"max_request_body_bytes"`
	EnableMetrics       bool  `mapstructure:"enable_metrics"`
}

// Dump returns a pretty, redacted JSON string of the config for debugging.
func (c Config) Dump() string {
	s := c.redactedCopy()
	b, _ := json.MarshalIndent(s, "", "  ")
	return string(b)
}

func (c Config) redactedCopy() Config {
	cp := c
	cp.CORS.CORSAllowedOrigins = append([]string(nil), c.CORS.CORSAllowedOrigins...)
	if cp.Mail.SMTPPassword != "" {
		cp.Mail.SMTPPassword = "[REDACTED]"
	}
	if cp.Mail.SESAccessKey != "" {
		cp.Mail.SESAccessKey = "[REDACTED]"
	}
	if cp.Mail.SESSecretKey != "" {
		cp.Mail.SESSecretKey = "[REDACTED]"
	}
	return cp
}

// Load merges defaults → config file profile → .env/env vars → explicit
// flags into one Config. Final precedence (highest wins):
// flags(explicit) > env > config file > defaults.
//
// The config file is chosen by --config or FORM_SUBMISSION_CONFIG, falling
// back to the first of configCandidates found in the working directory. Its
// [default] section is merged first, then the section named by --profile
// (FORM_SUBMISSION_PROFILE, default "application"). A file without either
// section is read as flat keys.
//
// Every error returned is an *apperr.Error of kind Config, except
// pflag.ErrHelp after --help printed usage.
func Load(logger *zap.Logger, args []string) (*Config, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// 0) Optionally load .env (real env still wins over .env)
	if err := godotenv.Load(); err == nil {
		logger.Info("loaded .env file")
	}

	// 1) Flags (only *explicitly set* flags will override)
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, err
		}
		return nil, apperr.Wrap(err, apperr.Config, "invalid command-line flags")
	}

	// 2) Viper + env
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, k := range allKeys() {
		_ = v.BindEnv(k)
	}

	// 3) Defaults (lowest precedence)
	setDefaults(v)

	// 4) Apply *explicit* flags (highest precedence)
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			_ = v.BindPFlag(f.Name, f)
		}
	})

	// 5) Config file profile; path and profile come from flags/env/defaults
	profile := strings.TrimSpace(v.GetString("profile"))
	if profile == "" {
		profile = DefaultProfile
	}
	file, err := mergeConfigFile(logger, v, v.GetString("config"), profile)
	if err != nil {
		return nil, err
	}

	// 6) Normalize list keys (accept JSON strings → []string)
	if err := normalizeListKeys(logger, v,
		"cors_allowed_origins",
		"cors_allowed_methods",
		"cors_allowed_headers",
	); err != nil {
		return nil, apperr.Wrap(err, apperr.Config, "invalid list value")
	}

	// 7) Build struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperr.Wrap(err, apperr.Config, "unable to decode config")
	}
	cfg.Profile = profile
	cfg.ConfigFile = file

	durations := []struct {
		key string
		dst *time.Duration
		def time.Duration
	}{
		{"read_timeout", &cfg.HTTP.ReadTimeout, 15 * time.Second},
		{"read_header_timeout", &cfg.HTTP.ReadHeaderTimeout, 10 * time.Second},
		{"write_timeout", &cfg.HTTP.WriteTimeout, 60 * time.Second},
		{"idle_timeout", &cfg.HTTP.IdleTimeout, 120 * time.Second},
		{"shutdown_timeout", &cfg.HTTP.ShutdownTimeout, 15 * time.Second},
		{"send_timeout", &cfg.Mail.SendTimeout, 30 * time.Second},
	}
	for _, d := range durations {
		dur, err := parseDurationFlexible(v.Get(d.key), d.def)
		if err != nil {
			logger.Warn("invalid duration; using default",
				zap.String("key", d.key),
				zap.Any("value", v.Get(d.key)),
				zap.Duration("default", d.def),
				zap.Error(err))
		}
		*d.dst = dur
	}

	normalize(&cfg)

	// 8) Validate
	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("contactform", pflag.ContinueOnError)

	fs.String("config", "", "Config file path (toml|yaml|yml|json)")
	fs.String("profile", DefaultProfile, "Config file section to read")
	fs.String("env", "dev", `Runtime environment "dev"|"prod"`)
	fs.String("log_level", "info", "Log level")

	fs.Int("http_port", 8080, "HTTP port")
	fs.String("cert_file", "", "TLS cert file (serve HTTPS when set with key_file)")
	fs.String("key_file", "", "TLS key file")
	fs.String("read_timeout", "15s", "HTTP read timeout")
	fs.String("read_header_timeout", "10s", "HTTP read-header timeout")
	fs.String("write_timeout", "60s", "HTTP write timeout")
	fs.String("idle_timeout", "120s", "HTTP idle timeout")
	fs.String("shutdown_timeout", "15s", "Graceful shutdown window")
	fs.Int64("max_request_body_bytes", 64<<10, "Max request body size in bytes (0 = unlimited)")
	fs.Bool("enable_metrics", false, "Expose Prometheus metrics at /metrics")

	fs.Bool("enable_cors", false, "Enable CORS")
	fs.String("cors_allowed_origins", "", `JSON array of origins, e.g. '["https://a.example"]'`)
	fs.String("cors_allowed_methods", "", `JSON array of methods, e.g. '["GET","POST"]'`)
	fs.String("cors_allowed_headers", "", `JSON array of headers, e.g. '["Content-Type"]'`)
	fs.Bool("cors_allow_credentials", false, "CORS: allow credentials")
	fs.Int("cors_max_age", 0, "CORS: max age seconds (0 disables cache)")

	fs.String("sending_email", "", "Address notifications are sent from")
	fs.String("destination_email", "", "Address notifications are delivered to")
	fs.String("mail_transport", TransportSendmail, "Mail transport: sendmail, smtp or ses")
	fs.String("sendmail_path", "/usr/sbin/sendmail", "Path to the sendmail binary")
	fs.String("smtp_host", "", "SMTP server host")
	fs.Int("smtp_port", 587, "SMTP server port")
	fs.String("smtp_username", "", "SMTP username (PLAIN auth when set)")
	fs.String("smtp_password", "", "SMTP password")
	fs.String("smtp_tls", "mandatory", "SMTP TLS: mandatory, opportunistic, ssl or none")
	fs.String("ses_region", "", "AWS region for SES")
	fs.String("ses_access_key", "", "AWS access key for SES (default credential chain when empty)")
	fs.String("ses_secret_key", "", "AWS secret key for SES")
	fs.String("send_timeout", "30s", "Upper bound for one mail hand-off")

	return fs
}

func allKeys() []string {
	return []string{
		"config", "profile", "env", "log_level",
		"http_port", "cert_file", "key_file",
		"read_timeout", "read_header_timeout", "write_timeout", "idle_timeout", "shutdown_timeout",
		"max_request_body_bytes", "enable_metrics",
		"enable_cors", "cors_allowed_origins", "cors_allowed_methods", "cors_allowed_headers",
		"cors_allow_credentials", "cors_max_age",
		"sending_email", "destination_email",
		"mail_transport", "sendmail_path",
		"smtp_host", "smtp_port", "smtp_username", "smtp_password", "smtp_tls",
		"ses_region", "ses_access_key", "ses_secret_key",
		"send_timeout",
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("config", "")
	v.SetDefault("profile", DefaultProfile)
	v.SetDefault("env", "dev")
	v.SetDefault("log_level", "info")

	v.SetDefault("http_port", 8080)
	v.SetDefault("cert_file", "")
	v.SetDefault("key_file", "")
	v.SetDefault("read_timeout", "15s")
	v.SetDefault("read_header_timeout", "10s")
	v.SetDefault("write_timeout", "60s")
	v.SetDefault("idle_timeout", "120s")
	v.SetDefault("shutdown_timeout", "15s")
	v.SetDefault("max_request_body_bytes", int64(64<<10))
	v.SetDefault("enable_metrics", false)

	v.SetDefault("enable_cors", false)
	v.SetDefault("cors_allowed_origins", []string{})
	v.SetDefault("cors_allowed_methods", []string{})
	v.SetDefault("cors_allowed_headers", []string{})
	v.SetDefault("cors_allow_credentials", false)
	v.SetDefault("cors_max_age", 0)

	v.SetDefault("sending_email", "")
	v.SetDefault("destination_email", "")
	v.SetDefault("mail_transport", TransportSendmail)
	v.SetDefault("sendmail_path", "/usr/sbin/sendmail")
	v.SetDefault("smtp_host", "")
	v.SetDefault("smtp_port", 587)
	v.SetDefault("smtp_username", "")
	v.SetDefault("smtp_password", "")
	v.SetDefault("smtp_tls", "mandatory")
	v.SetDefault("ses_region", "")
	v.SetDefault("ses_access_key", "")
	v.SetDefault("ses_secret_key", "")
	v.SetDefault("send_timeout", "30s")
}

// configCandidates are tried in order when no config path is given.
var configCandidates = []string{
	"Contact.toml",
	"contact.toml",
	"contact.yaml",
	"contact.yml",
	"contact.json",
}

// mergeConfigFile merges the [default] and profile sections of the config
// file into v and returns the path that was read. An explicitly named file
// must exist; a missing candidate is not an error.
func mergeConfigFile(logger *zap.Logger, v *viper.Viper, path, profile string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		for _, c := range configCandidates {
			if _, err := os.Stat(c); err == nil {
				path = c
				break
			}
		}
		if path == "" {
			logger.Debug("no config file found; using env and flags only")
			return "", nil
		}
	}

	fv := viper.New()
	fv.SetConfigFile(path)
	if err := fv.ReadInConfig(); err != nil {
		return "", apperr.Wrap(err, apperr.Config, fmt.Sprintf("cannot read config file %q", path))
	}

	merged := false
	for _, section := range []string{"default", profile} {
		sub := fv.Sub(section)
		if sub == nil {
			continue
		}
		if err := v.MergeConfigMap(sub.AllSettings()); err != nil {
			return "", apperr.Wrap(err, apperr.Config, fmt.Sprintf("cannot merge [%s] from %q", section, path))
		}
		merged = true
	}
	if !merged {
		if err := v.MergeConfigMap(fv.AllSettings()); err != nil {
			return "", apperr.Wrap(err, apperr.Config, fmt.Sprintf("cannot merge %q", path))
		}
	}

	logger.Info("loaded config file", zap.String("file", path), zap.String("profile", profile))
	return path, nil
}

// normalizeListKeys coerces JSON-string values into []string for the given keys.
func normalizeListKeys(logger *zap.Logger, v *viper.Viper, keys ...string) error {
	for _, key := range keys {
		switch t := v.Get(key).(type) {
		case string:
			s := strings.TrimSpace(t)
			if s == "" {
				v.Set(key, []string{})
				continue
			}
			var arr []string
			if err := json.Unmarshal([]byte(s), &arr); err != nil {
				return fmt.Errorf("config key %q expects a JSON array string, got %q: %w", key, s, err)
			}
			v.Set(key, arr)
		case []interface{}:
			arr := make([]string, 0, len(t))
			for _, e := range t {
				arr = append(arr, fmt.Sprint(e))
			}
			v.Set(key, arr)
		case []string, nil:
			// already correct or unset
		default:
			logger.Warn("unexpected type for list key; expected JSON array/string",
				zap.String("key", key), zap.Any("value", t))
		}
	}
	return nil
}

func normalize(cfg *Config) {
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.HTTP.CertFile = strings.TrimSpace(cfg.HTTP.CertFile)
	cfg.HTTP.KeyFile = strings.TrimSpace(cfg.HTTP.KeyFile)

	m := &cfg.Mail
	m.SendingEmail = strings.TrimSpace(m.SendingEmail)
	m.DestinationEmail = strings.TrimSpace(m.DestinationEmail)
	m.Transport = strings.ToLower(strings.TrimSpace(m.Transport))
	m.SendmailPath = strings.TrimSpace(m.SendmailPath)
	m.SMTPHost = strings.TrimSpace(m.SMTPHost)
	m.SMTPTLS = strings.ToLower(strings.TrimSpace(m.SMTPTLS))
	m.SESRegion = strings.TrimSpace(m.SESRegion)
}

func validate(cfg Config) error {
	var missing []string
	var invalid []string

	if cfg.Env != "dev" && cfg.Env != "prod" {
		invalid = append(invalid, `env must be "dev" or "prod"`)
	}
	if !logging.ValidLevel(cfg.LogLevel) {
		invalid = append(invalid, "log_level must be one of "+strings.Join(logging.Levels, ", "))
	}

	// Relay addresses
	m := cfg.Mail
	if m.SendingEmail == "" {
		missing = append(missing, EnvPrefix+"_SENDING_EMAIL (or sending_email)")
	} else if _, err := mail.ParseAddress(m.SendingEmail); err != nil {
		invalid = append(invalid, "sending_email is not a valid mailbox: "+err.Error())
	}
	if m.DestinationEmail == "" {
		missing = append(missing, EnvPrefix+"_DESTINATION_EMAIL (or destination_email)")
	} else if _, err := mail.ParseAddress(m.DestinationEmail); err != nil {
		invalid = append(invalid, "destination_email is not a valid mailbox: "+err.Error())
	}

	// Transport
	switch m.Transport {
	case TransportSendmail:
		if m.SendmailPath == "" {
			missing = append(missing, "sendmail_path for mail_transport=sendmail")
		}
	case TransportSMTP:
		if m.SMTPHost == "" {
			missing = append(missing, "smtp_host for mail_transport=smtp")
		}
		if m.SMTPPort <= 0 || m.SMTPPort > 65535 {
			invalid = append(invalid, "smtp_port must be in 1..65535")
		}
		switch m.SMTPTLS {
		case "mandatory", "opportunistic", "ssl", "none":
		default:
			invalid = append(invalid, `smtp_tls must be "mandatory", "opportunistic", "ssl" or "none"`)
		}
		if (m.SMTPUsername == "") != (m.SMTPPassword == "") {
			invalid = append(invalid, "smtp_username and smtp_password must be set together")
		}
	case TransportSES:
		if m.SESRegion == "" {
			missing = append(missing, "ses_region for mail_transport=ses")
		}
		if (m.SESAccessKey == "") != (m.SESSecretKey == "") {
			invalid = append(invalid, "ses_access_key and ses_secret_key must be set together")
		}
	default:
		invalid = append(invalid, `mail_transport must be "sendmail", "smtp" or "ses"`)
	}

	// HTTP
	if cfg.HTTP.HTTPPort <= 0 || cfg.HTTP.HTTPPort > 65535 {
		invalid = append(invalid, "http_port must be in 1..65535")
	}
	if (cfg.HTTP.CertFile == "") != (cfg.HTTP.KeyFile == "") {
		invalid = append(invalid, "cert_file and key_file must be set together")
	}
	if cfg.MaxRequestBodyBytes < 0 {
		invalid = append(invalid, "max_request_body_bytes must be >= 0")
	}

	// CORS sanity
	if cfg.CORS.EnableCORS {
		if len(cfg.CORS.CORSAllowedOrigins) == 0 {
			missing = append(missing, "cors_allowed_origins (JSON array) when enable_cors=true")
		}
		for _, o := range cfg.CORS.CORSAllowedOrigins {
			if o == "*" && cfg.CORS.CORSAllowCredentials {
				invalid = append(invalid, `cannot use "*" in cors_allowed_origins when cors_allow_credentials=true`)
				break
			}
		}
		if cfg.CORS.CORSMaxAge < 0 {
			invalid = append(invalid, "cors_max_age must be >= 0")
		}
	}

	if len(missing) == 0 && len(invalid) == 0 {
		return nil
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "invalid: "+strings.Join(invalid, ", "))
	}
	return apperr.New(apperr.Config, "configuration errors: "+strings.Join(parts, " | "))
}
