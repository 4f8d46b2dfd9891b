package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// SMTPConfig lists the outgoing mail servers and the sender identity.
// Messages are spread round-robin over Servers.
type SMTPConfig struct {
	Servers  []SMTPServer `yaml:"servers"`
	From     string       `yaml:"from"`
	FromName string       `yaml:"fromName"`
}

// SMTPServer describes one SMTP relay.
type SMTPServer struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	Connections        int    `yaml:"connections"`
	InsecureSkipVerify bool   `yaml:"insecureSkipVerify"`
	Auth               struct {
		User     string `yaml:"user"`
		Password string `yaml:"password"`
	} `yaml:"auth"`
	// SendTimeout is in seconds.
	SendTimeout int `yaml:"sendTimeout"`
}

// Address returns host:port.
func (s SMTPServer) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Timeout returns the send timeout as a duration (default 10s).
func (s SMTPServer) Timeout() time.Duration {
	if s.SendTimeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.SendTimeout) * time.Second
}

// loadSMTP builds the SMTP configuration from SMTP_SERVERS_FILE when set,
// otherwise from the single-server SMTP_* variables.
func loadSMTP() (SMTPConfig, error) {
	cfg := SMTPConfig{
		From:     getEnv("SMTP_FROM", ""),
		FromName: getEnv("SMTP_FROM_NAME", "Certificate System"),
	}

	if file := getEnv("SMTP_SERVERS_FILE", ""); file != "" {
		fromFile, err := ReadSMTPServersFile(file)
		if err != nil {
			return SMTPConfig{}, err
		}
		cfg.Servers = fromFile.Servers
		if fromFile.From != "" {
			cfg.From = fromFile.From
		}
		if fromFile.FromName != "" {
			cfg.FromName = fromFile.FromName
		}
		return cfg, nil
	}

	host := getEnv("SMTP_HOST", "")
	if host == "" {
		return cfg, nil
	}
	server := SMTPServer{
		Host:               host,
		Port:               getEnvInt("SMTP_PORT", 587),
		Connections:        getEnvInt("SMTP_POOL_SIZE", 2),
		InsecureSkipVerify: getEnvBool("SMTP_INSECURE_SKIP_VERIFY", false),
		SendTimeout:        int(getEnvDuration("SMTP_SEND_TIMEOUT", 10*time.Second) / time.Second),
	}
	server.Auth.User = getEnv("SMTP_USER", "")
	server.Auth.Password = getEnv("SMTP_PASSWORD", "")
	cfg.Servers = []SMTPServer{server}
	return cfg, nil
}

// ReadSMTPServersFile parses a YAML server list. Unknown keys are rejected.
func ReadSMTPServersFile(fname string) (SMTPConfig, error) {
	var cfg SMTPConfig
	raw, err := os.ReadFile(fname)
	if err != nil {
		return cfg, fmt.Errorf("read smtp servers file %s: %w", fname, err)
	}
	if err := yaml.UnmarshalStrict(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse smtp servers file %s: %w", fname, err)
	}
	if len(cfg.Servers) == 0 {
		return cfg, fmt.Errorf("smtp servers file %s defines no servers", fname)
	}
	for i, s := range cfg.Servers {
		if s.Host == "" || s.Port == 0 {
			return cfg, fmt.Errorf("smtp server %d in %s needs host and port", i, fname)
		}
	}
	return cfg, nil
}
