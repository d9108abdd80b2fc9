package config

import (
	"strings"
	"time"
)

// MediaConfig configures the Cloudinary media host.
type MediaConfig struct {
	// CloudinaryURL is cloudinary://<key>:<secret>@<cloud>. Uploads are
	// rejected when empty.
	CloudinaryURL string `env:"CLOUDINARY_URL"`
	RootFolder    string `env:"CLOUDINARY_FOLDER" envDefault:"lab-portal"`
}

// Sanitize trims media configuration values.
func (m *MediaConfig) Sanitize() {
	m.CloudinaryURL = strings.TrimSpace(m.CloudinaryURL)
	m.RootFolder = strings.Trim(strings.TrimSpace(m.RootFolder), "/")
}

// Enabled reports whether uploads can be served.
func (m *MediaConfig) Enabled() bool { return m.CloudinaryURL != "" }

// MailConfig configures SMTP delivery of staff notifications.
type MailConfig struct {
	Host     string        `env:"SMTP_HOST"`
	Port     int           `env:"SMTP_PORT"      envDefault:"587"`
	Username string        `env:"SMTP_USERNAME"`
	Password string        `env:"SMTP_PASSWORD"`
	From     string        `env:"SMTP_FROM"`
	FromName string        `env:"SMTP_FROM_NAME" envDefault:"Lab Portal"`
	To       []string      `env:"SMTP_TO"        envSeparator:","`
	Timeout  time.Duration `env:"SMTP_TIMEOUT"   envDefault:"10s"`
}

// Sanitize trims recipients and drops empty entries.
func (m *MailConfig) Sanitize() {
	m.Host = strings.TrimSpace(m.Host)
	m.From = strings.TrimSpace(m.From)
	to := m.To[:0]
	for _, addr := range m.To {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	m.To = to
	if m.Timeout <= 0 {
		m.Timeout = 10 * time.Second
	}
}

// Enabled reports whether SMTP notifications are configured.
func (m *MailConfig) Enabled() bool {
	return m.Host != "" && m.From != "" && len(m.To) > 0
}
