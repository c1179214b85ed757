package config

import "os"

// CredentialSource represents where a credential comes from.
type CredentialSource string

const (
	SourceEnv    CredentialSource = "env"
	SourceConfig CredentialSource = "config"
	SourceNone   CredentialSource = "none"
)

// CredentialStatus represents the status of one delivery setting.
type CredentialStatus struct {
	Name   string           `json:"name"`
	Source CredentialSource `json:"source"`
	IsSet  bool             `json:"is_set"`
	Masked string           `json:"masked,omitempty"` // e.g., "sec...ret"
}

// CheckCredentials returns the status of every SMTP setting needed for
// delivery. Only the password is masked.
func CheckCredentials(cfg *Config) []CredentialStatus {
	return []CredentialStatus{
		checkValue("SMTP host", cfg.SMTP.Host, false, "MARKETREPORT_SMTP_HOST", "SMTP_HOST"),
		checkValue("SMTP user", cfg.SMTP.User, false, "MARKETREPORT_SMTP_USER", "SMTP_USER"),
		checkValue("SMTP password", cfg.SMTP.Pass, true, "MARKETREPORT_SMTP_PASS", "SMTP_PASS"),
	}
}

// DeliveryEnabled reports whether every SMTP credential is present.
func DeliveryEnabled(cfg *Config) bool {
	for _, s := range CheckCredentials(cfg) {
		if !s.IsSet {
			return false
		}
	}
	return true
}

// checkValue checks if a value is set and where it came from.
func checkValue(name, value string, secret bool, envVars ...string) CredentialStatus {
	status := CredentialStatus{
		Name:  name,
		IsSet: value != "",
	}
	if value == "" {
		status.Source = SourceNone
		return status
	}

	status.Source = SourceConfig
	for _, env := range envVars {
		if os.Getenv(env) != "" {
			status.Source = SourceEnv
			break
		}
	}
	if secret {
		status.Masked = maskKey(value)
	} else {
		status.Masked = value
	}
	return status
}

// maskKey masks a secret for display, showing only first 3 and last 3 chars.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}
