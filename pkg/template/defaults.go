package template

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults holds the per-channel fallback message templates used when a
// notification node carries no template of its own.
type Defaults struct {
	EmailSubject string `yaml:"email_subject"`
	EmailBody    string `yaml:"email_body"`
	SMS          string `yaml:"sms"`
	WhatsApp     string `yaml:"whatsapp"`
}

// BuiltinDefaults returns the compiled-in fallback templates.
func BuiltinDefaults() Defaults {
	return Defaults{
		EmailSubject: "Update on complaint {{complaintId}}",
		EmailBody: "Dear {{complainantName}},\n\n" +
			"Your complaint {{complaintId}} ({{problemType}}) is now in status: {{status}}.\n" +
			"Priority: {{priority}}\nLocation: {{location}}\n\n" +
			"Municipal Complaint Services",
		SMS:      "Complaint {{complaintId}}: status {{status}}. Municipal Complaint Services.",
		WhatsApp: "Complaint {{complaintId}} ({{problemType}}) is now {{status}}. Priority: {{priority}}.",
	}
}

// LoadDefaults reads template overrides from a YAML file. Fields left empty
// in the file keep their built-in values.
func LoadDefaults(path string) (Defaults, error) {
	defaults := BuiltinDefaults()

	raw, err := os.ReadFile(path)
	if err != nil {
		return defaults, fmt.Errorf("failed to read template defaults %s: %w", path, err)
	}

	var loaded Defaults

	err = yaml.Unmarshal(raw, &loaded)
	if err != nil {
		return defaults, fmt.Errorf("failed to parse template defaults %s: %w", path, err)
	}

	if loaded.EmailSubject != "" {
		defaults.EmailSubject = loaded.EmailSubject
	}

	if loaded.EmailBody != "" {
		defaults.EmailBody = loaded.EmailBody
	}

	if loaded.SMS != "" {
		defaults.SMS = loaded.SMS
	}

	if loaded.WhatsApp != "" {
		defaults.WhatsApp = loaded.WhatsApp
	}

	return defaults, nil
}
