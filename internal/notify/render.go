package notify

import (
	"bytes"
	"fmt"
	"text/template"
)

// Render executes the subject and body templates against data.
func Render(kind Kind, to []string, subjectTmpl, bodyTmpl string, data map[string]interface{}) (*Message, error) {
	subject, err := execute(string(kind)+":subject", subjectTmpl, data)
	if err != nil {
		return nil, err
	}
	body, err := execute(string(kind)+":body", bodyTmpl, data)
	if err != nil {
		return nil, err
	}
	return &Message{To: to, Kind: kind, Subject: subject, Body: body}, nil
}

// CheckTemplate reports whether the subject and body templates parse.
func CheckTemplate(subjectTmpl, bodyTmpl string) error {
	for _, text := range []string{subjectTmpl, bodyTmpl} {
		if _, err := template.New("check").Parse(text); err != nil {
			return fmt.Errorf("invalid template: %w", err)
		}
	}
	return nil
}

func execute(name, text string, data map[string]interface{}) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return buf.String(), nil
}
