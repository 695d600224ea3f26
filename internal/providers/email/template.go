package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// render executes templateName and derives the subject line.
func render(templateName string, data map[string]any) (string, string, error) {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, templateName+".html", data); err != nil {
		return "", "", fmt.Errorf("render %s: %w", templateName, err)
	}
	return subjectFor(templateName, data), body.String(), nil
}

func subjectFor(templateName string, data map[string]any) string {
	if subject, ok := data["subject"].(string); ok && subject != "" {
		return subject
	}
	switch templateName {
	case TemplateTeamInvitation:
		if teamName, ok := data["team_name"].(string); ok && teamName != "" {
			return fmt.Sprintf("You're invited to join %s on TalentLink", teamName)
		}
		return "You're invited to join a team on TalentLink"
	default:
		return "Notification from TalentLink"
	}
}
