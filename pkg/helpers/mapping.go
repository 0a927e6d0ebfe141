package helpers

import (
	"fmt"
	"strings"

	"github.com/agrihelp/agrihelp-api/pkg/mailer"
	mailtpl "github.com/agrihelp/agrihelp-api/pkg/mailer/templates"
)

// SubjectFor returns the default subject of a templated email.
func SubjectFor(template string, data map[string]any) string {
	switch strings.ToLower(template) {
	case mailtpl.Welcome:
		app := fmt.Sprintf("%v", data["AppName"])
		if app == "" || app == "<nil>" {
			app = "AgriHelp"
		}
		return "Welcome to " + app
	case mailtpl.BlogPublished:
		return "Your post is live"
	default:
		return "Notification"
	}
}

// EnsureRecipient fills the Email/Name defaults templates rely on.
func EnsureRecipient(job *mailer.EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["Email"] = job.To
	}
	if v, ok := job.Data["Name"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["Name"] = strings.SplitN(job.To, "@", 2)[0]
	}
}
