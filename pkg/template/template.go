// Package template provides placeholder substitution for notification
// message templates.
package template

import (
	"fmt"
	"strings"
	"time"

	"github.com/civicops/complaintflow/pkg/models"
)

// PhoneFallback is substituted for an absent complainant phone number.
const PhoneFallback = "Not provided"

// Substitute replaces every {{name}} token in tmpl with the corresponding
// entry from data. Tokens with no matching key are left untouched, so a
// malformed template degrades visibly instead of failing the notification.
// Flat key substitution only: no nested expressions, no loops.
func Substitute(tmpl string, data map[string]any) string {
	var out strings.Builder

	rest := tmpl

	for {
		start := strings.Index(rest, "{{")
		if start < 0 {
			out.WriteString(rest)

			break
		}

		end := strings.Index(rest[start:], "}}")
		if end < 0 {
			out.WriteString(rest)

			break
		}

		end += start

		out.WriteString(rest[:start])

		key := strings.TrimSpace(rest[start+2 : end])
		if value, ok := data[key]; ok {
			out.WriteString(formatValue(value))
		} else {
			out.WriteString(rest[start : end+2])
		}

		rest = rest[end+2:]
	}

	return out.String()
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ComplaintData builds the substitution map for a run: complaint fields,
// execution identifiers, and any run variables. Variables never shadow the
// complaint fields.
func ComplaintData(ec *models.ExecutionContext) map[string]any {
	data := make(map[string]any)

	for k, v := range ec.Variables {
		data[k] = v
	}

	data["executionId"] = ec.ID
	data["complaintId"] = ec.ComplaintID

	c := ec.Complaint
	if c == nil {
		return data
	}

	data["complaintId"] = c.ID
	data["status"] = string(c.Status)
	data["priority"] = c.Priority
	data["problemType"] = c.ProblemType
	data["description"] = c.Description
	data["location"] = c.Location
	data["complainantName"] = c.ComplainantName
	data["complainantEmail"] = c.ComplainantEmail
	data["reportedAt"] = c.ReportedAt

	if c.ComplainantPhone != "" {
		data["complainantPhone"] = c.ComplainantPhone
	} else {
		data["complainantPhone"] = PhoneFallback
	}

	if c.DueAt != nil {
		data["dueAt"] = *c.DueAt
	}

	return data
}
