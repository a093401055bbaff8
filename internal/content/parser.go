package content

import (
	"errors"
	"strings"
)

// EmailContent is one finished email.
type EmailContent struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Source  string `json:"source"` // anthropic, openai, bedrock, template
}

var (
	ErrMissingSubject = errors.New("reply has no SUBJECT line")
	ErrMissingBody    = errors.New("reply has no BODY line")
)

// ParseReply extracts subject and body from an LLM reply. The model is
// asked for "SUBJECT:" and "BODY:" lines but replies sometimes arrive
// wrapped in markdown fences, so those are stripped first.
func ParseReply(reply string) (EmailContent, error) {
	reply = stripCodeFence(reply)

	var ec EmailContent
	var bodyLines []string
	inBody := false

	for _, line := range strings.Split(reply, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "SUBJECT:"):
			ec.Subject = strings.TrimSpace(strings.TrimPrefix(trimmed, "SUBJECT:"))
			inBody = false
		case strings.HasPrefix(trimmed, "BODY:"):
			bodyLines = append(bodyLines, strings.TrimSpace(strings.TrimPrefix(trimmed, "BODY:")))
			inBody = true
		case inBody && trimmed != "":
			// Bodies occasionally span multiple lines.
			bodyLines = append(bodyLines, trimmed)
		}
	}

	ec.Body = strings.TrimSpace(strings.Join(bodyLines, "\n"))

	if ec.Subject == "" {
		return EmailContent{}, ErrMissingSubject
	}
	if ec.Body == "" {
		return EmailContent{}, ErrMissingBody
	}
	return ec, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}
