package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/mikey/form-spam-filter/internal/core"
)

// message is a rendered owner notification
type message struct {
	Subject string
	Body    string
}

func render(subjectPrefix string, form *core.Form, sub *core.Submission) message {
	subject := "New submission: " + form.Name
	if subjectPrefix != "" {
		subject = subjectPrefix + " " + subject
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Form: %s (%s)\n", form.Name, form.ID)
	fmt.Fprintf(&b, "Submission: %s\n", sub.ID)
	fmt.Fprintf(&b, "Received: %s\n", sub.CreatedAt.UTC().Format(time.RFC1123Z))
	if sub.RemoteAddr != "" {
		fmt.Fprintf(&b, "Remote address: %s\n", sub.RemoteAddr)
	}
	b.WriteString("\n")

	fields := core.Flatten(sub.Data)
	for _, k := range core.SortedKeys(fields) {
		fmt.Fprintf(&b, "%s: %s\n", k, fields[k])
	}

	return message{Subject: subject, Body: b.String()}
}
