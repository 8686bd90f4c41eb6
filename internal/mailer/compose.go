package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/stemsi/quizwizz-backend/internal/model"
)

var htmlLayout = template.Must(template.New("mail").Parse(`<!doctype html>
<html><body style="font-family:sans-serif">
<p>Hi {{if .Name}}{{.Name}}{{else}}there{{end}},</p>
<p>{{.Body}}</p>
{{if .Link}}<p><a href="{{.Link}}">{{.LinkText}}</a></p>{{end}}
<p>The Quizwizz team</p>
</body></html>`))

type htmlData struct {
	Name     string
	Body     string
	Link     string
	LinkText string
}

// Compose renders a notification into an email. baseURL is the public frontend address.
func Compose(n model.Notification, baseURL string) (Message, error) {
	quizLink := fmt.Sprintf("%s/quizzes/%s", baseURL, n.QuizID)

	var (
		subject, body, linkText string
		link                    = quizLink
	)
	switch n.Kind {
	case model.NotificationSubmissionReceived:
		subject = "[Quizwizz] Submission received"
		body = fmt.Sprintf("We received your submission for %q. Your score will be visible once your teacher releases the grades.", n.QuizTitle)
		if n.AttemptID != nil {
			link = fmt.Sprintf("%s/attempts/%s", baseURL, n.AttemptID)
		}
		linkText = "View your attempt"
	case model.NotificationGradesReleased:
		subject = fmt.Sprintf("[Quizwizz] Grades released: %s", n.QuizTitle)
		body = fmt.Sprintf("Grades for %q have been released. You can now see your score and the correct answers.", n.QuizTitle)
		linkText = "See your results"
	case model.NotificationQuizInvitation:
		subject = "[Quizwizz] Quiz invitation"
		teacher := n.Payload["teacher"]
		if teacher == "" {
			teacher = "A teacher"
		}
		body = fmt.Sprintf("%s invited you to take the quiz %q.", teacher, n.QuizTitle)
		if l := n.Payload["link"]; l != "" {
			link = l
		}
		linkText = "Open the quiz"
	default:
		return Message{}, fmt.Errorf("unknown notification kind %q", n.Kind)
	}

	var html bytes.Buffer
	if err := htmlLayout.Execute(&html, htmlData{Name: n.Name, Body: body, Link: link, LinkText: linkText}); err != nil {
		return Message{}, fmt.Errorf("render mail: %w", err)
	}

	greeting := n.Name
	if greeting == "" {
		greeting = "there"
	}
	text := fmt.Sprintf("Hi %s,\n\n%s\n\n%s: %s\n\nThe Quizwizz team\n", greeting, body, linkText, link)

	return Message{
		To:      n.Recipient,
		ToName:  n.Name,
		Subject: subject,
		Text:    text,
		HTML:    html.String(),
	}, nil
}
