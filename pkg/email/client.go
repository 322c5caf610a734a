package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"time"
)

// Client handles email sending operations.
type Client struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewClient creates a new email client.
func NewClient(host, port, username, password, from string) *Client {
	return &Client{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// EmailOptions represents the options for sending an email.
type EmailOptions struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// SendEmail sends an email with HTML content.
func (c *Client) SendEmail(opts EmailOptions) error {
	wrappedHTML := c.wrapHTMLTemplate(opts.HTML)

	message := c.buildMessage(opts.To, opts.Subject, wrappedHTML, opts.Text)

	auth := smtp.PlainAuth("", c.username, c.password, c.host)
	addr := fmt.Sprintf("%s:%s", c.host, c.port)

	if err := smtp.SendMail(addr, auth, c.from, []string{opts.To}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// wrapHTMLTemplate wraps the HTML content in the shared layout.
func (c *Client) wrapHTMLTemplate(content string) string {
	tmpl := `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin: 0; padding: 0; font-family: Arial, sans-serif; background: #f9f9f9;">
    <div style="padding: 32px;">
        <div style="max-width: 600px; margin: auto; background: #fff; border-radius: 8px; box-shadow: 0 2px 8px #eee; padding: 32px;">
            <div style="text-align: center; margin-bottom: 24px;">
                <h2 style="color: #2a7ae2; margin: 0;">StudyHub Notification</h2>
            </div>
            <div style="font-size: 16px; color: #333;">
                {{.Content}}
            </div>
            <div style="margin-top: 32px; text-align: center; color: #aaa; font-size: 12px;">
                &copy; {{.Year}} StudyHub. All rights reserved.
            </div>
        </div>
    </div>
</body>
</html>
`

	t := template.Must(template.New("email").Parse(tmpl))
	var buf bytes.Buffer
	data := map[string]interface{}{
		"Content": template.HTML(content),
		"Year":    time.Now().Year(),
	}

	if err := t.Execute(&buf, data); err != nil {
		// Fallback to plain content if template fails
		return content
	}

	return buf.String()
}

// buildMessage constructs the email message with headers.
func (c *Client) buildMessage(to, subject, html, text string) string {
	from := c.from
	if from == "" {
		from = "noreply@studyhub.local"
	}

	msg := fmt.Sprintf("From: %s\r\n", from)
	msg += fmt.Sprintf("To: %s\r\n", to)
	msg += fmt.Sprintf("Subject: %s\r\n", subject)
	msg += "MIME-Version: 1.0\r\n"
	msg += "Content-Type: multipart/alternative; boundary=\"boundary42\"\r\n"
	msg += "\r\n"

	if text != "" {
		msg += "--boundary42\r\n"
		msg += "Content-Type: text/plain; charset=\"UTF-8\"\r\n"
		msg += "\r\n"
		msg += text + "\r\n"
	}

	msg += "--boundary42\r\n"
	msg += "Content-Type: text/html; charset=\"UTF-8\"\r\n"
	msg += "\r\n"
	msg += html + "\r\n"
	msg += "--boundary42--\r\n"

	return msg
}

// SendCourseUpdate notifies a subscriber that course materials changed.
func (c *Client) SendCourseUpdate(to, courseTitle string) error {
	html := fmt.Sprintf(`
		<p>Hello,</p>
		<p>The course <strong>%s</strong> you are subscribed to has been updated.</p>
		<p>Log in to see the latest materials.</p>
	`, template.HTMLEscapeString(courseTitle))

	return c.SendEmail(EmailOptions{
		To:      to,
		Subject: fmt.Sprintf("Course updated: %s", courseTitle),
		HTML:    html,
		Text:    fmt.Sprintf("The course %q you are subscribed to has been updated.", courseTitle),
	})
}

// SendWelcome sends a welcome email to a new user.
func (c *Client) SendWelcome(to, userName string) error {
	html := fmt.Sprintf(`
		<p>Hello %s,</p>
		<p>Welcome to StudyHub! We're excited to have you on board.</p>
		<p>Get started by browsing the course catalog and subscribing to a course.</p>
		<p>If you have any questions, feel free to reach out to our support team.</p>
		<p>Happy learning!</p>
	`, template.HTMLEscapeString(userName))

	return c.SendEmail(EmailOptions{
		To:      to,
		Subject: "Welcome to StudyHub!",
		HTML:    html,
		Text:    fmt.Sprintf("Hello %s, Welcome to StudyHub!", userName),
	})
}

// SendNotification sends a general notification email.
func (c *Client) SendNotification(to, title, message string) error {
	html := fmt.Sprintf(`
		<h3 style="color: #2a7ae2;">%s</h3>
		<p>%s</p>
	`, template.HTMLEscapeString(title), template.HTMLEscapeString(message))

	return c.SendEmail(EmailOptions{
		To:      to,
		Subject: title,
		HTML:    html,
		Text:    message,
	})
}
