// Package notification emails post authors about activity on their posts.
package notification

import (
	"fmt"

	"github.com/KAsare1/Postly-server/cmd/config"
	"github.com/KAsare1/Postly-server/cmd/models"
	"gopkg.in/gomail.v2"
)

// Mailer is told about new comments. Implementations decide whether anyone
// needs an email.
type Mailer interface {
	CommentAdded(post *models.Post, comment *models.Comment) error
}

// Sender delivers composed messages; *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPMailer struct {
	sender  Sender
	from    string
	baseURL string
}

// New returns an SMTP mailer, or a no-op one when SMTP is not configured.
func New(cfg config.Config) Mailer {
	if !cfg.SMTP.Enabled() {
		return NopMailer{}
	}
	d := gomail.NewDialer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password)
	return NewSMTPMailer(d, cfg.SMTP.From, cfg.BaseURL)
}

func NewSMTPMailer(sender Sender, from, baseURL string) *SMTPMailer {
	return &SMTPMailer{sender: sender, from: from, baseURL: baseURL}
}

// CommentAdded mails the post's author unless they wrote the comment
// themselves or have no address on file.
func (m *SMTPMailer) CommentAdded(post *models.Post, comment *models.Comment) error {
	if post.Author == nil || post.Author.Email == "" || comment.AuthorID == post.AuthorID {
		return nil
	}
	commenter := "Someone"
	if comment.Author != nil {
		commenter = comment.Author.DisplayName()
	}
	link := fmt.Sprintf("%s/%s/%d/", m.baseURL, post.Author.Username, post.ID)

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", post.Author.Email)
	msg.SetHeader("Subject", fmt.Sprintf("%s commented on your post", commenter))
	msg.SetBody("text/plain", fmt.Sprintf("%s wrote:\n\n%s\n\nSee the conversation at %s\n", commenter, comment.Text, link))

	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("send comment notification: %w", err)
	}
	return nil
}

type NopMailer struct{}

func (NopMailer) CommentAdded(*models.Post, *models.Comment) error {
	return nil
}
