package services

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/Sarsenovv/competition-platform/config"
	"github.com/Sarsenovv/competition-platform/models"
)

// Mailer — уведомления, которые рассылают сервисы платформы.
// Отправка всегда вне критического пути: ошибки логируются, не возвращаются клиенту.
type Mailer interface {
	SendWelcomeEmail(userEmail string, confirmationToken string) error
	SendPasswordResetEmail(userEmail string, resetToken string) error
	SendTeamInviteEmail(userEmail, teamName, inviteLink string) error
	SendSubmissionStatusEmail(userEmail, userName, competitionTitle, submissionTitle string, status models.SubmissionStatus, feedback *string) error
	SendResultsPublishedEmail(userEmail, userName, competitionTitle, submissionTitle string, finalScore *float64) error
	SendContactRequestEmail(userEmail, requesterName, submissionTitle, message string) error
}

type EmailService struct {
	cfg *config.Config
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{cfg: cfg}
}

func (s *EmailService) SendEmail(to []string, subject string, body string) error {
	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)

	msg := []byte("To: " + to[0] + "\r\n" +
		"From: " + s.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	tlsconfig := &tls.Config{
		InsecureSkipVerify: true,
		ServerName:         s.cfg.SMTPHost,
	}

	var client *smtp.Client
	if s.cfg.SMTPPort == 465 {
		// Прямое TLS-соединение (обычно порт 465)
		conn, err := tls.Dial("tcp", addr, tlsconfig)
		if err != nil {
			return fmt.Errorf("ошибка TLS соединения: %w", err)
		}
		defer conn.Close()
		client, err = smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			return fmt.Errorf("ошибка создания SMTP клиента: %w", err)
		}
	} else {
		// STARTTLS (обычно порт 587)
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("ошибка соединения SMTP: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsconfig); err != nil {
			client.Close()
			return fmt.Errorf("ошибка команды STARTTLS: %w", err)
		}
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("ошибка аутентификации SMTP: %w", err)
	}

	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("ошибка MAIL FROM: %w", err)
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			return fmt.Errorf("ошибка RCPT TO: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("ошибка команды DATA: %w", err)
	}

	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("ошибка записи сообщения: %w", err)
	}

	if err = w.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия DATA: %w", err)
	}

	return nil
}

func (s *EmailService) GenerateEmailBody(templatePath string, data interface{}) (string, error) {
	t, err := template.ParseFiles(templatePath)
	if err != nil {
		return "", fmt.Errorf("ошибка парсинга шаблона %s: %w", templatePath, err)
	}

	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return "", fmt.Errorf("ошибка выполнения шаблона %s: %w", templatePath, err)
	}

	return body.String(), nil
}

func (s *EmailService) SendWelcomeEmail(userEmail string, confirmationToken string) error {
	subject := "Добро пожаловать на платформу конкурсов!"
	templateData := struct {
		Email            string
		ConfirmationLink string
	}{
		Email:            userEmail,
		ConfirmationLink: fmt.Sprintf("%s/confirm-email?token=%s", s.cfg.PublicURL, confirmationToken),
	}

	htmlBody, err := s.GenerateEmailBody("templates/emails/welcome_email.html", templateData)
	if err != nil {
		return fmt.Errorf("ошибка генерации тела приветственного письма: %w", err)
	}

	return s.SendEmail([]string{userEmail}, subject, htmlBody)
}

func (s *EmailService) SendPasswordResetEmail(userEmail string, resetToken string) error {
	subject := "Сброс пароля"
	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.cfg.PublicURL, resetToken)
	templateData := struct {
		Email     string
		ResetLink string
	}{
		Email:     userEmail,
		ResetLink: resetLink,
	}

	htmlBody, err := s.GenerateEmailBody("templates/emails/password_reset_email.html", templateData)
	if err != nil {
		return fmt.Errorf("ошибка генерации тела письма для сброса пароля: %w", err)
	}

	return s.SendEmail([]string{userEmail}, subject, htmlBody)
}

func (s *EmailService) SendTeamInviteEmail(userEmail, teamName, inviteLink string) error {
	subject := fmt.Sprintf("Приглашение в команду %s", teamName)
	data := struct {
		TeamName   string
		InviteLink string
	}{
		TeamName:   teamName,
		InviteLink: inviteLink,
	}
	htmlBody, err := s.GenerateEmailBody("templates/emails/team_invite_email.html", data)
	if err != nil {
		return fmt.Errorf("ошибка генерации тела письма-приглашения: %w", err)
	}
	return s.SendEmail([]string{userEmail}, subject, htmlBody)
}

func (s *EmailService) SendSubmissionStatusEmail(userEmail, userName, competitionTitle, submissionTitle string, status models.SubmissionStatus, feedback *string) error {
	subject := fmt.Sprintf("Конкурс '%s': статус вашей заявки изменён", competitionTitle)
	data := struct {
		Name            string
		CompetitionTitle string
		SubmissionTitle string
		Status          string
		Feedback        string
	}{
		Name:             userName,
		CompetitionTitle: competitionTitle,
		SubmissionTitle:  submissionTitle,
		Status:           string(status),
	}
	if feedback != nil {
		data.Feedback = *feedback
	}
	htmlBody, err := s.GenerateEmailBody("templates/emails/submission_status_email.html", data)
	if err != nil {
		return fmt.Errorf("ошибка генерации тела письма о статусе заявки: %w", err)
	}
	return s.SendEmail([]string{userEmail}, subject, htmlBody)
}

func (s *EmailService) SendResultsPublishedEmail(userEmail, userName, competitionTitle, submissionTitle string, finalScore *float64) error {
	subject := fmt.Sprintf("Конкурс '%s': результаты опубликованы", competitionTitle)
	data := struct {
		Name             string
		CompetitionTitle string
		SubmissionTitle  string
		HasScore         bool
		FinalScore       float64
	}{
		Name:             userName,
		CompetitionTitle: competitionTitle,
		SubmissionTitle:  submissionTitle,
	}
	if finalScore != nil {
		data.HasScore = true
		data.FinalScore = *finalScore
	}
	htmlBody, err := s.GenerateEmailBody("templates/emails/results_published_email.html", data)
	if err != nil {
		return fmt.Errorf("ошибка генерации тела письма о результатах: %w", err)
	}
	return s.SendEmail([]string{userEmail}, subject, htmlBody)
}

func (s *EmailService) SendContactRequestEmail(userEmail, requesterName, submissionTitle, message string) error {
	subject := fmt.Sprintf("Новый запрос контакта по проекту '%s'", submissionTitle)
	data := struct {
		RequesterName   string
		SubmissionTitle string
		Message         string
	}{
		RequesterName:   requesterName,
		SubmissionTitle: submissionTitle,
		Message:         message,
	}
	htmlBody, err := s.GenerateEmailBody("templates/emails/contact_request_email.html", data)
	if err != nil {
		return fmt.Errorf("ошибка генерации тела письма о запросе контакта: %w", err)
	}
	return s.SendEmail([]string{userEmail}, subject, htmlBody)
}
