// internal/pkg/email/service.go
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"github.com/sportshop/store-api/internal/config"
	"github.com/sportshop/store-api/internal/domain/order"
	"gopkg.in/gomail.v2"
)

// Service sends customer order emails over SMTP through a circuit breaker
type Service struct {
	config    *config.Config
	log       *logrus.Logger
	templates map[string]*template.Template
	send      func(...*gomail.Message) error
	breaker   *gobreaker.CircuitBreaker[struct{}]
	wg        sync.WaitGroup
}

var _ order.Notifier = (*Service)(nil)

// NewService creates a new email service
func NewService(cfg *config.Config, log *logrus.Logger) *Service {
	dialer := gomail.NewDialer(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.SMTPUser, cfg.Email.SMTPPass)

	failures := cfg.Email.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	s := &Service{
		config:    cfg,
		log:       log,
		templates: parseTemplates(),
		send:      dialer.DialAndSend,
	}
	s.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: 1,
		Timeout:     cfg.Email.BreakerOpenDelay,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Email circuit breaker changed state")
		},
	})
	return s
}

// Enabled reports whether outgoing mail is configured
func (s *Service) Enabled() bool {
	return s.config.Email.Enabled
}

// OrderPlaced mails the order confirmation to the customer in the background
func (s *Service) OrderPlaced(ctx context.Context, o *order.Order) {
	if !s.Enabled() {
		return
	}

	data := newOrderConfirmationData(s.config, o)
	subject := fmt.Sprintf("Confirmación de orden %s", o.Number)
	s.dispatch(ctx, o.CustomerEmail, subject, TemplateOrderConfirmation, data)
}

// StatusChanged tells the customer about a status transition in the background
func (s *Service) StatusChanged(ctx context.Context, o *order.Order, previous order.Status) {
	if !s.Enabled() {
		return
	}

	data := newOrderStatusUpdateData(s.config, o, previous)
	subject := fmt.Sprintf("Tu orden %s está %s", o.Number, o.Status.Label())
	s.dispatch(ctx, o.CustomerEmail, subject, TemplateOrderStatusUpdate, data)
}

// Wait blocks until every queued email has been attempted
func (s *Service) Wait() {
	s.wg.Wait()
}

// SendEmail renders a template and delivers it synchronously
func (s *Service) SendEmail(ctx context.Context, to, subject, templateName string, data interface{}) error {
	body, err := s.renderTemplate(templateName, data)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.config.Email.FromEmail, s.config.Email.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	_, err = s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.send(m)
	})
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

func (s *Service) dispatch(ctx context.Context, to, subject, templateName string, data interface{}) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if err := s.SendEmail(ctx, to, subject, templateName, data); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"template": templateName,
				"to":       to,
			}).Error("Failed to send email")
			return
		}
		s.log.WithFields(logrus.Fields{
			"template": templateName,
			"to":       to,
		}).Info("Email sent")
	}()
}

// renderTemplate renders an email template with data
func (s *Service) renderTemplate(templateName string, data interface{}) (string, error) {
	tmpl, exists := s.templates[templateName]
	if !exists {
		return "", fmt.Errorf("template %s not found", templateName)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}

	return buf.String(), nil
}
