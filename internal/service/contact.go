package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/lab-portal/internal/core"
	"github.com/target/lab-portal/internal/domain/model"
	"github.com/target/lab-portal/internal/ports"
)

const notifyTimeout = 10 * time.Second

// ContactServiceOptions groups dependencies for ContactService.
type ContactServiceOptions struct {
	Repo     core.ContactRepository // Required
	Notifier ports.Notifier         // Optional: staff notification on new messages
	Logger   *slog.Logger
}

// ContactService stores public contact form messages and notifies staff.
type ContactService struct {
	repo     core.ContactRepository
	notifier ports.Notifier
	logger   *slog.Logger
}

// NewContactService constructs a new ContactService.
func NewContactService(opts ContactServiceOptions) (*ContactService, error) {
	if opts.Repo == nil {
		return nil, errors.New("ContactRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ContactService{repo: opts.Repo, notifier: opts.Notifier, logger: logger.With("component", "contact_service")}, nil
}

// Submit stores a message. Notification failures are logged; the message is
// already saved and visible in the admin inbox.
func (s *ContactService) Submit(ctx context.Context, req model.CreateContactMessageRequest) (*model.ContactMessage, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	m, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("save contact message: %w", err)
	}
	if s.notifier != nil {
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		if nerr := s.notifier.Notify(nctx, notificationFor(m)); nerr != nil {
			s.logger.WarnContext(ctx, "contact notification failed", "message_id", m.ID, "error", nerr)
		}
	}
	return m, nil
}

func notificationFor(m *model.ContactMessage) ports.Notification {
	subject := m.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	return ports.Notification{
		Subject: "New contact message: " + subject,
		Body:    fmt.Sprintf("From: %s <%s>\n\n%s\n", m.Name, m.Email, m.Message),
		ReplyTo: m.Email,
	}
}

func (s *ContactService) GetByID(ctx context.Context, id string) (*model.ContactMessage, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ContactService) List(ctx context.Context, opts model.ContactListOptions) ([]*model.ContactMessage, error) {
	return s.repo.List(ctx, opts)
}

func (s *ContactService) MarkRead(ctx context.Context, id string, read bool) (bool, error) {
	return s.repo.MarkRead(ctx, id, read)
}

func (s *ContactService) Delete(ctx context.Context, id string) (bool, error) {
	return s.repo.Delete(ctx, id)
}
