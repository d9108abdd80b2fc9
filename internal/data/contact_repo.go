package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/target/lab-portal/internal/core"
	"github.com/target/lab-portal/internal/domain/model"
	apperrors "github.com/target/lab-portal/internal/errors"
)

var _ core.ContactRepository = (*ContactRepo)(nil)

// ContactRepo provides database operations for contact form messages.
type ContactRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewContactRepo creates a new ContactRepo with real time provider.
func NewContactRepo(db *sql.DB) *ContactRepo {
	return &ContactRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

const contactColumnList = `id, name, email, subject, message, read, created_at`

// Create stores a new unread message.
func (r *ContactRepo) Create(ctx context.Context, req model.CreateContactMessageRequest) (*model.ContactMessage, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	out, err := getOne[model.ContactMessage](ctx, r.DB, ErrContactNotFound, `
		INSERT INTO contact_messages (name, email, subject, message, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+contactColumnList,
		req.Name, req.Email, req.Subject, req.Message, r.timeProvider.Now().UTC(),
	)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return out, nil
}

func (r *ContactRepo) GetByID(ctx context.Context, id string) (*model.ContactMessage, error) {
	if !validID(id) {
		return nil, ErrContactNotFound
	}
	out, err := getOne[model.ContactMessage](ctx, r.DB, ErrContactNotFound,
		`SELECT `+contactColumnList+` FROM contact_messages WHERE id = $1`, id)
	if err != nil && !errors.Is(err, ErrContactNotFound) {
		return nil, fmt.Errorf("failed to get contact message: %w", err)
	}
	return out, err
}

// List retrieves messages newest first.
func (r *ContactRepo) List(ctx context.Context, opts model.ContactListOptions) ([]*model.ContactMessage, error) {
	limit, offset := clampPage(opts.Limit, opts.Offset)
	query := `SELECT ` + contactColumnList + ` FROM contact_messages`
	if opts.UnreadOnly {
		query += ` WHERE NOT read`
	}
	query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	out, err := listAll[model.ContactMessage](ctx, r.DB, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact messages: %w", err)
	}
	return out, nil
}

// MarkRead sets the read flag and reports whether the message exists.
func (r *ContactRepo) MarkRead(ctx context.Context, id string, read bool) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	n, err := execAffected(ctx, r.DB, `UPDATE contact_messages SET read = $2 WHERE id = $1`, id, read)
	if err != nil {
		return false, fmt.Errorf("failed to mark contact message: %w", err)
	}
	return n > 0, nil
}

func (r *ContactRepo) Delete(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	n, err := execAffected(ctx, r.DB, `DELETE FROM contact_messages WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete contact message: %w", err)
	}
	return n > 0, nil
}

func (r *ContactRepo) CountUnread(ctx context.Context) (int, error) {
	n, err := countRows(ctx, r.DB, `SELECT COUNT(*) FROM contact_messages WHERE NOT read`)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return n, nil
}
