package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/mailroom/internal/apperror"
	"github.com/keyxmakerx/mailroom/internal/backend"
	"github.com/keyxmakerx/mailroom/internal/middleware"
)

// PerPage is the number of audit entries shown per page in the activity feed.
const PerPage = 50

// maxHistoryEntries caps the history returned for a single resource.
const maxHistoryEntries = 100

// AuditService handles business logic for the audit log.
type AuditService interface {
	// Enabled reports whether entries are persisted.
	Enabled() bool

	// Log records an audit entry. Callers may ignore the error: an audit
	// failure never undoes the operation it describes.
	Log(ctx context.Context, entry *Entry) error

	// Activity returns one page of the feed and the total entry count.
	Activity(ctx context.Context, filter ListFilter, page int) ([]Entry, int, error)

	// History returns the recent entries for a single resource.
	History(ctx context.Context, resourceType, resourceID string) ([]Entry, error)
}

// auditService implements AuditService. A nil repo disables persistence.
type auditService struct {
	repo AuditRepository
}

// NewAuditService creates a new audit service. Pass a nil repository when
// no database is configured.
func NewAuditService(repo AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) Enabled() bool { return s.repo != nil }

// Log validates and persists an entry.
func (s *auditService) Log(ctx context.Context, entry *Entry) error {
	if s.repo == nil {
		return nil
	}
	if entry.Operator == "" {
		return apperror.NewBadRequest("operator is required for audit entry")
	}
	if entry.Action == "" {
		return apperror.NewBadRequest("action is required for audit entry")
	}
	if !validResource(entry.ResourceType) {
		return apperror.NewBadRequest(fmt.Sprintf("unknown audit resource type %q", entry.ResourceType))
	}

	if err := s.repo.Log(ctx, entry); err != nil {
		slog.Error("failed to write audit log entry",
			slog.String("action", entry.Action),
			slog.String("resource_id", entry.ResourceID),
			slog.Any("error", err),
		)
		return apperror.NewInternal(fmt.Errorf("writing audit entry: %w", err))
	}
	return nil
}

// Activity returns the paginated feed. Pages are 1-indexed; invalid page
// numbers are clamped to 1.
func (s *auditService) Activity(ctx context.Context, filter ListFilter, page int) ([]Entry, int, error) {
	if s.repo == nil {
		return nil, 0, nil
	}
	if filter.ResourceType != "" && !validResource(filter.ResourceType) {
		return nil, 0, apperror.NewBadRequest("unknown resource type")
	}
	if page < 1 {
		page = 1
	}

	entries, total, err := s.repo.List(ctx, filter, PerPage, (page-1)*PerPage)
	if err != nil {
		return nil, 0, apperror.NewInternal(fmt.Errorf("listing activity: %w", err))
	}
	return entries, total, nil
}

// History returns the recent entries for one resource.
func (s *auditService) History(ctx context.Context, resourceType, resourceID string) ([]Entry, error) {
	if resourceID == "" {
		return nil, apperror.NewBadRequest("resource ID is required")
	}
	if !validResource(resourceType) {
		return nil, apperror.NewBadRequest("unknown resource type")
	}
	if s.repo == nil {
		return []Entry{}, nil
	}

	entries, _, err := s.repo.List(ctx, ListFilter{ResourceType: resourceType, ResourceID: resourceID}, maxHistoryEntries, 0)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing history: %w", err))
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// Record logs an entry for the current request, filling in the operator,
// request id and client IP. Errors are logged inside Log and dropped here.
func Record(c echo.Context, svc AuditService, action, resourceType, resourceID, resourceName string, details map[string]any) {
	if svc == nil || !svc.Enabled() {
		return
	}
	ctx := c.Request().Context()
	_ = svc.Log(ctx, &Entry{
		Operator:     backend.OperatorFrom(ctx),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		ResourceName: resourceName,
		Details:      details,
		RemoteIP:     c.RealIP(),
		RequestID:    middleware.GetRequestID(c),
	})
}
