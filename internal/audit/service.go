package audit

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"waste-console/internal/models"
)

type LogOptions struct {
	Actor       models.User
	EntityType  string // "user", "ticket:landfill", "report:tmb"
	EntityID    string
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// Recorder persists audit entries. Failures are returned, callers decide whether
// they block the operation.
type Recorder interface {
	WriteLog(ctx context.Context, opts LogOptions) error
}

type Filter struct {
	UserID        string
	InstitutionID string
	EntityType    string
	EntityID      string
	Action        models.AuditAction
	Limit         int
}

type Lister interface {
	List(ctx context.Context, f Filter) ([]models.AuditLog, error)
}

func newLog(opts LogOptions) models.AuditLog {
	return models.AuditLog{
		UserID:        opts.Actor.ID,
		UserName:      opts.Actor.Name,
		Role:          opts.Actor.Role,
		InstitutionID: opts.Actor.InstitutionID,
		EntityType:    opts.EntityType,
		EntityID:      opts.EntityID,
		Action:        opts.Action,
		Description:   truncate(opts.Description, 255),
		BeforeData:    jsonOrNull(opts.Before),
		AfterData:     jsonOrNull(opts.After),
	}
}

// jsonOrNull: jsonb columns need "null" rather than an empty string.
func jsonOrNull(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Service writes audit entries to Postgres.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) WriteLog(ctx context.Context, opts LogOptions) error {
	entry := newLog(opts)
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return errors.Wrap(err, "write audit log")
	}
	return nil
}

const defaultListLimit = 200

func (s *Service) List(ctx context.Context, f Filter) ([]models.AuditLog, error) {
	q := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.InstitutionID != "" {
		q = q.Where("institution_id = ?", f.InstitutionID)
	}
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != "" {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = defaultListLimit
	}

	var logs []models.AuditLog
	if err := q.Order("created_at DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, errors.Wrap(err, "list audit logs")
	}
	return logs, nil
}

// LogRecorder writes audit entries to the process log, used where no database is configured.
type LogRecorder struct {
	log *zap.Logger
}

func NewLogRecorder(log *zap.Logger) *LogRecorder {
	return &LogRecorder{log: log.Named("audit")}
}

func (r *LogRecorder) WriteLog(_ context.Context, opts LogOptions) error {
	e := newLog(opts)
	r.log.Info(e.Description,
		zap.String("user_id", e.UserID),
		zap.String("role", string(e.Role)),
		zap.String("entity_type", e.EntityType),
		zap.String("entity_id", e.EntityID),
		zap.String("action", string(e.Action)),
	)
	return nil
}

// Try writes opts and only logs a failure, so auditing never blocks the operation itself.
func Try(ctx context.Context, r Recorder, log *zap.Logger, opts LogOptions) {
	if r == nil {
		return
	}
	if err := r.WriteLog(ctx, opts); err != nil {
		log.Error("audit log could not be written",
			zap.String("entity_type", opts.EntityType),
			zap.String("entity_id", opts.EntityID),
			zap.Error(err))
	}
}
