package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/kasuganosora/raidprofile/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditEntry is one audited request.
type AuditEntry struct {
	TraceID    string
	SessionID  string
	Action     string
	Outcome    string
	Request    interface{}
	Response   interface{}
	Error      string
	IP         string
	DurationMs int
}

const (
	ActionPrestigeObtain = "prestige_obtain"
	ActionProfileCreate  = "profile_create"
	ActionBackupRestore  = "backup_restore"
)

const (
	queueSize     = 1024
	batchSize     = 100
	flushInterval = 2 * time.Second
)

// Service writes audit rows from a background worker so request handlers
// never wait on the database. Entries are dropped, with a warning, while the
// queue is full.
type Service struct {
	db       *gorm.DB
	queue    chan *model.AuditLog
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
	logger   *zap.Logger
}

func New(db *gorm.DB, logger *zap.Logger) *Service {
	svc := &Service{
		db:     db,
		queue:  make(chan *model.AuditLog, queueSize),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
		logger: logger,
	}
	go svc.run()
	return svc
}

// Log enqueues entry without blocking.
func (svc *Service) Log(entry AuditEntry) {
	rec := toRecord(entry)
	select {
	case svc.queue <- rec:
	default:
		svc.logger.Warn("audit queue full, dropping entry",
			zap.String("action", entry.Action),
			zap.String("session_id", entry.SessionID))
	}
}

func toRecord(e AuditEntry) *model.AuditLog {
	return &model.AuditLog{
		TraceID:    e.TraceID,
		SessionID:  e.SessionID,
		Action:     e.Action,
		Outcome:    e.Outcome,
		Request:    marshal(e.Request),
		Response:   marshal(e.Response),
		Error:      e.Error,
		IP:         e.IP,
		DurationMs: e.DurationMs,
	}
}

func marshal(v interface{}) datatypes.JSON {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

// Stop flushes queued entries and waits for the worker, or for ctx.
// Calling it again is a no-op wait.
func (svc *Service) Stop(ctx context.Context) {
	svc.stopOnce.Do(func() { close(svc.stopCh) })
	select {
	case <-svc.done:
	case <-ctx.Done():
		svc.logger.Warn("audit stop timed out", zap.Int("pending", len(svc.queue)))
	}
}

func (svc *Service) run() {
	defer close(svc.done)
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]*model.AuditLog, 0, batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := svc.db.CreateInBatches(batch, batchSize).Error; err != nil {
			svc.logger.Error("audit write failed", zap.Int("rows", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case rec := <-svc.queue:
			batch = append(batch, rec)
			if len(batch) >= batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-svc.stopCh:
			for {
				select {
				case rec := <-svc.queue:
					batch = append(batch, rec)
				default:
					flush()
					return
				}
			}
		}
	}
}
