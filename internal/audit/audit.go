package audit

import (
	"TrackingCar/internal/model"
	"TrackingCar/internal/repo"
	"context"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxSummary — предел длины сохраняемых тел запроса и ответа.
const maxSummary = 4096

// Entry — одно действие для журнала аудита.
type Entry struct {
	ActionType string
	Path       string
	Request    string
	Response   string
	StatusCode int
	UserName   string
	IP         string
}

// Sink принимает записи аудита. Log не блокирует вызывающего и не возвращает ошибок.
type Sink interface {
	Log(e Entry)
}

// GormSink пишет журнал в БД из фоновой горутины через буферизованную очередь.
// При переполнении очереди запись отбрасывается с предупреждением.
type GormSink struct {
	store  *repo.Store[model.LogEntry]
	logger *zap.SugaredLogger
	queue  chan model.LogEntry
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewGormSink(db *gorm.DB, logger *zap.SugaredLogger, buffer, maxPageSize int) *GormSink {
	if buffer <= 0 {
		buffer = 1
	}
	s := &GormSink{
		store:  repo.NewStore[model.LogEntry](db).WithMaxPageSize(maxPageSize),
		logger: logger,
		queue:  make(chan model.LogEntry, buffer),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *GormSink) Log(e Entry) {
	entry := model.LogEntry{
		ActionType: e.ActionType,
		Path:       e.Path,
		Request:    truncate(e.Request),
		Response:   truncate(e.Response),
		StatusCode: e.StatusCode,
		UserName:   e.UserName,
		IP:         e.IP,
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- entry:
	default:
		s.logger.Warnw("audit queue full, entry dropped", "action", e.ActionType, "path", e.Path)
	}
}

func (s *GormSink) run() {
	defer close(s.done)
	for entry := range s.queue {
		e := entry
		if err := s.store.Create(context.Background(), &e); err != nil {
			s.logger.Errorw("audit write failed", "action", e.ActionType, "path", e.Path, "error", err)
		}
	}
}

// Close перестаёт принимать записи и дожидается записи очереди или отмены ctx.
func (s *GormSink) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ListPage возвращает страницу журнала, новые записи первыми. userName фильтрует по автору.
func (s *GormSink) ListPage(ctx context.Context, page, pageSize int, userName string) ([]model.LogEntry, int64, error) {
	var filter repo.Filter
	if userName != "" {
		filter = repo.Where("user_name = ?", userName)
	}
	total, err := s.store.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	items, err := s.store.Paginate(ctx, page, pageSize, filter, repo.OrderBy("created_at DESC"))
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func truncate(s string) string {
	if len(s) <= maxSummary {
		return s
	}
	cut := maxSummary
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}

var _ Sink = (*GormSink)(nil)
