package scheduler

import (
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// TaskFn is the function signature for scheduled tasks.
type TaskFn func()

// Scheduler manages interval tickers and cron-spec tasks.
type Scheduler struct {
	mu      sync.Mutex
	tickers map[string]*tickerEntry
	cron    *cron.Cron
	crons   map[string]cron.EntryID
	logger  *zap.Logger
	stopCh  chan struct{}
}

type tickerEntry struct {
	ticker *time.Ticker
	stopCh chan struct{}
}

// TaskInfo describes one registered task.
type TaskInfo struct {
	Name     string     `json:"name"`
	Kind     string     `json:"kind"`
	Interval string     `json:"interval,omitempty"`
	Next     *time.Time `json:"next,omitempty"`
}

// New creates a new Scheduler and starts its cron runner.
func New(logger *zap.Logger) *Scheduler {
	s := &Scheduler{
		tickers: make(map[string]*tickerEntry),
		cron:    cron.New(),
		crons:   make(map[string]cron.EntryID),
		stopCh:  make(chan struct{}),
		logger:  logger,
	}
	s.cron.Start()
	return s
}

func (s *Scheduler) run(name string, fn TaskFn) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduler task panicked",
				zap.String("task", name),
				zap.Any("recover", r))
		}
	}()
	fn()
}

// AddTicker registers a task to run on a fixed interval.
// If a task with the same name exists, it is replaced.
func (s *Scheduler) AddTicker(name string, interval time.Duration, fn TaskFn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Remove existing.
	if old, ok := s.tickers[name]; ok {
		close(old.stopCh)
		delete(s.tickers, name)
	}

	entry := &tickerEntry{
		ticker: time.NewTicker(interval),
		stopCh: make(chan struct{}),
	}
	s.tickers[name] = entry

	go func() {
		for {
			select {
			case <-entry.ticker.C:
				s.run(name, fn)
			case <-entry.stopCh:
				entry.ticker.Stop()
				return
			case <-s.stopCh:
				entry.ticker.Stop()
				return
			}
		}
	}()
	s.logger.Info("scheduler task registered", zap.String("name", name), zap.Duration("interval", interval))
}

// AddCron registers a task on a standard cron spec ("0 3 * * *", "@every 1h").
// If a task with the same name exists, it is replaced.
func (s *Scheduler) AddCron(name, spec string, fn TaskFn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(spec, func() { s.run(name, fn) })
	if err != nil {
		return err
	}
	if old, ok := s.crons[name]; ok {
		s.cron.Remove(old)
	}
	s.crons[name] = id
	s.logger.Info("scheduler cron registered", zap.String("name", name), zap.String("spec", spec))
	return nil
}

// Remove stops and removes a ticker or cron task by name.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.tickers[name]; ok {
		close(entry.stopCh)
		delete(s.tickers, name)
	}
	if id, ok := s.crons[name]; ok {
		s.cron.Remove(id)
		delete(s.crons, name)
	}
}

// Stop stops all tasks. Running cron jobs are not waited for.
func (s *Scheduler) Stop() {
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
		s.cron.Stop()
	}
}

// ListTickers returns the names of all registered ticker tasks.
func (s *Scheduler) ListTickers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.tickers))
	for name := range s.tickers {
		names = append(names, name)
	}
	return names
}

// Tasks returns every registered task sorted by name.
func (s *Scheduler) Tasks() []TaskInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TaskInfo, 0, len(s.tickers)+len(s.crons))
	for name := range s.tickers {
		out = append(out, TaskInfo{Name: name, Kind: "ticker"})
	}
	for name, id := range s.crons {
		info := TaskInfo{Name: name, Kind: "cron"}
		if next := s.cron.Entry(id).Next; !next.IsZero() {
			info.Next = &next
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
