// Package historian drains the table action queue into the results archive in batches,
// and marks games abandoned once their actions stop arriving.
package historian

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/eights/internal/cache"
	"github.com/sirupsen/logrus"
)

// Source yields queued action records; cache.Publisher satisfies it.
type Source interface {
	PopGameAction(ctx context.Context, timeout time.Duration) (*cache.GameActionRecord, error)
}

// Sink persists records; database.Store satisfies it.
type Sink interface {
	InsertActions(ctx context.Context, records []cache.GameActionRecord) error
	MarkAbandoned(ctx context.Context, gameID uuid.UUID) error
}

type Options struct {
	BatchSize     int
	FlushInterval time.Duration
	Inactivity    time.Duration // a game with no actions for this long is abandoned
	PopTimeout    time.Duration
}

// Service captures game actions from the queue.
type Service struct {
	src  Source
	sink Sink
	opts Options
	log  logrus.FieldLogger
	now  func() time.Time

	mu           sync.Mutex
	batch        []cache.GameActionRecord
	lastActivity map[uuid.UUID]time.Time
}

func NewService(src Source, sink Sink, opts Options, log logrus.FieldLogger) *Service {
	if opts.BatchSize < 1 {
		opts.BatchSize = 20
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 500 * time.Millisecond
	}
	if opts.Inactivity <= 0 {
		opts.Inactivity = 10 * time.Minute
	}
	if opts.PopTimeout <= 0 {
		opts.PopTimeout = 3 * time.Second
	}
	return &Service{
		src:          src,
		sink:         sink,
		opts:         opts,
		log:          log,
		now:          time.Now,
		batch:        make([]cache.GameActionRecord, 0, opts.BatchSize),
		lastActivity: make(map[uuid.UUID]time.Time),
	}
}

// Run reads the queue and flushes periodically until ctx is cancelled, then flushes what is left.
func (s *Service) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.tickLoop(ctx)
	}()

	s.log.Info("historian started")
	s.readLoop(ctx)
	wg.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Flush(flushCtx)
	s.log.Info("historian stopped")
	return nil
}

func (s *Service) readLoop(ctx context.Context) {
	for ctx.Err() == nil {
		rec, err := s.src.PopGameAction(ctx, s.opts.PopTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Errorf("reading action queue: %v", err)
			continue
		}
		if rec == nil {
			continue
		}
		s.Add(ctx, *rec)
	}
}

func (s *Service) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(s.opts.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Flush(ctx)
			s.ReapInactive(ctx)
		}
	}
}

// Add records activity for the record's game and flushes once the batch is full.
func (s *Service) Add(ctx context.Context, rec cache.GameActionRecord) {
	s.mu.Lock()
	s.batch = append(s.batch, rec)
	if rec.ActionType == "game_end" {
		delete(s.lastActivity, rec.GameID)
	} else {
		s.lastActivity[rec.GameID] = s.now()
	}
	full := len(s.batch) >= s.opts.BatchSize
	s.mu.Unlock()

	if full {
		s.Flush(ctx)
	}
}

// Flush writes the pending batch in one transaction. A failed batch is kept for the next attempt.
func (s *Service) Flush(ctx context.Context) {
	s.mu.Lock()
	if len(s.batch) == 0 {
		s.mu.Unlock()
		return
	}
	pending := make([]cache.GameActionRecord, len(s.batch))
	copy(pending, s.batch)
	s.batch = s.batch[:0]
	s.mu.Unlock()

	if err := s.sink.InsertActions(ctx, pending); err != nil {
		s.log.Errorf("flushing %d actions: %v", len(pending), err)
		s.mu.Lock()
		s.batch = append(pending, s.batch...)
		s.mu.Unlock()
		return
	}
	s.log.Debugf("flushed %d actions", len(pending))
}

// ReapInactive marks every game idle for longer than the inactivity window as abandoned.
func (s *Service) ReapInactive(ctx context.Context) {
	now := s.now()
	var stale []uuid.UUID
	s.mu.Lock()
	for id, last := range s.lastActivity {
		if now.Sub(last) > s.opts.Inactivity {
			stale = append(stale, id)
			delete(s.lastActivity, id)
		}
	}
	s.mu.Unlock()

	for _, id := range stale {
		if err := s.sink.MarkAbandoned(ctx, id); err != nil {
			s.log.Errorf("%v", err)
			continue
		}
		s.log.Infof("marked game %s abandoned after %s without actions", id, s.opts.Inactivity)
	}
}

// Pending reports the number of buffered records.
func (s *Service) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batch)
}
