package app

import (
	"context"
	"sync"
	"time"

	"spectrum-directory-service/internal/domain"
)

// SessionRepository abstracts how screening sessions are stored (in-memory, Redis, etc).
type SessionRepository interface {
	GetOrCreate(sessionID string, instrument domain.Instrument) *Session
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// InstrumentRepository loads instrument content (from cache/backing store).
type InstrumentRepository interface {
	GetInstrument(ctx context.Context, instrumentID string) (domain.Instrument, error)
}

// ScreeningService contains the screening questionnaire use cases.
type ScreeningService struct {
	sessions    SessionRepository
	instruments InstrumentRepository
}

func NewScreeningService(store SessionRepository, instruments InstrumentRepository) *ScreeningService {
	return &ScreeningService{sessions: store, instruments: instruments}
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(id string, instrument domain.Instrument) *Session {
	return newSession(id, instrument)
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(id string, instrument domain.Instrument, now func() time.Time) *Session {
	return newSessionWithClock(id, instrument, now)
}

// Start creates (or refreshes) a screening session for the given instrument.
func (s *ScreeningService) Start(ctx context.Context, sessionID, instrumentID string) (domain.Progress, error) {
	instrument, err := s.instruments.GetInstrument(ctx, instrumentID)
	if err != nil {
		return domain.Progress{}, err
	}
	session := s.sessions.GetOrCreate(sessionID, instrument)
	return session.progress(), nil
}

// Instrument returns the full instrument definition for rendering.
func (s *ScreeningService) Instrument(ctx context.Context, instrumentID string) (domain.Instrument, error) {
	return s.instruments.GetInstrument(ctx, instrumentID)
}

// SelectAnswer records one answer for a session. Re-selecting a question
// overwrites the previous value; there is exactly one active answer per
// question at any time.
func (s *ScreeningService) SelectAnswer(_ context.Context, sessionID string, index, value int) (domain.Progress, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Progress{}, domain.ErrSessionNotFound
	}
	return session.selectAnswer(index, value)
}

// Submit scores the session when every question has an answer. An incomplete
// answer set is a silent no-op: the returned result has Complete=false, the
// answer set is untouched, and the session stays in progress.
func (s *ScreeningService) Submit(_ context.Context, sessionID string) (domain.Result, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Result{}, domain.ErrSessionNotFound
	}
	return session.submit(), nil
}

// Progress reports how many questions have been answered.
func (s *ScreeningService) Progress(_ context.Context, sessionID string) (domain.Progress, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Progress{}, domain.ErrSessionNotFound
	}
	return session.progress(), nil
}

// Subscribe returns a channel that receives progress updates for a session.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *ScreeningService) Subscribe(_ context.Context, sessionID string) (<-chan domain.Progress, func(), error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// End discards a session (navigation away or after the result was read).
func (s *ScreeningService) End(_ context.Context, sessionID string) {
	s.sessions.Delete(sessionID)
}

// Session is the in-memory state of one screening questionnaire run.
// The instrument is immutable for the session's lifetime.
type Session struct {
	id         string
	instrument domain.Instrument
	createdAt  time.Time
	now        func() time.Time

	mu          sync.RWMutex
	answers     map[int]int
	resultShown bool
	result      domain.Result
	subscribers map[chan domain.Progress]struct{}
}

func newSession(id string, instrument domain.Instrument) *Session {
	return newSessionWithClock(id, instrument, time.Now)
}

// newSessionWithClock allows deterministic timestamps in tests.
func newSessionWithClock(id string, instrument domain.Instrument, now func() time.Time) *Session {
	return &Session{
		id:          id,
		instrument:  instrument,
		createdAt:   now(),
		now:         now,
		answers:     make(map[int]int),
		subscribers: make(map[chan domain.Progress]struct{}),
	}
}

// InstrumentID reports which instrument the session runs.
func (s *Session) InstrumentID() string {
	return s.instrument.ID
}

func (s *Session) selectAnswer(index, value int) (domain.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.resultShown {
		return s.snapshotLocked(), domain.ErrSessionCompleted
	}
	if _, ok := s.instrument.Question(index); !ok {
		return s.snapshotLocked(), domain.ErrQuestionOutOfRange
	}
	if !s.instrument.AllowsValue(index, value) {
		return s.snapshotLocked(), domain.ErrValueNotAllowed
	}

	s.answers[index] = value
	return s.broadcastLocked(), nil
}

func (s *Session) submit() domain.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.resultShown {
		return s.result
	}
	total := s.instrument.QuestionCount()
	if len(s.answers) < total {
		// Deliberately silent: the caller sees no result and the form stays put.
		return domain.Result{SessionID: s.id, InstrumentID: s.instrument.ID, Complete: false}
	}

	score := 0
	for _, value := range s.answers {
		score += value
	}
	s.result = domain.Result{
		SessionID:    s.id,
		InstrumentID: s.instrument.ID,
		Complete:     true,
		Score:        score,
		Positive:     score >= s.instrument.Threshold,
	}
	s.resultShown = true
	s.broadcastLocked()
	return s.result
}

func (s *Session) progress() domain.Progress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// IsComplete reports whether the session has reached its result state.
func (s *Session) IsComplete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resultShown
}

func (s *Session) subscribe() (<-chan domain.Progress, func()) {
	ch := make(chan domain.Progress, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() domain.Progress {
	p := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- p:
		default:
			// Drop the stale update so a slow reader never blocks the session.
			select {
			case <-ch:
			default:
			}
			ch <- p
		}
	}
	return p
}

func (s *Session) snapshotLocked() domain.Progress {
	total := s.instrument.QuestionCount()
	ratio := 0.0
	if total > 0 {
		ratio = float64(len(s.answers)) / float64(total)
	}
	return domain.Progress{
		SessionID:    s.id,
		InstrumentID: s.instrument.ID,
		Answered:     len(s.answers),
		Total:        total,
		Ratio:        ratio,
		UpdatedAt:    s.now(),
	}
}
