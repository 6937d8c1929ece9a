package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"classroom-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// Event names broadcast to connected clients.
const (
	EventNewQuestion       = "newQuestion"
	EventQuestionClosed    = "questionClosed"
	EventLeaderboardUpdate = "leaderboardUpdate"
	EventGameCompleted     = "gameCompleted"
	EventGameStatus        = "gameStatus"
	EventGameStarted       = "gameStarted"
)

// Phase is the scheduler state.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseStarting       Phase = "starting"
	PhaseQuestionOpen   Phase = "question_open"
	PhaseQuestionClosed Phase = "question_closed"
	PhaseCompleted      Phase = "completed"
)

// QuestionLoader loads the ordered question bank.
type QuestionLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

// ScoreStore persists scored attempts. RecordAttempt must apply a given
// (user, question, session) triple at most once and return
// domain.ErrDuplicateAttempt otherwise.
type ScoreStore interface {
	RecordAttempt(ctx context.Context, attempt domain.Attempt) error
	Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
	SessionResults(ctx context.Context, sessionID string, limit int) ([]domain.SessionResult, error)
	// UserStats returns domain.ErrUserNotFound for users without attempts.
	UserStats(ctx context.Context, userID string, recentSessions int) (domain.UserStats, error)
}

// Broadcaster fans events out to connected clients. Delivery is best effort.
type Broadcaster interface {
	EmitToAll(event string, payload any)
	EmitToOne(connID, event string, payload any)
}

// SessionRegistry keeps a record of session runs.
type SessionRegistry interface {
	Started(ctx context.Context, record domain.SessionRecord) error
	Finished(ctx context.Context, sessionID, status string, at time.Time) error
	Get(ctx context.Context, sessionID string) (domain.SessionRecord, error)
}

// cacheInvalidator is implemented by loaders that cache the bank.
type cacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// GameService runs the single-session question loop: admin control, the
// question scheduler and the answer processor. All session mutations are
// serialized on mu.
type GameService struct {
	loader   QuestionLoader
	scores   ScoreStore
	events   Broadcaster
	clock    Clock
	settings Settings
	newID    func() string

	registry     SessionRegistry
	participants func() int

	loadMu sync.Mutex

	mu      sync.Mutex
	bank    []domain.Question
	session *Session
	phase   Phase
	timer   Timer
	token   uint64
}

func NewGameService(loader QuestionLoader, scores ScoreStore, events Broadcaster, settings Settings) *GameService {
	return NewGameServiceWithClock(loader, scores, events, settings, RealClock())
}

// NewGameServiceWithClock lets tests drive timers and timestamps.
func NewGameServiceWithClock(loader QuestionLoader, scores ScoreStore, events Broadcaster, settings Settings, clock Clock) *GameService {
	return &GameService{
		loader:   loader,
		scores:   scores,
		events:   events,
		clock:    clock,
		settings: settings.withDefaults(),
		newID:    func() string { return "game_" + uuid.NewString() },
		session:  newSession(),
		phase:    PhaseIdle,
	}
}

// SetSessionRegistry records session starts and ends in r.
func (s *GameService) SetSessionRegistry(r SessionRegistry) {
	s.registry = r
}

// SetParticipantCounter enables auto-advance when every counted participant has answered.
func (s *GameService) SetParticipantCounter(count func() int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants = count
}

// Start begins a new session with a fresh id. An already running session is
// discarded along with its pending timer.
func (s *GameService) Start(ctx context.Context) (domain.GameStarted, error) {
	bank, err := s.ensureBank(ctx)
	if err != nil {
		return domain.GameStarted{}, err
	}

	s.mu.Lock()
	previous := ""
	if s.session.active {
		previous = s.session.id
	}
	token := s.bumpLocked()
	id := s.newID()
	if err := s.session.start(id, bank); err != nil {
		s.mu.Unlock()
		return domain.GameStarted{}, err
	}
	s.phase = PhaseStarting
	startedAt := s.clock.Now()
	s.timer = s.clock.AfterFunc(s.settings.LeadIn, func() { s.openNext(token) })

	started := domain.GameStarted{SessionID: id, TotalQuestions: len(bank)}
	s.events.EmitToAll(EventGameStarted, started)
	s.events.EmitToAll(EventGameStatus, s.statusLocked())
	s.mu.Unlock()

	log.Printf("game session %s started with %d questions", id, len(bank))
	if previous != "" {
		s.finishSession(ctx, previous, domain.SessionStatusReset)
	}
	if s.registry != nil {
		if err := s.registry.Started(ctx, domain.SessionRecord{
			SessionID:      id,
			Status:         domain.SessionStatusStarted,
			TotalQuestions: len(bank),
			StartedAt:      startedAt,
		}); err != nil {
			log.Printf("session registry start %s: %v", id, err)
		}
	}
	return started, nil
}

// Reset cancels any pending timer and makes the session inert before returning.
func (s *GameService) Reset(ctx context.Context) {
	s.mu.Lock()
	previous := ""
	if s.session.active {
		previous = s.session.id
	}
	s.bumpLocked()
	s.session.deactivate()
	s.phase = PhaseIdle
	s.events.EmitToAll(EventGameStatus, s.statusLocked())
	s.mu.Unlock()

	log.Printf("game reset")
	if previous != "" {
		s.finishSession(ctx, previous, domain.SessionStatusReset)
	}
}

// Advance closes the open question ahead of its timer.
func (s *GameService) Advance(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseQuestionOpen {
		return domain.ErrNoActiveQuestion
	}
	log.Printf("manual advance on question %d", s.session.index+1)
	s.closeLocked()
	return nil
}

// ReloadQuestions replaces the in-memory bank. A running session keeps the
// bank it started with.
func (s *GameService) ReloadQuestions(ctx context.Context) (int, error) {
	if inv, ok := s.loader.(cacheInvalidator); ok {
		if err := inv.Invalidate(ctx); err != nil {
			log.Printf("invalidate question cache: %v", err)
		}
	}
	s.mu.Lock()
	s.bank = nil
	s.mu.Unlock()

	bank, err := s.ensureBank(ctx)
	if err != nil {
		return 0, err
	}
	return len(bank), nil
}

// SubmitAnswer scores one answer for the open question.
func (s *GameService) SubmitAnswer(ctx context.Context, userID, displayName, raw string) (domain.AnswerResult, error) {
	if userID == "" {
		return domain.AnswerResult{}, domain.ErrMissingUser
	}
	now := s.clock.Now()

	s.mu.Lock()
	question, ok := s.session.current()
	if !ok || !s.session.accepting || s.phase != PhaseQuestionOpen {
		s.mu.Unlock()
		return domain.AnswerResult{}, domain.ErrNoActiveQuestion
	}
	if !s.session.recordAttempt(userID, question.ID) {
		s.mu.Unlock()
		return domain.AnswerResult{}, domain.ErrDuplicateAnswer
	}

	selected, _ := domain.ParseSlot(raw)
	correct := selected.Valid() && selected == question.Correct
	points, bonus := 0, false
	if correct {
		points = s.settings.BasePoints
		if s.session.claimFirstCorrect(now, s.settings.BonusWindow) {
			points += s.settings.BonusPoints
			bonus = true
		}
	}
	sessionID := s.session.id
	if s.allAnsweredLocked() {
		log.Printf("all participants answered question %d", s.session.index+1)
		s.closeLocked()
	}
	s.mu.Unlock()

	err := s.scores.RecordAttempt(ctx, domain.Attempt{
		UserID:      userID,
		DisplayName: displayName,
		QuestionID:  question.ID,
		SessionID:   sessionID,
		Difficulty:  question.DifficultyOrDefault(),
		Selected:    selected,
		RawAnswer:   raw,
		Correct:     correct,
		Points:      points,
		AnsweredAt:  now,
	})
	if errors.Is(err, domain.ErrDuplicateAttempt) {
		return domain.AnswerResult{}, domain.ErrDuplicateAnswer
	}
	if err != nil {
		log.Printf("record attempt user=%s question=%s session=%s: %v", userID, question.ID, sessionID, err)
		return domain.AnswerResult{}, fmt.Errorf("%w: %w", domain.ErrStoreWrite, err)
	}

	result := domain.AnswerResult{
		QuestionID:        question.ID,
		SelectedSlot:      selected,
		Correct:           correct,
		Points:            points,
		Bonus:             bonus,
		CorrectAnswerText: question.CorrectText(),
	}
	if correct {
		result.Message = fmt.Sprintf("Correct! +%d points", points)
	} else {
		result.Message = "Wrong answer! Correct was: " + result.CorrectAnswerText
	}

	board, err := s.scores.Leaderboard(ctx, s.settings.LeaderboardLimit)
	if err != nil {
		log.Printf("fetch leaderboard: %v", err)
		return result, nil
	}
	result.Leaderboard = board
	s.events.EmitToAll(EventLeaderboardUpdate, domain.LeaderboardUpdate{Entries: board, UpdatedAt: s.clock.Now()})
	return result, nil
}

// Status returns the current state snapshot.
func (s *GameService) Status() domain.GameStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

// Snapshot returns the state snapshot plus the live question, if one is open,
// with its remaining time. Late joiners use it to render the running question.
func (s *GameService) Snapshot() (domain.GameStatus, *domain.QuestionView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := s.statusLocked()
	q, ok := s.session.current()
	if !ok || !s.session.accepting {
		return status, nil
	}
	remaining := s.settings.QuestionDuration - s.clock.Now().Sub(s.session.openedAt)
	if remaining < 0 {
		remaining = 0
	}
	view := s.session.view(q, int((remaining+time.Second-1)/time.Second))
	return status, &view
}

// Leaderboard returns the cross-session leaderboard.
func (s *GameService) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = s.settings.LeaderboardLimit
	}
	return s.scores.Leaderboard(ctx, limit)
}

// UserStats reports one user's totals, difficulty breakdown and recent sessions.
func (s *GameService) UserStats(ctx context.Context, userID string) (domain.UserStats, error) {
	if userID == "" {
		return domain.UserStats{}, domain.ErrMissingUser
	}
	return s.scores.UserStats(ctx, userID, s.settings.RecentSessions)
}

// Session looks up a session run in the registry.
func (s *GameService) Session(ctx context.Context, sessionID string) (domain.SessionRecord, error) {
	if s.registry == nil {
		return domain.SessionRecord{}, domain.ErrSessionNotFound
	}
	return s.registry.Get(ctx, sessionID)
}

func (s *GameService) ensureBank(ctx context.Context) ([]domain.Question, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.mu.Lock()
	bank := s.bank
	s.mu.Unlock()
	if len(bank) > 0 {
		return bank, nil
	}

	loaded, err := s.loader.LoadQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrQuestionLoad, err)
	}
	bank = usableQuestions(loaded)
	if len(bank) == 0 {
		return nil, domain.ErrNoQuestionsAvailable
	}
	log.Printf("%d questions loaded", len(bank))

	s.mu.Lock()
	s.bank = bank
	s.mu.Unlock()
	return bank, nil
}

// usableQuestions drops questions missing an option or a valid correct slot.
func usableQuestions(questions []domain.Question) []domain.Question {
	out := make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		if q.Text == "" || !q.Options.Complete() || !q.Correct.Valid() {
			log.Printf("skipping incomplete question %s", q.ID)
			continue
		}
		out = append(out, q)
	}
	return out
}

// openNext is the lead-in and grace timer callback.
func (s *GameService) openNext(token uint64) {
	s.mu.Lock()
	if token != s.token || !s.session.active {
		s.mu.Unlock()
		return
	}
	next := s.bumpLocked()
	q, done := s.session.openNext(s.clock.Now())
	if done {
		s.phase = PhaseCompleted
		sessionID, total := s.session.id, len(s.session.questions)
		s.mu.Unlock()
		s.complete(next, sessionID, total)
		return
	}

	s.phase = PhaseQuestionOpen
	view := s.session.view(q, int(s.settings.QuestionDuration/time.Second))
	s.timer = s.clock.AfterFunc(s.settings.QuestionDuration, func() { s.timeout(next) })
	s.events.EmitToAll(EventNewQuestion, view)
	s.mu.Unlock()

	log.Printf("question %d/%d [%s] opened", view.QuestionNumber, view.TotalQuestions, view.Difficulty)
}

func (s *GameService) timeout(token uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.token || s.phase != PhaseQuestionOpen {
		return
	}
	log.Printf("time's up for question %d", s.session.index+1)
	s.closeLocked()
}

// closeLocked closes the open question, broadcasts the reveal and schedules
// the next question after the grace delay.
func (s *GameService) closeLocked() {
	q, ok := s.session.current()
	s.session.closeCurrent()
	s.phase = PhaseQuestionClosed
	next := s.bumpLocked()
	if ok {
		s.events.EmitToAll(EventQuestionClosed, s.session.closedEvent(q))
	}
	s.timer = s.clock.AfterFunc(s.settings.GraceDelay, func() { s.openNext(next) })
}

// complete broadcasts the final results. A failed fetch degrades to an empty
// result set so the completion event always fires, unless a new session took
// over while the results were fetched.
func (s *GameService) complete(token uint64, sessionID string, total int) {
	ctx, cancel := context.WithTimeout(context.Background(), s.settings.StoreTimeout)
	defer cancel()

	results, err := s.scores.SessionResults(ctx, sessionID, s.settings.ResultsLimit)
	if err != nil {
		log.Printf("fetch final results for %s: %v", sessionID, err)
		results = nil
	}
	if results == nil {
		results = []domain.SessionResult{}
	}

	s.mu.Lock()
	current := token == s.token
	if current {
		s.events.EmitToAll(EventGameCompleted, domain.GameCompleted{
			TotalQuestions: total,
			SessionID:      sessionID,
			FinalResults:   results,
		})
	}
	s.mu.Unlock()

	if current {
		log.Printf("game session %s completed", sessionID)
	} else {
		log.Printf("game session %s completed after a restart; results not broadcast", sessionID)
	}
	s.finishSession(ctx, sessionID, domain.SessionStatusCompleted)
}

func (s *GameService) finishSession(ctx context.Context, sessionID, status string) {
	if s.registry == nil {
		return
	}
	if err := s.registry.Finished(ctx, sessionID, status, s.clock.Now()); err != nil {
		log.Printf("session registry finish %s: %v", sessionID, err)
	}
}

// bumpLocked cancels the pending timer and invalidates callbacks holding an
// older token.
func (s *GameService) bumpLocked() uint64 {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.token++
	return s.token
}

func (s *GameService) allAnsweredLocked() bool {
	if !s.settings.AdvanceWhenAllAnswered || s.participants == nil {
		return false
	}
	n := s.participants()
	return n > 0 && s.session.answeredCount() >= n
}

func (s *GameService) statusLocked() domain.GameStatus {
	loaded := len(s.bank)
	if s.session.active {
		loaded = len(s.session.questions)
	}
	status := domain.GameStatus{
		QuestionsLoaded:  loaded,
		CurrentIndex:     s.session.index,
		AcceptingAnswers: s.session.accepting,
		SessionID:        s.session.id,
		IsActive:         s.session.active,
		Phase:            string(s.phase),
	}
	if q, ok := s.session.current(); ok && s.session.active {
		view := s.session.view(q, int(s.settings.QuestionDuration/time.Second))
		status.CurrentQuestion = &view
	}
	return status
}
