package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/liliang-cn/smartsearch/internal/domain"
	"github.com/liliang-cn/smartsearch/internal/normalize"
)

// Sender hands a user query to the backend transport
type Sender interface {
	SendUserMessage(ctx context.Context, text string) error
}

// SessionService owns the search session and applies transport events to it.
// All mutations are serialized by mu; the transport send runs outside the lock.
type SessionService struct {
	mu         sync.Mutex
	session    *domain.Session
	sender     Sender
	isTerminal TerminalClassifier
	logger     *zap.Logger
	now        func() time.Time

	subMu       sync.Mutex
	subscribers map[int]chan domain.SessionSnapshot
	nextSubID   int
}

// NewSessionService creates a new session service
func NewSessionService(sender Sender, isTerminal TerminalClassifier, logger *zap.Logger) *SessionService {
	if isTerminal == nil {
		isTerminal = NewTerminalClassifier(DefaultTerminalPhrases)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		session:     newSession(),
		sender:      sender,
		isTerminal:  isTerminal,
		logger:      logger,
		now:         time.Now,
		subscribers: make(map[int]chan domain.SessionSnapshot),
	}
}

func newSession() *domain.Session {
	return &domain.Session{
		ID:         uuid.New().String(),
		Blocks:     []*domain.QueryBlock{},
		Transcript: []domain.ChatLine{},
	}
}

// SubmitQuery starts a new query block and sends the query to the backend.
// A send failure is recorded on the session, not returned.
func (s *SessionService) SubmitQuery(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return domain.ErrBlankQuery
	}

	s.mu.Lock()
	now := s.now()
	s.appendLine(domain.SenderUser, text, now)
	s.session.Blocks = append(s.session.Blocks, &domain.QueryBlock{
		ID:        uuid.New().String(),
		Query:     text,
		Products:  []domain.Product{},
		Loading:   true,
		CreatedAt: now,
	})
	idx := len(s.session.Blocks) - 1
	s.session.Pending = &idx
	s.session.Searching = true
	s.session.HasResults = true
	s.session.LastError = ""
	sessionID := s.session.ID
	s.mu.Unlock()
	s.publish()

	s.logger.Info("Query submitted",
		zap.String("session_id", sessionID),
		zap.Int("block", idx),
		zap.String("query", text),
	)

	if s.sender == nil {
		return nil
	}
	if err := s.sender.SendUserMessage(ctx, text); err != nil {
		s.logger.Warn("Failed to send query", zap.String("session_id", sessionID), zap.Error(err))
		s.mu.Lock()
		s.session.LastError = domain.SendFailedMessage
		s.mu.Unlock()
		s.publish()
	}
	return nil
}

// OnProduct attaches a streamed product to the pending block.
// Without a pending block the product is dropped.
func (s *SessionService) OnProduct(raw domain.UpstreamRecord) {
	s.mu.Lock()
	block := s.session.PendingBlock()
	if block == nil {
		s.mu.Unlock()
		s.logger.Debug("Dropping product with no pending block")
		return
	}

	product := normalize.Product(raw, len(block.Products))
	duplicate := block.HasProduct(product.ID)
	if !duplicate {
		block.Products = append(block.Products, product)
	}
	block.Loading = false
	s.session.Searching = false
	s.session.HasResults = true
	count := len(block.Products)
	s.mu.Unlock()
	s.publish()

	s.logger.Debug("Product received",
		zap.String("product_id", product.ID),
		zap.Bool("duplicate", duplicate),
		zap.Int("block_products", count),
	)
}

// OnBotMessage records a backend status line and ends the search when the
// line is terminal. The pending block only stops loading here if it has no products.
func (s *SessionService) OnBotMessage(text string) {
	s.mu.Lock()
	s.appendLine(domain.SenderBot, text, s.now())
	terminal := s.isTerminal(text)
	if terminal {
		s.session.Searching = false
		if block := s.session.PendingBlock(); block != nil && len(block.Products) == 0 {
			block.Loading = false
		}
	}
	s.mu.Unlock()
	s.publish()

	s.logger.Debug("Bot message received", zap.Bool("terminal", terminal))
}

// OnConnect marks the backend reachable
func (s *SessionService) OnConnect() {
	s.mu.Lock()
	s.session.Connected = true
	s.session.LastError = ""
	s.mu.Unlock()
	s.publish()

	s.logger.Info("Backend connected")
}

// OnDisconnect marks the backend lost. Blocks and transcript are kept.
func (s *SessionService) OnDisconnect() {
	s.mu.Lock()
	s.session.Connected = false
	s.session.LastError = domain.ConnectionLostMessage
	s.mu.Unlock()
	s.publish()

	s.logger.Warn("Backend disconnected")
}

// Reset returns the session to its initial state. Connection status is kept.
func (s *SessionService) Reset() {
	s.mu.Lock()
	connected := s.session.Connected
	s.session = newSession()
	s.session.Connected = connected
	sessionID := s.session.ID
	s.mu.Unlock()
	s.publish()

	s.logger.Info("Session reset", zap.String("session_id", sessionID))
}

// Snapshot returns a copy of the current session
func (s *SessionService) Snapshot() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Snapshot()
}

// Subscribe returns a channel receiving the latest snapshot after every change.
// Slow readers only see the most recent snapshot. Call cancel to unsubscribe.
func (s *SessionService) Subscribe() (<-chan domain.SessionSnapshot, func()) {
	ch := make(chan domain.SessionSnapshot, 1)

	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// publish snapshots under subMu so concurrent publishers cannot deliver out of order
func (s *SessionService) publish() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if len(s.subscribers) == 0 {
		return
	}

	snap := s.Snapshot()
	for _, ch := range s.subscribers {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

// appendLine must be called with mu held
func (s *SessionService) appendLine(sender, text string, at time.Time) {
	s.session.Transcript = append(s.session.Transcript, domain.ChatLine{
		ID:        uuid.New().String(),
		Sender:    sender,
		Text:      text,
		CreatedAt: at,
	})
}
