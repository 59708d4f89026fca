package domain

import "time"

// Chat line senders
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// BlockState is the derived lifecycle state of a query block
type BlockState string

const (
	BlockPendingNoResults BlockState = "pending_no_results"
	BlockHasResults       BlockState = "has_results"
	BlockEmptyComplete    BlockState = "empty_complete"
)

// ConnectionLostMessage is shown while the backend socket is down
const ConnectionLostMessage = "Lost connection to backend."

// SendFailedMessage is shown when a query could not be handed to the transport
const SendFailedMessage = "Failed to send query to backend."

// ChatLine is one line of the conversation transcript
type ChatLine struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"` // user, bot
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// QueryBlock is one user query and its streamed result set
type QueryBlock struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	Products  []Product `json:"products"`
	Loading   bool      `json:"loading"`
	CreatedAt time.Time `json:"created_at"`
}

// State derives the block lifecycle state from Loading and Products
func (b *QueryBlock) State() BlockState {
	switch {
	case b.Loading:
		return BlockPendingNoResults
	case len(b.Products) > 0:
		return BlockHasResults
	default:
		return BlockEmptyComplete
	}
}

// HasProduct reports whether a product with the given id is already in the block
func (b *QueryBlock) HasProduct(id string) bool {
	for _, p := range b.Products {
		if p.ID == id {
			return true
		}
	}
	return false
}

// Session is the whole search conversation.
// Pending is the index into Blocks of the block receiving streamed events.
type Session struct {
	ID         string
	Blocks     []*QueryBlock
	Pending    *int
	Connected  bool
	Searching  bool
	HasResults bool
	LastError  string
	Transcript []ChatLine
}

// PendingBlock returns the block currently receiving events, or nil
func (s *Session) PendingBlock() *QueryBlock {
	if s.Pending == nil {
		return nil
	}
	idx := *s.Pending
	if idx < 0 || idx >= len(s.Blocks) {
		return nil
	}
	return s.Blocks[idx]
}

// BlockView is a query block as handed to renderers
type BlockView struct {
	QueryBlock
	State BlockState `json:"state"`
}

// SessionSnapshot is a deep copy of the session for renderers
type SessionSnapshot struct {
	ID         string      `json:"id"`
	Blocks     []BlockView `json:"blocks"`
	Pending    *int        `json:"pending,omitempty"`
	Connected  bool        `json:"connected"`
	Searching  bool        `json:"searching"`
	HasResults bool        `json:"has_results"`
	Error      string      `json:"error,omitempty"`
	Transcript []ChatLine  `json:"transcript"`
}

// Snapshot copies the session so callers can read it without holding locks
func (s *Session) Snapshot() SessionSnapshot {
	snap := SessionSnapshot{
		ID:         s.ID,
		Blocks:     make([]BlockView, 0, len(s.Blocks)),
		Connected:  s.Connected,
		Searching:  s.Searching,
		HasResults: s.HasResults,
		Error:      s.LastError,
		Transcript: append([]ChatLine{}, s.Transcript...),
	}
	if s.Pending != nil {
		idx := *s.Pending
		snap.Pending = &idx
	}
	for _, b := range s.Blocks {
		view := BlockView{QueryBlock: *b, State: b.State()}
		view.Products = append([]Product{}, b.Products...)
		snap.Blocks = append(snap.Blocks, view)
	}
	return snap
}
