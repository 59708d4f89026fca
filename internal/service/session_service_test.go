package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/liliang-cn/smartsearch/internal/domain"
)

type fakeSender struct {
	mu     sync.Mutex
	sent   []string
	err    error
	onSend func()
}

func (f *fakeSender) SendUserMessage(ctx context.Context, text string) error {
	f.mu.Lock()
	f.sent = append(f.sent, text)
	onSend := f.onSend
	f.mu.Unlock()
	if onSend != nil {
		onSend()
	}
	return f.err
}

func newTestSessionService(t *testing.T) (*SessionService, *fakeSender) {
	t.Helper()
	sender := &fakeSender{}
	return NewSessionService(sender, NewTerminalClassifier(DefaultTerminalPhrases), zaptest.NewLogger(t)), sender
}

func productIDs(b domain.BlockView) []string {
	ids := make([]string, 0, len(b.Products))
	for _, p := range b.Products {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestSubmitQuery_CreatesPendingBlockAndSends(t *testing.T) {
	svc, sender := newTestSessionService(t)

	require.NoError(t, svc.SubmitQuery(context.Background(), "red shoes"))

	snap := svc.Snapshot()
	require.Len(t, snap.Blocks, 1)
	assert.Equal(t, "red shoes", snap.Blocks[0].Query)
	assert.True(t, snap.Blocks[0].Loading)
	assert.Empty(t, snap.Blocks[0].Products)
	assert.Equal(t, domain.BlockPendingNoResults, snap.Blocks[0].State)
	require.NotNil(t, snap.Pending)
	assert.Equal(t, 0, *snap.Pending)
	assert.True(t, snap.Searching)
	require.Len(t, snap.Transcript, 1)
	assert.Equal(t, domain.SenderUser, snap.Transcript[0].Sender)
	assert.Equal(t, "red shoes", snap.Transcript[0].Text)
	assert.Equal(t, []string{"red shoes"}, sender.sent)
}

func TestSubmitQuery_PendingAssignedBeforeSend(t *testing.T) {
	svc, sender := newTestSessionService(t)
	require.NoError(t, svc.SubmitQuery(context.Background(), "A"))

	var pendingAtSend *int
	sender.onSend = func() {
		pendingAtSend = svc.Snapshot().Pending
	}
	require.NoError(t, svc.SubmitQuery(context.Background(), "B"))

	require.NotNil(t, pendingAtSend)
	assert.Equal(t, 1, *pendingAtSend)
}

func TestSubmitQuery_BlankRejected(t *testing.T) {
	svc, sender := newTestSessionService(t)

	for _, text := range []string{"", "   ", "\t\n"} {
		err := svc.SubmitQuery(context.Background(), text)
		assert.ErrorIs(t, err, domain.ErrBlankQuery)
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	}

	snap := svc.Snapshot()
	assert.Empty(t, snap.Blocks)
	assert.Empty(t, snap.Transcript)
	assert.Nil(t, snap.Pending)
	assert.Empty(t, sender.sent)
}

func TestSubmitQuery_ClearsErrorAndRecordsSendFailure(t *testing.T) {
	svc, sender := newTestSessionService(t)
	svc.OnDisconnect()
	require.Equal(t, domain.ConnectionLostMessage, svc.Snapshot().Error)

	sender.err = errors.New("socket closed")
	require.NoError(t, svc.SubmitQuery(context.Background(), "lamp"))

	snap := svc.Snapshot()
	assert.Equal(t, domain.SendFailedMessage, snap.Error)
	require.Len(t, snap.Blocks, 1)
	assert.True(t, snap.Blocks[0].Loading)

	sender.err = nil
	require.NoError(t, svc.SubmitQuery(context.Background(), "desk lamp"))
	assert.Empty(t, svc.Snapshot().Error)
}

func TestOnProduct_Deduplicates(t *testing.T) {
	svc, _ := newTestSessionService(t)
	require.NoError(t, svc.SubmitQuery(context.Background(), "headphones"))

	svc.OnProduct(domain.UpstreamRecord{"id": "p1", "name": "First"})
	svc.OnProduct(domain.UpstreamRecord{"id": "p1", "name": "First again"})

	snap := svc.Snapshot()
	require.Len(t, snap.Blocks[0].Products, 1)
	assert.Equal(t, "First", snap.Blocks[0].Products[0].Name)
}

func TestOnProduct_SameIDAllowedAcrossBlocks(t *testing.T) {
	svc, _ := newTestSessionService(t)

	require.NoError(t, svc.SubmitQuery(context.Background(), "A"))
	svc.OnProduct(domain.UpstreamRecord{"id": "p1"})
	require.NoError(t, svc.SubmitQuery(context.Background(), "B"))
	svc.OnProduct(domain.UpstreamRecord{"id": "p1"})

	snap := svc.Snapshot()
	assert.Equal(t, []string{"p1"}, productIDs(snap.Blocks[0]))
	assert.Equal(t, []string{"p1"}, productIDs(snap.Blocks[1]))
}

func TestOnProduct_RoutesToLatestBlock(t *testing.T) {
	svc, _ := newTestSessionService(t)

	require.NoError(t, svc.SubmitQuery(context.Background(), "A"))
	require.NoError(t, svc.SubmitQuery(context.Background(), "B"))
	svc.OnProduct(domain.UpstreamRecord{"id": "b1"})

	snap := svc.Snapshot()
	assert.Empty(t, snap.Blocks[0].Products)
	assert.True(t, snap.Blocks[0].Loading)
	assert.Equal(t, []string{"b1"}, productIDs(snap.Blocks[1]))
	assert.False(t, snap.Blocks[1].Loading)
}

func TestOnProduct_SynthesizesIDsFromPosition(t *testing.T) {
	svc, _ := newTestSessionService(t)
	require.NoError(t, svc.SubmitQuery(context.Background(), "mugs"))

	svc.OnProduct(domain.UpstreamRecord{"name": "Mug"})
	svc.OnProduct(domain.UpstreamRecord{"name": "Cup"})

	assert.Equal(t, []string{"product-0", "product-1"}, productIDs(svc.Snapshot().Blocks[0]))
}

func TestOnProduct_DroppedWithoutPendingBlock(t *testing.T) {
	svc, _ := newTestSessionService(t)

	assert.NotPanics(t, func() { svc.OnProduct(domain.UpstreamRecord{"id": "stray"}) })
	assert.Empty(t, svc.Snapshot().Blocks)

	require.NoError(t, svc.SubmitQuery(context.Background(), "A"))
	svc.Reset()
	assert.NotPanics(t, func() { svc.OnProduct(domain.UpstreamRecord{"id": "late"}) })

	snap := svc.Snapshot()
	assert.Empty(t, snap.Blocks)
	assert.Nil(t, snap.Pending)
}

func TestLoadingIsMonotonic(t *testing.T) {
	svc, _ := newTestSessionService(t)
	require.NoError(t, svc.SubmitQuery(context.Background(), "A"))

	svc.OnProduct(domain.UpstreamRecord{"id": "p1"})
	require.False(t, svc.Snapshot().Blocks[0].Loading)

	svc.OnBotMessage("Searching more stores...")
	svc.OnBotMessage("Sorry, scraping failed")
	svc.OnProduct(domain.UpstreamRecord{"id": "p1"})
	svc.OnDisconnect()
	svc.OnConnect()

	assert.False(t, svc.Snapshot().Blocks[0].Loading)
}

func TestOnBotMessage_TerminalKeepsBlockWithProducts(t *testing.T) {
	svc, _ := newTestSessionService(t)
	require.NoError(t, svc.SubmitQuery(context.Background(), "A"))
	svc.OnProduct(domain.UpstreamRecord{"id": "p1"})
	require.NoError(t, svc.SubmitQuery(context.Background(), "B"))

	svc.OnBotMessage("Sorry, no products found")

	snap := svc.Snapshot()
	assert.False(t, snap.Searching)
	assert.Equal(t, domain.BlockHasResults, snap.Blocks[0].State)
	assert.Equal(t, domain.BlockEmptyComplete, snap.Blocks[1].State)
}

func TestOnBotMessage_NonTerminalKeepsSearching(t *testing.T) {
	svc, _ := newTestSessionService(t)
	require.NoError(t, svc.SubmitQuery(context.Background(), "A"))

	svc.OnBotMessage("Looking for the best deals")

	snap := svc.Snapshot()
	assert.True(t, snap.Searching)
	assert.True(t, snap.Blocks[0].Loading)
	require.Len(t, snap.Transcript, 2)
	assert.Equal(t, domain.SenderBot, snap.Transcript[1].Sender)
}

func TestOnBotMessage_WithoutPendingBlock(t *testing.T) {
	svc, _ := newTestSessionService(t)

	svc.OnBotMessage("Goodbye")

	snap := svc.Snapshot()
	assert.Empty(t, snap.Blocks)
	assert.Len(t, snap.Transcript, 1)
}

func TestScenario_RedShoes(t *testing.T) {
	svc, _ := newTestSessionService(t)

	require.NoError(t, svc.SubmitQuery(context.Background(), "red shoes"))
	svc.OnProduct(domain.UpstreamRecord{"id": "p1", "name": "Red Sneaker", "price": "$49.99"})
	svc.OnProduct(domain.UpstreamRecord{"id": "p2", "name": "Red Loafer", "price": 65})
	svc.OnBotMessage("Here are some options")

	snap := svc.Snapshot()
	require.Len(t, snap.Blocks, 1)
	assert.False(t, snap.Blocks[0].Loading)
	assert.Equal(t, []string{"p1", "p2"}, productIDs(snap.Blocks[0]))
	assert.Equal(t, domain.BlockHasResults, snap.Blocks[0].State)
	assert.False(t, snap.Searching)
	assert.True(t, snap.HasResults)
}

func TestScenario_NoProducts(t *testing.T) {
	svc, _ := newTestSessionService(t)

	require.NoError(t, svc.SubmitQuery(context.Background(), "xyz123"))
	svc.OnBotMessage("Sorry, no products found")

	snap := svc.Snapshot()
	require.Len(t, snap.Blocks, 1)
	assert.False(t, snap.Blocks[0].Loading)
	assert.Empty(t, snap.Blocks[0].Products)
	assert.Equal(t, domain.BlockEmptyComplete, snap.Blocks[0].State)
	assert.False(t, snap.Searching)
}

func TestScenario_DisconnectKeepsHistory(t *testing.T) {
	svc, _ := newTestSessionService(t)
	svc.OnConnect()
	require.NoError(t, svc.SubmitQuery(context.Background(), "tents"))
	svc.OnProduct(domain.UpstreamRecord{"id": "t1"})
	before := svc.Snapshot()

	svc.OnDisconnect()
	mid := svc.Snapshot()
	assert.False(t, mid.Connected)
	assert.Equal(t, domain.ConnectionLostMessage, mid.Error)
	assert.Equal(t, before.Blocks, mid.Blocks)
	assert.Equal(t, before.Transcript, mid.Transcript)

	svc.OnConnect()
	after := svc.Snapshot()
	assert.True(t, after.Connected)
	assert.Empty(t, after.Error)
	assert.Equal(t, before.Blocks, after.Blocks)
}

func TestReset(t *testing.T) {
	svc, _ := newTestSessionService(t)
	svc.OnConnect()
	firstID := svc.Snapshot().ID
	require.NoError(t, svc.SubmitQuery(context.Background(), "A"))
	svc.OnBotMessage("working")

	svc.Reset()

	snap := svc.Snapshot()
	assert.NotEqual(t, firstID, snap.ID)
	assert.Empty(t, snap.Blocks)
	assert.Empty(t, snap.Transcript)
	assert.Nil(t, snap.Pending)
	assert.False(t, snap.Searching)
	assert.False(t, snap.HasResults)
	assert.Empty(t, snap.Error)
	assert.True(t, snap.Connected)
}

func TestSnapshot_IsACopy(t *testing.T) {
	svc, _ := newTestSessionService(t)
	require.NoError(t, svc.SubmitQuery(context.Background(), "A"))
	svc.OnProduct(domain.UpstreamRecord{"id": "p1"})

	snap := svc.Snapshot()
	snap.Blocks[0].Products[0].Name = "mutated"
	*snap.Pending = 9

	again := svc.Snapshot()
	assert.NotEqual(t, "mutated", again.Blocks[0].Products[0].Name)
	assert.Equal(t, 0, *again.Pending)
}

func TestSubscribe_ReceivesLatestSnapshot(t *testing.T) {
	svc, _ := newTestSessionService(t)
	updates, cancel := svc.Subscribe()

	require.NoError(t, svc.SubmitQuery(context.Background(), "A"))
	svc.OnProduct(domain.UpstreamRecord{"id": "p1"})

	snap := <-updates
	require.Len(t, snap.Blocks, 1)
	assert.Len(t, snap.Blocks[0].Products, 1)

	cancel()
	_, ok := <-updates
	assert.False(t, ok)
	assert.NotPanics(t, cancel)
	assert.NotPanics(t, svc.OnConnect)
}

func TestConcurrentEventsKeepInvariants(t *testing.T) {
	svc, _ := newTestSessionService(t)
	require.NoError(t, svc.SubmitQuery(context.Background(), "A"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			svc.OnProduct(domain.UpstreamRecord{"id": []string{"p1", "p2", "p3"}[i%3]})
		}(i)
		go func() {
			defer wg.Done()
			svc.OnBotMessage("still looking")
		}()
	}
	wg.Wait()

	snap := svc.Snapshot()
	assert.ElementsMatch(t, []string{"p1", "p2", "p3"}, productIDs(snap.Blocks[0]))
	assert.False(t, snap.Blocks[0].Loading)
	assert.Len(t, snap.Transcript, 51)
}
