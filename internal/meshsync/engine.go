package meshsync

import (
	"context"
	"sync"
	"time"

	"meshbbs/internal/logging"
	"meshbbs/internal/models"
	"meshbbs/internal/storage/channels"
	"meshbbs/internal/transport"
)

// protocolVersion is the tag carried in peer announcements.
const protocolVersion = "1.0"

// RecordStore is the slice of the storage layer the engine consumes. Tests
// substitute fakes; production wires the sqlite repositories.
type RecordStore interface {
	CreateBulletin(ctx context.Context, b *models.Bulletin) error
	BulletinByUniqueID(ctx context.Context, uniqueID string) (*models.Bulletin, error)
	BulletinsSince(ctx context.Context, t time.Time) ([]*models.Bulletin, error)

	AddChannel(ctx context.Context, c *models.Channel) error
	UpdateChannel(ctx context.Context, id int64, u channels.Update, addedAt time.Time) error
	ChannelByNameFreq(ctx context.Context, name, frequency string) (*models.Channel, error)
	ChannelsSince(ctx context.Context, t time.Time) ([]*models.Channel, error)
}

// Sender is the one transport capability the engine needs.
type Sender interface {
	Send(ctx context.Context, to string, content string) error
}

// Config tunes the engine. Zero-valued durations get defaults.
type Config struct {
	NodeID   string
	NodeName string
	Enabled  bool

	// Interval is both the throttle window per peer and the cadence of
	// automatic full sweeps.
	Interval time.Duration

	// PacingDelay spaces consecutive requests during a sweep so the shared
	// radio channel is not saturated.
	PacingDelay time.Duration

	// PendingTTL bounds how long an unacknowledged request is remembered.
	PendingTTL time.Duration

	// TickInterval is the scheduler wake-up cadence.
	TickInterval time.Duration

	// MaxAgeDays bounds how far back a first exchange reaches when a peer
	// has no sync cursor yet. Auto-registered peers inherit it.
	MaxAgeDays int
}

func (c *Config) withDefaults() {
	if c.Interval <= 0 {
		c.Interval = time.Hour
	}
	if c.PacingDelay <= 0 {
		c.PacingDelay = 2 * time.Second
	}
	if c.PendingTTL <= 0 {
		c.PendingTTL = 10 * time.Minute
	}
	if c.TickInterval <= 0 {
		c.TickInterval = time.Minute
	}
	if c.MaxAgeDays <= 0 {
		c.MaxAgeDays = 7
	}
}

// HistoryEntry records the outcome of one completed exchange.
type HistoryEntry struct {
	PeerID    string    `json:"peer_id"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
}

// Status is the introspection snapshot surfaced to operators.
type Status struct {
	Enabled       bool           `json:"enabled"`
	Peers         int            `json:"peers"`
	PendingSyncs  int            `json:"pending_syncs"`
	LastSyncCheck time.Time      `json:"last_sync_check"`
	SyncHistory   []HistoryEntry `json:"sync_history"`
}

type pendingSync struct {
	peerID string
	sentAt time.Time
	msg    *SyncMessage
}

// Engine is the synchronization state machine. One instance runs per
// gateway; handlers and the background scheduler may run on different
// goroutines, so shared bookkeeping is guarded by mu.
type Engine struct {
	cfg      Config
	codec    *Codec
	store    RecordStore
	sender   Sender
	registry *Registry
	logger   logging.Logger

	now func() time.Time

	mu            sync.Mutex
	pending       map[string]pendingSync
	history       []HistoryEntry
	lastSyncCheck time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewEngine wires the engine to its collaborators. All dependencies are
// explicit; nothing global.
func NewEngine(cfg Config, store RecordStore, sender Sender, registry *Registry, logger logging.Logger) *Engine {
	cfg.withDefaults()
	return &Engine{
		cfg:      cfg,
		codec:    NewCodec(logger),
		store:    store,
		sender:   sender,
		registry: registry,
		logger:   logger.With("component", "meshsync"),
		now:      time.Now,
		pending:  make(map[string]pendingSync),
	}
}

// Registry exposes the peer table for manual management.
func (e *Engine) Registry() *Registry { return e.registry }

// HandleMessage is the single inbound entry point. It returns true when the
// message was sync traffic addressed to (or heard by) this node, false when
// the caller should keep treating it as ordinary mesh traffic. Handler
// failures are contained here; nothing a peer sends can propagate an error
// or panic across this boundary.
func (e *Engine) HandleMessage(ctx context.Context, senderID, content string) bool {
	msg := e.codec.Decode(ctx, content)
	if msg == nil {
		return false
	}

	// Directed traffic for somebody else is not ours to act on.
	if msg.Recipient != "" && msg.Recipient != e.cfg.NodeID {
		return false
	}

	// Our own broadcasts come back to us; swallow them or we loop forever.
	if msg.Sender == e.cfg.NodeID || senderID == e.cfg.NodeID {
		return true
	}

	e.dispatch(ctx, msg)
	return true
}

func (e *Engine) dispatch(ctx context.Context, msg *SyncMessage) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error(ctx, "sync handler panicked", "sync_type", msg.Type, "sender", msg.Sender, "panic", r)
		}
	}()

	switch msg.Type {
	case TypePeerDiscovery:
		e.handleDiscovery(ctx, msg)
	case TypePeerAnnounce:
		e.handleAnnounce(ctx, msg)
	case TypeSyncRequest:
		e.handleSyncRequest(ctx, msg)
	case TypeSyncResponse:
		e.handleSyncResponse(ctx, msg)
	case TypeSyncAck:
		e.handleSyncAck(ctx, msg)
	case TypeBulletinSync, TypeMailSync, TypeChannelSync:
		// Reserved kinds: accepted, nothing to do yet.
		e.logger.Debug(ctx, "ignoring reserved sync kind", "sync_type", msg.Type, "sender", msg.Sender)
	}
}

// handleDiscovery answers a who-is-out-there broadcast with a directed
// announcement. Discovery alone never registers the asker; only its
// follow-up announce does.
func (e *Engine) handleDiscovery(ctx context.Context, msg *SyncMessage) {
	e.logger.Debug(ctx, "discovery heard", "from", msg.Sender)
	e.send(ctx, e.newMessage(TypePeerAnnounce, msg.Sender, e.announcePayload()))
}

// handleAnnounce auto-registers unknown peers with default preferences.
// Known peers are left untouched: the local operator's configuration wins
// over whatever a re-announce claims.
func (e *Engine) handleAnnounce(ctx context.Context, msg *SyncMessage) {
	if e.registry.Get(msg.Sender) != nil {
		return
	}

	name := ""
	if p, ok := msg.Payload.(*AnnouncePayload); ok {
		name = p.Name
	}
	peer := models.NewPeer(msg.Sender, name)
	peer.MaxSyncAgeDays = e.cfg.MaxAgeDays
	e.registry.Add(peer)
	e.logger.Info(ctx, "peer auto-registered", "peer", msg.Sender, "name", peer.Name)
}

// handleSyncRequest is the responder side: gather records newer than the
// requester's cursor and send them back. A failing category is omitted, not
// fatal to the whole response.
func (e *Engine) handleSyncRequest(ctx context.Context, msg *SyncMessage) {
	peer := e.registry.Get(msg.Sender)
	if peer == nil || !peer.SyncEnabled {
		e.logger.Debug(ctx, "sync request from unknown or disabled peer", "peer", msg.Sender)
		return
	}
	req, ok := msg.Payload.(*RequestPayload)
	if !ok {
		return
	}

	maxAge := req.MaxAgeDays
	if maxAge <= 0 {
		maxAge = peer.MaxSyncAgeDays
	}
	since := e.now().AddDate(0, 0, -maxAge)
	if req.LastSync != nil {
		since = *req.LastSync
	}

	resp := &ResponsePayload{
		Bulletins: []*models.Bulletin{},
		Channels:  []*models.Channel{},
		Mail:      []struct{}{},
	}

	if req.SyncBulletins {
		if list, err := e.store.BulletinsSince(ctx, since); err != nil {
			e.logger.Warn(ctx, "bulletin read failed, omitting category", "peer", msg.Sender, "error", err)
		} else {
			resp.Bulletins = list
		}
	}
	if req.SyncChannels {
		if list, err := e.store.ChannelsSince(ctx, since); err != nil {
			e.logger.Warn(ctx, "channel read failed, omitting category", "peer", msg.Sender, "error", err)
		} else {
			resp.Channels = list
		}
	}
	// Mail is deliberately never included.

	e.logger.Info(ctx, "answering sync request", "peer", msg.Sender,
		"bulletins", len(resp.Bulletins), "channels", len(resp.Channels))
	e.send(ctx, e.newMessage(TypeSyncResponse, msg.Sender, resp))
}

// handleSyncResponse is the requester side: reconcile every record in the
// payload, then close the exchange with an acknowledgment. Responses only
// ever follow our own requests, so one from an unknown or disabled peer is
// unsolicited and dropped before it can write anything.
func (e *Engine) handleSyncResponse(ctx context.Context, msg *SyncMessage) {
	peer := e.registry.Get(msg.Sender)
	if peer == nil || !peer.SyncEnabled {
		e.logger.Debug(ctx, "sync response from unknown or disabled peer", "peer", msg.Sender)
		return
	}
	resp, ok := msg.Payload.(*ResponsePayload)
	if !ok {
		return
	}

	var conflicts []string
	conflicts = append(conflicts, e.reconcileBulletins(ctx, msg.Sender, resp.Bulletins)...)
	conflicts = append(conflicts, e.reconcileChannels(ctx, msg.Sender, resp.Channels)...)

	now := e.now()
	e.mu.Lock()
	peer.LastSync = &now
	e.mu.Unlock()
	e.appendHistory(HistoryEntry{PeerID: msg.Sender, Timestamp: now, Success: len(conflicts) == 0})

	for _, c := range conflicts {
		e.logger.Warn(ctx, "unresolved sync conflict", "peer", msg.Sender, "conflict", c)
	}
	e.logger.Info(ctx, "sync response processed", "peer", msg.Sender,
		"bulletins", len(resp.Bulletins), "channels", len(resp.Channels), "conflicts", len(conflicts))

	e.send(ctx, e.newMessage(TypeSyncAck, msg.Sender, &AckPayload{
		Success:   len(conflicts) == 0,
		Conflicts: len(conflicts),
		Timestamp: now,
	}))
}

// handleSyncAck clears pending bookkeeping for the acknowledging peer. The
// match is by peer id, not sync id: concurrent requests to one peer are
// conflated, which is acceptable because the entries are pure bookkeeping.
// A reported failure triggers no retry; the next scheduled round covers it.
func (e *Engine) handleSyncAck(ctx context.Context, msg *SyncMessage) {
	e.mu.Lock()
	for id, p := range e.pending {
		if p.peerID == msg.Sender {
			delete(e.pending, id)
		}
	}
	e.mu.Unlock()

	if ack, ok := msg.Payload.(*AckPayload); ok {
		e.logger.Info(ctx, "sync acknowledged", "peer", msg.Sender, "success", ack.Success, "conflicts", ack.Conflicts)
	}
}

// SyncWithPeer issues one sync request to a registered peer. It returns
// false only for unknown or disabled peers. A peer synced within the
// configured interval is skipped without a send unless force is set; that
// still counts as success, matching the fire-and-forget contract where
// "issued" rather than "delivered" is the completion criterion.
func (e *Engine) SyncWithPeer(ctx context.Context, peerID string, force bool) bool {
	peer := e.registry.Get(peerID)
	if peer == nil || !peer.SyncEnabled {
		return false
	}

	e.mu.Lock()
	lastSync := peer.LastSync
	e.mu.Unlock()
	if !force && lastSync != nil && e.now().Sub(*lastSync) < e.cfg.Interval {
		e.logger.Debug(ctx, "sync throttled", "peer", peerID)
		return true
	}

	req := &RequestPayload{
		LastSync:      lastSync,
		SyncBulletins: peer.SyncBulletins,
		SyncMail:      peer.SyncMail,
		SyncChannels:  peer.SyncChannels,
		MaxAgeDays:    peer.MaxSyncAgeDays,
	}
	msg := e.newMessage(TypeSyncRequest, peerID, req)

	// Mark the peer synced at issue time so repeated calls inside the window
	// collapse into one request; the response handler refreshes the cursor.
	now := e.now()
	e.mu.Lock()
	e.pending[msg.SyncID] = pendingSync{peerID: peerID, sentAt: now, msg: msg}
	peer.LastSync = &now
	e.mu.Unlock()

	e.logger.Info(ctx, "sync request sent", "peer", peerID, "sync_id", msg.SyncID)
	e.send(ctx, msg)
	return true
}

// SyncAllPeers sweeps every registered peer in registration order, pacing
// sends apart so the channel is not saturated. The returned count includes
// throttled-but-skipped peers, per the SyncWithPeer contract.
func (e *Engine) SyncAllPeers(ctx context.Context, force bool) int {
	count := 0
	for _, peer := range e.registry.All() {
		if e.SyncWithPeer(ctx, peer.NodeID, force) {
			count++
			if e.cfg.PacingDelay > 0 {
				time.Sleep(e.cfg.PacingDelay)
			}
		}
	}
	return count
}

// AnnounceToNetwork broadcasts this node's announcement.
func (e *Engine) AnnounceToNetwork(ctx context.Context) {
	e.send(ctx, e.newMessage(TypePeerAnnounce, "", e.announcePayload()))
}

// DiscoverPeers broadcasts a discovery probe.
func (e *Engine) DiscoverPeers(ctx context.Context) {
	e.send(ctx, e.newMessage(TypePeerDiscovery, "", &DiscoveryPayload{
		RequestingNode: e.cfg.NodeID,
		Timestamp:      e.now(),
	}))
}

// Status returns the introspection snapshot: counts plus the last ten
// history entries.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	history := e.history
	if len(history) > 10 {
		history = history[len(history)-10:]
	}
	out := make([]HistoryEntry, len(history))
	copy(out, history)

	return Status{
		Enabled:       e.cfg.Enabled,
		Peers:         e.registry.Len(),
		PendingSyncs:  len(e.pending),
		LastSyncCheck: e.lastSyncCheck,
		SyncHistory:   out,
	}
}

// Start launches the background scheduler. Stop cancels it and waits for the
// loop to exit.
func (e *Engine) Start(ctx context.Context) {
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})
	go e.run(ctx)
	e.logger.Info(ctx, "sync scheduler started", "interval", e.cfg.Interval)
}

// Stop cancels the scheduler and blocks until the loop goroutine has exited,
// so no task outlives the engine.
func (e *Engine) Stop() {
	if e.stopCh == nil {
		return
	}
	close(e.stopCh)
	<-e.doneCh
	e.stopCh = nil
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.doneCh)

	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

// tick runs one scheduler iteration: sweep if the interval has elapsed, then
// reap stale pending entries. A bad iteration is logged and survived; only
// cancellation stops the loop.
func (e *Engine) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error(ctx, "scheduler iteration panicked", "panic", r)
		}
	}()

	now := e.now()

	e.mu.Lock()
	due := e.cfg.Enabled && now.Sub(e.lastSyncCheck) >= e.cfg.Interval
	if due {
		e.lastSyncCheck = now
	}
	e.mu.Unlock()

	if due {
		sent := e.SyncAllPeers(ctx, false)
		e.logger.Info(ctx, "scheduled sync sweep", "peers", sent)
	}

	e.reapPending(ctx, now)
}

// reapPending garbage-collects requests never acknowledged within the TTL.
// This is bookkeeping, not a retry: the caller of the original sync sees no
// error.
func (e *Engine) reapPending(ctx context.Context, now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for id, p := range e.pending {
		if now.Sub(p.sentAt) > e.cfg.PendingTTL {
			delete(e.pending, id)
			e.logger.Debug(ctx, "reaped stale pending sync", "peer", p.peerID, "sync_id", id)
		}
	}
}

func (e *Engine) appendHistory(entry HistoryEntry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = append(e.history, entry)
}

func (e *Engine) announcePayload() *AnnouncePayload {
	return &AnnouncePayload{
		Name: e.cfg.NodeName,
		Capabilities: Capabilities{
			Bulletins: true,
			Mail:      true,
			Channels:  true,
		},
		Version: protocolVersion,
	}
}

func (e *Engine) newMessage(t SyncType, recipient string, payload any) *SyncMessage {
	return &SyncMessage{
		Type:      t,
		Sender:    e.cfg.NodeID,
		Recipient: recipient,
		Timestamp: e.now(),
		SyncID:    NewSyncID(),
		Payload:   payload,
	}
}

// send encodes and fires the message. Transport errors are logged and
// swallowed; there is no delivery guarantee to lose.
func (e *Engine) send(ctx context.Context, m *SyncMessage) {
	text, err := e.codec.Encode(m)
	if err != nil {
		e.logger.Error(ctx, "failed to encode sync message", "sync_type", m.Type, "error", err)
		return
	}
	to := m.Recipient
	if to == "" {
		to = transport.Broadcast
	}
	if err := e.sender.Send(ctx, to, text); err != nil {
		e.logger.Warn(ctx, "sync send failed", "sync_type", m.Type, "to", to, "error", err)
	}
}
