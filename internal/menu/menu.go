// Package menu implements the interactive BBS surface. Every direct
// message from a mesh user is routed through a per-sender session state
// machine; replies are kept short because they travel over LoRa.
package menu

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"meshbbs/internal/games"
	"meshbbs/internal/logging"
	"meshbbs/internal/meshsync"
	"meshbbs/internal/models"
	"meshbbs/internal/storage/bulletins"
	"meshbbs/internal/storage/channels"
	"meshbbs/internal/storage/mail"
)

// Boards is the fixed set of bulletin boards.
var Boards = []string{"General", "Info", "News", "Urgent"}

// StatusProvider surfaces sync state for the STATS screen.
type StatusProvider interface {
	Status() meshsync.Status
}

type state int

const (
	stateMain state = iota
	stateBoards
	stateBulletins
	statePostSubject
	statePostBody
	stateMail
	stateMailTo
	stateMailSubject
	stateMailBody
	stateChannels
	stateChannelAdd
	stateGames
	stateGame
)

type draft struct {
	recipient string
	subject   string
}

type session struct {
	state   state
	name    string
	board   string
	listing []*models.Bulletin
	mailbox []*models.MailMessage
	draft   draft
	game    games.Game
}

// Menu routes direct messages into BBS screens.
type Menu struct {
	bbsName   string
	bulletins bulletins.Repository
	channels  channels.Repository
	mail      mail.Repository
	sync      StatusProvider
	logger    logging.Logger

	now func() time.Time
	rng *rand.Rand

	mu       sync.Mutex
	sessions map[string]*session
}

// New builds the menu router. sync may be nil when the engine is disabled.
func New(bbsName string, b bulletins.Repository, c channels.Repository, m mail.Repository, sync StatusProvider, logger logging.Logger) *Menu {
	return &Menu{
		bbsName:   bbsName,
		bulletins: b,
		channels:  c,
		mail:      m,
		sync:      sync,
		logger:    logger.With("component", "menu"),
		now:       time.Now,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		sessions:  make(map[string]*session),
	}
}

// Handle consumes one direct message and returns the reply text.
func (m *Menu) Handle(ctx context.Context, senderID, senderName, text string) string {
	m.mu.Lock()
	s, ok := m.sessions[senderID]
	if !ok {
		s = &session{state: stateMain}
		m.sessions[senderID] = s
	}
	if senderName != "" {
		s.name = senderName
	}
	m.mu.Unlock()

	in := strings.TrimSpace(text)
	if !ok {
		// First contact gets the banner regardless of what they sent.
		return m.banner(ctx, senderID)
	}

	switch s.state {
	case stateMain:
		return m.handleMain(ctx, senderID, s, in)
	case stateBoards:
		return m.handleBoards(ctx, senderID, s, in)
	case stateBulletins:
		return m.handleBulletins(ctx, senderID, s, in)
	case statePostSubject:
		s.draft.subject = in
		s.state = statePostBody
		return "Message text?"
	case statePostBody:
		return m.postBulletin(ctx, senderID, s, in)
	case stateMail:
		return m.handleMail(ctx, senderID, s, in)
	case stateMailTo:
		s.draft.recipient = in
		s.state = stateMailSubject
		return "Subject?"
	case stateMailSubject:
		s.draft.subject = in
		s.state = stateMailBody
		return "Message text?"
	case stateMailBody:
		return m.sendMail(ctx, senderID, s, in)
	case stateChannels:
		return m.handleChannels(ctx, senderID, s, in)
	case stateChannelAdd:
		return m.addChannel(ctx, senderID, s, in)
	case stateGames:
		return m.handleGames(s, in)
	case stateGame:
		reply, done := s.game.Handle(in)
		if done {
			s.game = nil
			s.state = stateMain
			reply += "\n" + mainPrompt
		}
		return reply
	}
	s.state = stateMain
	return mainPrompt
}

const mainPrompt = "[B]ulletins [M]ail [C]hannels [S]tats [G]ames [H]elp [X]exit"

func (m *Menu) banner(ctx context.Context, senderID string) string {
	unread, err := m.mail.CountUnread(ctx, senderID)
	if err != nil {
		m.logger.Warn(ctx, "unread count failed", "sender", senderID, "error", err)
	}
	b := fmt.Sprintf("Welcome to %s!", m.bbsName)
	if unread > 0 {
		b += fmt.Sprintf(" You have %d unread mail.", unread)
	}
	return b + "\n" + mainPrompt
}

func (m *Menu) handleMain(ctx context.Context, senderID string, s *session, in string) string {
	switch strings.ToLower(in) {
	case "b", "bulletins":
		s.state = stateBoards
		lines := []string{"Boards:"}
		for i, name := range Boards {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, name))
		}
		lines = append(lines, "Pick a number, or X to go back.")
		return strings.Join(lines, "\n")
	case "m", "mail":
		return m.showInbox(ctx, senderID, s)
	case "c", "channels":
		return m.showChannels(ctx, s)
	case "s", "stats":
		return m.stats(ctx, senderID)
	case "g", "games":
		s.state = stateGames
		return "Games:\n1. Number Guess\n2. Blackjack\nPick a number, or X to go back."
	case "h", "?", "help":
		return "Send a letter to pick a section. Inside a section, numbers select items and X goes back.\n" + mainPrompt
	case "x", "exit", "bye":
		m.mu.Lock()
		delete(m.sessions, senderID)
		m.mu.Unlock()
		return "73! Message again any time."
	default:
		return mainPrompt
	}
}

func (m *Menu) handleBoards(ctx context.Context, senderID string, s *session, in string) string {
	if strings.EqualFold(in, "x") {
		s.state = stateMain
		return mainPrompt
	}
	idx, err := strconv.Atoi(in)
	if err != nil || idx < 1 || idx > len(Boards) {
		return fmt.Sprintf("Pick 1-%d, or X to go back.", len(Boards))
	}
	s.board = Boards[idx-1]
	return m.showBoard(ctx, s)
}

func (m *Menu) showBoard(ctx context.Context, s *session) string {
	// Boards are stored lowercased; s.board keeps the display casing.
	list, err := m.bulletins.ListByBoard(ctx, strings.ToLower(s.board), 10)
	if err != nil {
		m.logger.Error(ctx, "board listing failed", "board", s.board, "error", err)
		s.state = stateMain
		return "Board unavailable right now.\n" + mainPrompt
	}
	s.listing = list
	s.state = stateBulletins

	lines := []string{fmt.Sprintf("%s (%d):", s.board, len(list))}
	for i, b := range list {
		lines = append(lines, fmt.Sprintf("%d. %s - %s", i+1, b.Subject, b.SenderName))
	}
	if len(list) == 0 {
		lines = append(lines, "No posts yet.")
	}
	lines = append(lines, "Number to read, N for new post, X to go back.")
	return strings.Join(lines, "\n")
}

func (m *Menu) handleBulletins(ctx context.Context, senderID string, s *session, in string) string {
	switch strings.ToLower(in) {
	case "x":
		s.state = stateMain
		return mainPrompt
	case "n":
		s.state = statePostSubject
		return "Subject?"
	}
	idx, err := strconv.Atoi(in)
	if err != nil || idx < 1 || idx > len(s.listing) {
		return "Number to read, N for new post, X to go back."
	}
	b := s.listing[idx-1]
	if err := m.bulletins.MarkRead(ctx, b.ID, senderID); err != nil {
		m.logger.Warn(ctx, "mark read failed", "bulletin", b.ID, "error", err)
	}
	return fmt.Sprintf("%s\nFrom %s, %s\n%s", b.Subject, b.SenderName, b.Timestamp.Format("Jan 2 15:04"), b.Content)
}

func (m *Menu) postBulletin(ctx context.Context, senderID string, s *session, in string) string {
	now := m.now()
	name := s.name
	if name == "" {
		name = senderID
	}
	b := &models.Bulletin{
		Board:      strings.ToLower(s.board),
		SenderID:   senderID,
		SenderName: name,
		Subject:    s.draft.subject,
		Content:    in,
		Timestamp:  now,
		UniqueID:   models.Fingerprint(in, senderID, now),
	}
	s.draft = draft{}
	if err := m.bulletins.Create(ctx, b); err != nil {
		m.logger.Error(ctx, "bulletin create failed", "sender", senderID, "error", err)
		s.state = stateMain
		return "Could not save your post.\n" + mainPrompt
	}
	return "Posted to " + s.board + ".\n" + m.showBoard(ctx, s)
}

func (m *Menu) showInbox(ctx context.Context, senderID string, s *session) string {
	list, err := m.mail.ListForRecipient(ctx, senderID)
	if err != nil {
		m.logger.Error(ctx, "inbox listing failed", "sender", senderID, "error", err)
		return "Mail unavailable right now.\n" + mainPrompt
	}
	s.mailbox = list
	s.state = stateMail

	lines := []string{fmt.Sprintf("Inbox (%d):", len(list))}
	for i, msg := range list {
		flag := " "
		if !msg.Read {
			flag = "*"
		}
		lines = append(lines, fmt.Sprintf("%d.%s %s - %s", i+1, flag, msg.Subject, msg.SenderName))
	}
	if len(list) == 0 {
		lines = append(lines, "Empty.")
	}
	lines = append(lines, "Number to read, D<n> to delete, N for new, X to go back.")
	return strings.Join(lines, "\n")
}

func (m *Menu) handleMail(ctx context.Context, senderID string, s *session, in string) string {
	low := strings.ToLower(in)
	switch low {
	case "x":
		s.state = stateMain
		return mainPrompt
	case "n":
		s.state = stateMailTo
		return "Recipient node id (like !a1b2c3d4)?"
	}
	if strings.HasPrefix(low, "d") {
		idx, err := strconv.Atoi(strings.TrimSpace(low[1:]))
		if err != nil || idx < 1 || idx > len(s.mailbox) {
			return "D<n> deletes message n."
		}
		if err := m.mail.Delete(ctx, s.mailbox[idx-1].ID); err != nil {
			m.logger.Warn(ctx, "mail delete failed", "id", s.mailbox[idx-1].ID, "error", err)
			return "Could not delete that message."
		}
		return "Deleted.\n" + m.showInbox(ctx, senderID, s)
	}
	idx, err := strconv.Atoi(in)
	if err != nil || idx < 1 || idx > len(s.mailbox) {
		return "Number to read, D<n> to delete, N for new, X to go back."
	}
	msg := s.mailbox[idx-1]
	if err := m.mail.MarkRead(ctx, msg.ID); err != nil {
		m.logger.Warn(ctx, "mail mark read failed", "id", msg.ID, "error", err)
	}
	return fmt.Sprintf("%s\nFrom %s, %s\n%s", msg.Subject, msg.SenderName, msg.Timestamp.Format("Jan 2 15:04"), msg.Content)
}

func (m *Menu) sendMail(ctx context.Context, senderID string, s *session, in string) string {
	name := s.name
	if name == "" {
		name = senderID
	}
	msg := &models.MailMessage{
		SenderID:    senderID,
		SenderName:  name,
		RecipientID: s.draft.recipient,
		Subject:     s.draft.subject,
		Content:     in,
		Timestamp:   m.now(),
	}
	s.draft = draft{}
	s.state = stateMain
	if err := m.mail.Create(ctx, msg); err != nil {
		m.logger.Error(ctx, "mail create failed", "sender", senderID, "error", err)
		return "Could not send your mail.\n" + mainPrompt
	}
	return "Mail queued for " + msg.RecipientID + ". They will see it on their next visit.\n" + mainPrompt
}

func (m *Menu) showChannels(ctx context.Context, s *session) string {
	list, err := m.channels.GetAll(ctx, true)
	if err != nil {
		m.logger.Error(ctx, "channel listing failed", "error", err)
		return "Channel directory unavailable right now.\n" + mainPrompt
	}
	s.state = stateChannels

	lines := []string{fmt.Sprintf("Channels (%d):", len(list))}
	for _, c := range list {
		line := fmt.Sprintf("%s %s", c.Name, c.Frequency)
		if c.Tone != "" {
			line += " T" + c.Tone
		}
		if c.Location != "" {
			line += " @" + c.Location
		}
		lines = append(lines, line)
	}
	if len(list) == 0 {
		lines = append(lines, "Empty.")
	}
	lines = append(lines, "A to add one, X to go back.")
	return strings.Join(lines, "\n")
}

func (m *Menu) handleChannels(ctx context.Context, senderID string, s *session, in string) string {
	switch strings.ToLower(in) {
	case "x":
		s.state = stateMain
		return mainPrompt
	case "a":
		s.state = stateChannelAdd
		return "Send: name, frequency[, description]"
	default:
		return "A to add one, X to go back."
	}
}

func (m *Menu) addChannel(ctx context.Context, senderID string, s *session, in string) string {
	parts := strings.SplitN(in, ",", 3)
	if len(parts) < 2 {
		return "Send: name, frequency[, description]"
	}
	c := &models.Channel{
		Name:      strings.TrimSpace(parts[0]),
		Frequency: strings.TrimSpace(parts[1]),
		AddedBy:   senderID,
		AddedAt:   m.now(),
		Active:    true,
	}
	if len(parts) == 3 {
		c.Description = strings.TrimSpace(parts[2])
	}
	if c.Name == "" || c.Frequency == "" {
		return "Send: name, frequency[, description]"
	}
	if err := m.channels.Add(ctx, c); err != nil {
		m.logger.Error(ctx, "channel add failed", "sender", senderID, "error", err)
		s.state = stateChannels
		return "Could not save that channel."
	}
	return "Added " + c.Name + ".\n" + m.showChannels(ctx, s)
}

func (m *Menu) stats(ctx context.Context, senderID string) string {
	bc, err := m.bulletins.Count(ctx)
	if err != nil {
		m.logger.Warn(ctx, "bulletin count failed", "error", err)
	}
	cc, err := m.channels.Count(ctx)
	if err != nil {
		m.logger.Warn(ctx, "channel count failed", "error", err)
	}
	unread, err := m.mail.CountUnread(ctx, senderID)
	if err != nil {
		m.logger.Warn(ctx, "unread count failed", "error", err)
	}

	lines := []string{
		m.bbsName + " stats:",
		fmt.Sprintf("Bulletins: %d", bc),
		fmt.Sprintf("Channels: %d", cc),
		fmt.Sprintf("Your unread mail: %d", unread),
	}
	if m.sync != nil {
		st := m.sync.Status()
		lines = append(lines, fmt.Sprintf("Sync peers: %d, pending: %d", st.Peers, st.PendingSyncs))
	}
	lines = append(lines, mainPrompt)
	return strings.Join(lines, "\n")
}

func (m *Menu) handleGames(s *session, in string) string {
	switch strings.ToLower(in) {
	case "x":
		s.state = stateMain
		return mainPrompt
	case "1":
		s.game = games.NewNumberGuess(m.rng)
	case "2":
		bj := games.NewBlackjack(m.rng)
		if !bj.Started() {
			s.state = stateMain
			return bj.Start() + "\n" + mainPrompt
		}
		s.game = bj
	default:
		return "Pick 1 or 2, or X to go back."
	}
	s.state = stateGame
	return s.game.Start()
}
