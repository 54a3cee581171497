package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/ripplechat/ripple/internal/domain"
)

// The fakes share an ordered call log so tests can assert sequencing
// across collaborators.

type callLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *callLog) add(entry string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

type fakeChatRepo struct {
	log    *callLog
	chats  map[uuid.UUID]*domain.Chat
	unread map[uuid.UUID]map[uuid.UUID]int

	incrementCalls int
	lastIncrement  []uuid.UUID
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		log:    &callLog{},
		chats:  make(map[uuid.UUID]*domain.Chat),
		unread: make(map[uuid.UUID]map[uuid.UUID]int),
	}
}

func (r *fakeChatRepo) add(chat *domain.Chat) {
	r.chats[chat.ID] = chat
	counters := make(map[uuid.UUID]int)
	for _, id := range chat.ParticipantIDs {
		counters[id] = 0
	}
	r.unread[chat.ID] = counters
}

func (r *fakeChatRepo) Create(ctx context.Context, chat *domain.Chat) error {
	r.add(chat)
	return nil
}

func (r *fakeChatRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Chat, error) {
	return r.chats[id], nil
}

func (r *fakeChatRepo) GetOneOnOne(ctx context.Context, userA, userB uuid.UUID) (*domain.Chat, error) {
	for _, chat := range r.chats {
		if !chat.IsGroup && chat.HasParticipant(userA) && chat.HasParticipant(userB) {
			return chat, nil
		}
	}
	return nil, nil
}

func (r *fakeChatRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Chat, error) {
	var out []domain.Chat
	for _, chat := range r.chats {
		if chat.HasParticipant(userID) {
			out = append(out, *chat)
		}
	}
	return out, nil
}

func (r *fakeChatRepo) ParticipantIDs(ctx context.Context, chatID uuid.UUID) ([]uuid.UUID, error) {
	chat, ok := r.chats[chatID]
	if !ok {
		return nil, errors.New("chat not found")
	}
	return chat.ParticipantIDs, nil
}

func (r *fakeChatRepo) AddParticipant(ctx context.Context, chatID, userID uuid.UUID) error {
	chat := r.chats[chatID]
	chat.ParticipantIDs = append(chat.ParticipantIDs, userID)
	r.unread[chatID][userID] = 0
	return nil
}

func (r *fakeChatRepo) RemoveParticipant(ctx context.Context, chatID, userID uuid.UUID) error {
	chat := r.chats[chatID]
	var kept []uuid.UUID
	for _, id := range chat.ParticipantIDs {
		if id != userID {
			kept = append(kept, id)
		}
	}
	chat.ParticipantIDs = kept
	delete(r.unread[chatID], userID)
	return nil
}

func (r *fakeChatRepo) ResetUnread(ctx context.Context, chatID, userID uuid.UUID) error {
	if counters, ok := r.unread[chatID]; ok {
		if _, ok := counters[userID]; ok {
			counters[userID] = 0
		}
	}
	return nil
}

func (r *fakeChatRepo) IncrementUnread(ctx context.Context, chatID uuid.UUID, userIDs []uuid.UUID) error {
	r.incrementCalls++
	r.lastIncrement = append([]uuid.UUID(nil), userIDs...)
	for _, id := range userIDs {
		r.unread[chatID][id]++
	}
	return nil
}

type fakeUserRepo struct {
	users   map[uuid.UUID]*domain.User
	friends map[uuid.UUID][]domain.Profile
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	r := &fakeUserRepo{
		users:   make(map[uuid.UUID]*domain.User),
		friends: make(map[uuid.UUID][]domain.Profile),
	}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.users[id], nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) ListFriends(ctx context.Context, userID uuid.UUID) ([]domain.Profile, error) {
	return r.friends[userID], nil
}

func (r *fakeUserRepo) ListNonFriends(ctx context.Context, userID uuid.UUID, search string) ([]domain.Profile, error) {
	friendIDs := make(map[uuid.UUID]struct{})
	for _, f := range r.friends[userID] {
		friendIDs[f.ID] = struct{}{}
	}

	var out []domain.Profile
	for _, u := range r.users {
		if u.ID == userID {
			continue
		}
		if _, ok := friendIDs[u.ID]; ok {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(u.Username), strings.ToLower(search)) {
			continue
		}
		out = append(out, u.Profile())
	}
	return out, nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	log      *callLog
	messages map[uuid.UUID]*domain.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{log: &callLog{}, messages: make(map[uuid.UUID]*domain.Message)}
}

func (r *fakeMessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log.add("persist:" + msg.ID.String())
	copied := *msg
	r.messages[msg.ID] = &copied
	return nil
}

func (r *fakeMessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[id]
	if !ok {
		return nil, nil
	}
	copied := *msg
	return &copied, nil
}

func (r *fakeMessageRepo) ListByChat(ctx context.Context, chatID, viewer uuid.UUID, before *uuid.UUID, limit int) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Message
	for _, msg := range r.messages {
		if msg.ChatID == chatID && msg.VisibleTo(viewer) {
			out = append(out, *msg)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) SetAttachments(ctx context.Context, id uuid.UUID, attachments []domain.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log.add("set_attachments")
	msg, ok := r.messages[id]
	if !ok {
		return errors.New("message not found")
	}
	msg.Attachments = attachments
	return nil
}

func (r *fakeMessageRepo) AddReaction(ctx context.Context, id uuid.UUID, reaction domain.Reaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg, ok := r.messages[id]
	if !ok {
		return errors.New("message not found")
	}
	msg.Reactions = append(msg.Reactions, reaction)
	return nil
}

func (r *fakeMessageRepo) MarkDeletedFor(ctx context.Context, ids []uuid.UUID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if msg, ok := r.messages[id]; ok {
			msg.DeletedBy = append(msg.DeletedBy, userID)
		}
	}
	return nil
}

func (r *fakeMessageRepo) MarkDeletedForAll(ctx context.Context, ids []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if msg, ok := r.messages[id]; ok {
			msg.IsDeletedForAll = true
		}
	}
	return nil
}

func (r *fakeMessageRepo) ClearChat(ctx context.Context, chatID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, msg := range r.messages {
		if msg.ChatID == chatID {
			delete(r.messages, id)
		}
	}
	return nil
}

type fakeFriendRequestRepo struct {
	requests map[uuid.UUID]*domain.FriendRequest
	chatRepo *fakeChatRepo
}

func newFakeFriendRequestRepo(chatRepo *fakeChatRepo) *fakeFriendRequestRepo {
	return &fakeFriendRequestRepo{
		requests: make(map[uuid.UUID]*domain.FriendRequest),
		chatRepo: chatRepo,
	}
}

func (r *fakeFriendRequestRepo) Create(ctx context.Context, req *domain.FriendRequest) error {
	copied := *req
	r.requests[req.ID] = &copied
	return nil
}

func (r *fakeFriendRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.FriendRequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, nil
	}
	copied := *req
	return &copied, nil
}

func (r *fakeFriendRequestRepo) GetPending(ctx context.Context, fromID, toID uuid.UUID) (*domain.FriendRequest, error) {
	for _, req := range r.requests {
		if req.FromID == fromID && req.ToID == toID && req.Status == domain.FriendRequestPending {
			copied := *req
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeFriendRequestRepo) ListIncoming(ctx context.Context, userID uuid.UUID) ([]domain.FriendRequest, error) {
	var out []domain.FriendRequest
	for _, req := range r.requests {
		if req.ToID == userID && req.Status == domain.FriendRequestPending {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (r *fakeFriendRequestRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	req, ok := r.requests[id]
	if !ok {
		return errors.New("request not found")
	}
	req.Status = status
	return nil
}

func (r *fakeFriendRequestRepo) Accept(ctx context.Context, req *domain.FriendRequest) (*domain.Chat, error) {
	if err := r.UpdateStatus(ctx, req.ID, domain.FriendRequestAccepted); err != nil {
		return nil, err
	}
	chat := &domain.Chat{
		ID:             uuid.New(),
		ParticipantIDs: []uuid.UUID{req.FromID, req.ToID},
	}
	r.chatRepo.add(chat)
	return chat, nil
}

type fakeNotificationRepo struct {
	mu         sync.Mutex
	created    []*domain.Notification
	failCreate bool
}

func (r *fakeNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return errors.New("store down")
	}
	r.created = append(r.created, n)
	return nil
}

func (r *fakeNotificationRepo) ListByReceiver(ctx context.Context, receiverID uuid.UUID) ([]domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Notification
	for _, n := range r.created {
		if n.ReceiverID == receiverID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, id, receiverID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.created {
		if n.ID == id && n.ReceiverID == receiverID {
			n.IsRead = true
		}
	}
	return nil
}

// fakePresence backs delivery tests with scripted room and connection state.
type fakePresence struct {
	members map[uuid.UUID]map[uuid.UUID]struct{}
	online  map[uuid.UUID]bool
}

func newFakePresence() *fakePresence {
	return &fakePresence{
		members: make(map[uuid.UUID]map[uuid.UUID]struct{}),
		online:  make(map[uuid.UUID]bool),
	}
}

func (p *fakePresence) view(chatID, userID uuid.UUID) {
	if p.members[chatID] == nil {
		p.members[chatID] = make(map[uuid.UUID]struct{})
	}
	p.members[chatID][userID] = struct{}{}
	p.online[userID] = true
}

func (p *fakePresence) MembersOf(chatID uuid.UUID) map[uuid.UUID]struct{} {
	out := make(map[uuid.UUID]struct{})
	for id := range p.members[chatID] {
		out[id] = struct{}{}
	}
	return out
}

func (p *fakePresence) IsOnline(userID uuid.UUID) bool {
	return p.online[userID]
}

type fakeNotifier struct {
	mu sync.Mutex

	log *callLog

	pending        []uuid.UUID
	received       []uuid.UUID
	roomBroadcasts []uuid.UUID
	unread         []uuid.UUID
	attachments    []uuid.UUID
	reacted        []uuid.UUID
	notifications  []*domain.Notification
	deleted        []bool
}

func newFakeNotifier(log *callLog) *fakeNotifier {
	if log == nil {
		log = &callLog{}
	}
	return &fakeNotifier{log: log}
}

func (n *fakeNotifier) MessagePending(receiverID uuid.UUID, msg *domain.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.log.add("pending:" + msg.ID.String())
	n.pending = append(n.pending, receiverID)
}

func (n *fakeNotifier) MessageReceived(receiverID uuid.UUID, msg *domain.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.received = append(n.received, receiverID)
}

func (n *fakeNotifier) MessageReceivedRoom(chatID uuid.UUID, msg *domain.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.roomBroadcasts = append(n.roomBroadcasts, chatID)
}

func (n *fakeNotifier) UnreadMessage(receiverID, chatID uuid.UUID, msg *domain.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.unread = append(n.unread, receiverID)
}

func (n *fakeNotifier) MessageAttachmentsUpdated(chatID uuid.UUID, msg *domain.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.log.add("attachments_updated")
	n.attachments = append(n.attachments, chatID)
}

func (n *fakeNotifier) MessageDeleted(chatID, deletedBy uuid.UUID, messageIDs []uuid.UUID, forAll bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deleted = append(n.deleted, forAll)
}

func (n *fakeNotifier) MessageReacted(chatID uuid.UUID, msg *domain.Message, reaction domain.Reaction) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reacted = append(n.reacted, chatID)
}

func (n *fakeNotifier) Notification(receiverID uuid.UUID, notif *domain.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = append(n.notifications, notif)
}

func (n *fakeNotifier) notificationsFor(receiverID uuid.UUID) []*domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []*domain.Notification
	for _, notif := range n.notifications {
		if notif.ReceiverID == receiverID {
			out = append(out, notif)
		}
	}
	return out
}

// fakeUploader resolves every blob unless the filename starts with "fail".
type fakeUploader struct {
	mu       sync.Mutex
	uploaded []string
}

func (u *fakeUploader) Upload(ctx context.Context, data []byte, key, fileName string) (domain.Attachment, error) {
	if strings.HasPrefix(fileName, "fail") {
		return domain.Attachment{}, errors.New("upload failed")
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.uploaded = append(u.uploaded, key)
	return domain.Attachment{
		URL:       "https://files.test/" + key,
		FileName:  fileName,
		StorageID: key,
	}, nil
}
