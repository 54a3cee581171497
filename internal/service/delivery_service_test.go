package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/ripplechat/ripple/internal/domain"
)

func deliveryFixture() (*DeliveryService, *fakeChatRepo, *fakePresence, *fakeNotifier, *fakeNotificationRepo) {
	chatRepo := newFakeChatRepo()
	presence := newFakePresence()
	notifier := newFakeNotifier(nil)
	notifRepo := &fakeNotificationRepo{}
	notifications := NewNotificationService(notifRepo)
	notifications.SetNotifier(notifier)
	delivery := NewDeliveryService(chatRepo, presence, notifier, notifications)
	return delivery, chatRepo, presence, notifier, notifRepo
}

func testMessage(chatID, senderID uuid.UUID) *domain.Message {
	content := "hello"
	return &domain.Message{
		ID:       uuid.New(),
		ChatID:   chatID,
		SenderID: senderID,
		Content:  &content,
		Sender:   &domain.Profile{ID: senderID, Username: "sender"},
	}
}

func TestDeliverAllPresent(t *testing.T) {
	delivery, chatRepo, presence, notifier, _ := deliveryFixture()

	sender, a, b := uuid.New(), uuid.New(), uuid.New()
	chat := &domain.Chat{ID: uuid.New(), IsGroup: true, ParticipantIDs: []uuid.UUID{sender, a, b}}
	chatRepo.add(chat)
	for _, id := range chat.ParticipantIDs {
		presence.view(chat.ID, id)
	}

	msg := testMessage(chat.ID, sender)
	if err := delivery.Deliver(context.Background(), msg); err != nil {
		t.Fatal(err)
	}

	if len(notifier.roomBroadcasts) != 1 {
		t.Fatalf("room broadcasts = %d, want 1", len(notifier.roomBroadcasts))
	}
	if len(notifier.received) != 0 || len(notifier.unread) != 0 {
		t.Error("no personal pushes expected when everyone is viewing")
	}
	if chatRepo.incrementCalls != 0 {
		t.Error("no unread increments expected when everyone is viewing")
	}
}

func TestDeliverMixedPresence(t *testing.T) {
	delivery, chatRepo, presence, notifier, notifRepo := deliveryFixture()

	sender := uuid.New()
	viewing := uuid.New()         // in the room
	onlineElsewhere := uuid.New() // connected, different view
	offline := uuid.New()

	chat := &domain.Chat{ID: uuid.New(), IsGroup: true, ParticipantIDs: []uuid.UUID{sender, viewing, onlineElsewhere, offline}}
	chatRepo.add(chat)
	presence.view(chat.ID, sender)
	presence.view(chat.ID, viewing)
	presence.online[onlineElsewhere] = true

	msg := testMessage(chat.ID, sender)
	if err := delivery.Deliver(context.Background(), msg); err != nil {
		t.Fatal(err)
	}

	if len(notifier.roomBroadcasts) != 0 {
		t.Error("partial presence must not use the room broadcast path")
	}
	if len(notifier.received) != 1 || notifier.received[0] != viewing {
		t.Errorf("personal delivery = %v, want just the viewing participant", notifier.received)
	}

	// One bulk increment covering both absent participants.
	if chatRepo.incrementCalls != 1 {
		t.Fatalf("increment calls = %d, want 1", chatRepo.incrementCalls)
	}
	if len(chatRepo.lastIncrement) != 2 {
		t.Fatalf("incremented users = %v, want the two absent participants", chatRepo.lastIncrement)
	}
	if chatRepo.unread[chat.ID][onlineElsewhere] != 1 || chatRepo.unread[chat.ID][offline] != 1 {
		t.Error("both absent participants must gain one unread")
	}
	if chatRepo.unread[chat.ID][viewing] != 0 || chatRepo.unread[chat.ID][sender] != 0 {
		t.Error("viewing participant and sender must not gain unread")
	}

	// Only the online-but-elsewhere participant gets the unread push and a
	// classified notification; the offline one gets the counter only.
	if len(notifier.unread) != 1 || notifier.unread[0] != onlineElsewhere {
		t.Errorf("unread pushes = %v, want just the online absent participant", notifier.unread)
	}
	if got := notifier.notificationsFor(onlineElsewhere); len(got) != 1 {
		t.Errorf("notifications for online absent participant = %d, want 1", len(got))
	}
	if got := notifier.notificationsFor(offline); len(got) != 0 {
		t.Error("offline participant must not receive a live notification")
	}
	for _, n := range notifRepo.created {
		if n.ReceiverID == offline {
			t.Error("no notification record for fully offline participants")
		}
	}
}

func TestDeliverSenderExcluded(t *testing.T) {
	delivery, chatRepo, presence, notifier, _ := deliveryFixture()

	sender, other := uuid.New(), uuid.New()
	chat := &domain.Chat{ID: uuid.New(), ParticipantIDs: []uuid.UUID{sender, other}}
	chatRepo.add(chat)
	// Sender is online but not viewing; the recipient is viewing. Not all
	// participants are present, so fan-out goes per participant.
	presence.online[sender] = true
	presence.view(chat.ID, other)

	msg := testMessage(chat.ID, sender)
	if err := delivery.Deliver(context.Background(), msg); err != nil {
		t.Fatal(err)
	}

	for _, id := range notifier.received {
		if id == sender {
			t.Error("sender must not receive their own message")
		}
	}
	for _, id := range notifier.unread {
		if id == sender {
			t.Error("sender must not receive an unread push")
		}
	}
	if chatRepo.unread[chat.ID][sender] != 0 {
		t.Error("sender's unread counter must not move")
	}
}

func TestDeliverNotificationKindMatchesMessage(t *testing.T) {
	delivery, chatRepo, presence, notifier, _ := deliveryFixture()

	sender, receiver := uuid.New(), uuid.New()
	chat := &domain.Chat{ID: uuid.New(), ParticipantIDs: []uuid.UUID{sender, receiver}}
	chatRepo.add(chat)
	presence.online[receiver] = true

	msg := testMessage(chat.ID, sender)
	msg.MentionedIDs = []uuid.UUID{receiver}
	msg.IsAttachment = true
	if err := delivery.Deliver(context.Background(), msg); err != nil {
		t.Fatal(err)
	}

	got := notifier.notificationsFor(receiver)
	if len(got) != 1 {
		t.Fatalf("notifications = %d, want 1", len(got))
	}
	if got[0].Kind != domain.NotifMentionWithAttachment {
		t.Errorf("kind = %s, want %s", got[0].Kind, domain.NotifMentionWithAttachment)
	}
	if got[0].Content != "sender mentioned you with an attachment." {
		t.Errorf("content = %q", got[0].Content)
	}
}

func TestDeliverLivePushSurvivesStoreFailure(t *testing.T) {
	delivery, chatRepo, presence, notifier, notifRepo := deliveryFixture()
	notifRepo.failCreate = true

	sender, receiver := uuid.New(), uuid.New()
	chat := &domain.Chat{ID: uuid.New(), ParticipantIDs: []uuid.UUID{sender, receiver}}
	chatRepo.add(chat)
	presence.online[receiver] = true

	if err := delivery.Deliver(context.Background(), testMessage(chat.ID, sender)); err != nil {
		t.Fatal(err)
	}

	if got := notifier.notificationsFor(receiver); len(got) != 1 {
		t.Error("live notification must be pushed even when persistence fails")
	}
}
