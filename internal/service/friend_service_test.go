package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/ripplechat/ripple/internal/domain"
)

type friendFixture struct {
	svc       *FriendService
	requests  *fakeFriendRequestRepo
	chats     *fakeChatRepo
	notifier  *fakeNotifier
	notifRepo *fakeNotificationRepo
}

func newFriendFixture(users ...*domain.User) *friendFixture {
	chats := newFakeChatRepo()
	requests := newFakeFriendRequestRepo(chats)
	userRepo := newFakeUserRepo(users...)
	notifier := newFakeNotifier(nil)
	notifRepo := &fakeNotificationRepo{}
	notifications := NewNotificationService(notifRepo)
	notifications.SetNotifier(notifier)
	return &friendFixture{
		svc:       NewFriendService(requests, userRepo, notifications),
		requests:  requests,
		chats:     chats,
		notifier:  notifier,
		notifRepo: notifRepo,
	}
}

func TestSendFriendRequest(t *testing.T) {
	alice := testUser("alice")
	bob := testUser("bob")
	f := newFriendFixture(alice, bob)

	req, err := f.svc.Send(context.Background(), alice, bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if req.Status != domain.FriendRequestPending {
		t.Errorf("status = %q, want pending", req.Status)
	}

	got := f.notifier.notificationsFor(bob.ID)
	if len(got) != 1 {
		t.Fatalf("recipient notifications = %d, want 1", len(got))
	}
	if got[0].Kind != domain.NotifFriendRequest {
		t.Errorf("kind = %s", got[0].Kind)
	}
	if got[0].Content != "alice sent you a friend request." {
		t.Errorf("content = %q", got[0].Content)
	}
}

func TestSendFriendRequestToSelf(t *testing.T) {
	alice := testUser("alice")
	f := newFriendFixture(alice)

	if _, err := f.svc.Send(context.Background(), alice, alice.ID); !errors.Is(err, ErrSelfFriendRequest) {
		t.Errorf("err = %v, want ErrSelfFriendRequest", err)
	}
}

func TestSendDuplicateFriendRequest(t *testing.T) {
	alice := testUser("alice")
	bob := testUser("bob")
	f := newFriendFixture(alice, bob)

	if _, err := f.svc.Send(context.Background(), alice, bob.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Send(context.Background(), alice, bob.ID); !errors.Is(err, ErrRequestExists) {
		t.Errorf("err = %v, want ErrRequestExists", err)
	}
}

func TestSendFriendRequestUnknownUser(t *testing.T) {
	alice := testUser("alice")
	f := newFriendFixture(alice)

	if _, err := f.svc.Send(context.Background(), alice, uuid.New()); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestAcceptFriendRequest(t *testing.T) {
	alice := testUser("alice")
	bob := testUser("bob")
	f := newFriendFixture(alice, bob)

	req, err := f.svc.Send(context.Background(), alice, bob.ID)
	if err != nil {
		t.Fatal(err)
	}

	chat, err := f.svc.Accept(context.Background(), bob, req.ID)
	if err != nil {
		t.Fatal(err)
	}
	if chat == nil || !chat.HasParticipant(alice.ID) || !chat.HasParticipant(bob.ID) {
		t.Fatal("accepting must create the 1:1 chat between both users")
	}

	stored, _ := f.requests.GetByID(context.Background(), req.ID)
	if stored.Status != domain.FriendRequestAccepted {
		t.Errorf("status = %q, want accepted", stored.Status)
	}

	// The requester hears back, named after the accepter.
	got := f.notifier.notificationsFor(alice.ID)
	if len(got) != 1 {
		t.Fatalf("requester notifications = %d, want 1", len(got))
	}
	if got[0].Content != "bob accepted your friend request." {
		t.Errorf("content = %q", got[0].Content)
	}
}

func TestAcceptByNonRecipient(t *testing.T) {
	alice := testUser("alice")
	bob := testUser("bob")
	f := newFriendFixture(alice, bob)

	req, err := f.svc.Send(context.Background(), alice, bob.ID)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.Accept(context.Background(), alice, req.ID); !errors.Is(err, ErrNotRequestRecipient) {
		t.Errorf("err = %v, want ErrNotRequestRecipient", err)
	}
}

func TestRejectFriendRequest(t *testing.T) {
	alice := testUser("alice")
	bob := testUser("bob")
	f := newFriendFixture(alice, bob)

	req, err := f.svc.Send(context.Background(), alice, bob.ID)
	if err != nil {
		t.Fatal(err)
	}

	if err := f.svc.Reject(context.Background(), bob, req.ID); err != nil {
		t.Fatal(err)
	}

	stored, _ := f.requests.GetByID(context.Background(), req.ID)
	if stored.Status != domain.FriendRequestRejected {
		t.Errorf("status = %q, want rejected", stored.Status)
	}

	got := f.notifier.notificationsFor(alice.ID)
	if len(got) != 1 {
		t.Fatalf("requester notifications = %d, want 1", len(got))
	}
	if got[0].Content != "bob rejected your friend request." {
		t.Errorf("content = %q", got[0].Content)
	}

	// Rejection leaves no chat behind.
	if len(f.chats.chats) != 0 {
		t.Error("rejecting must not create a chat")
	}
}

func TestSettledRequestCannotBeReplayed(t *testing.T) {
	alice := testUser("alice")
	bob := testUser("bob")
	f := newFriendFixture(alice, bob)

	req, err := f.svc.Send(context.Background(), alice, bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Accept(context.Background(), bob, req.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.Accept(context.Background(), bob, req.ID); !errors.Is(err, ErrRequestSettled) {
		t.Errorf("second accept err = %v, want ErrRequestSettled", err)
	}
	if err := f.svc.Reject(context.Background(), bob, req.ID); !errors.Is(err, ErrRequestSettled) {
		t.Errorf("reject after accept err = %v, want ErrRequestSettled", err)
	}
}

func TestListIncomingOnlyPending(t *testing.T) {
	alice := testUser("alice")
	bob := testUser("bob")
	carol := testUser("carol")
	f := newFriendFixture(alice, bob, carol)

	reqFromAlice, err := f.svc.Send(context.Background(), alice, carol.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Send(context.Background(), bob, carol.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Accept(context.Background(), carol, reqFromAlice.ID); err != nil {
		t.Fatal(err)
	}

	incoming, err := f.svc.ListIncoming(context.Background(), carol.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(incoming) != 1 {
		t.Fatalf("incoming = %d, want only the still-pending one", len(incoming))
	}
	if incoming[0].FromID != bob.ID {
		t.Error("wrong request listed")
	}
}
