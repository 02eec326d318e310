package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vantran/workchat/internal/feed"
	"github.com/vantran/workchat/internal/middleware"
	"github.com/vantran/workchat/internal/models"
)

var errMemberLoad = errors.New("members unavailable")

type fakeMessageStore struct {
	message    *models.Message
	members    []models.Member
	membersErr error
	updated    *models.Message
}

func (f *fakeMessageStore) SaveMessage(*models.Message) error { return nil }

func (f *fakeMessageStore) GetMessage(string) (*models.Message, error) { return f.message, nil }

func (f *fakeMessageStore) UpdateMessage(m *models.Message) error {
	f.updated = m
	return nil
}

func (f *fakeMessageStore) SoftDeleteMessage(string) error { return nil }

func (f *fakeMessageStore) SetMessagePinned(string, bool) error { return nil }

func (f *fakeMessageStore) GetRoomMessages(uuid.UUID, int, *time.Time) ([]models.Message, error) {
	return nil, nil
}

func (f *fakeMessageStore) GetPinnedMessages(uuid.UUID) ([]models.Message, error) {
	return nil, nil
}

func (f *fakeMessageStore) SearchMessages(uuid.UUID, *uuid.UUID, string, int) ([]models.Message, error) {
	return nil, nil
}

func (f *fakeMessageStore) TouchRoomPreview(*models.Message) error { return nil }

func (f *fakeMessageStore) GetMember(uuid.UUID, uuid.UUID) (*models.Member, error) {
	return nil, nil
}

func (f *fakeMessageStore) GetActiveMembers(uuid.UUID) ([]models.Member, error) {
	return f.members, f.membersErr
}

func (f *fakeMessageStore) IsActiveMember(uuid.UUID, uuid.UUID) (bool, error) { return true, nil }

func (f *fakeMessageStore) GetUser(string) (*models.User, error) { return nil, nil }

func editContext(t *testing.T, userID uuid.UUID, messageID, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPut, "/messages/"+messageID, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: messageID}}
	c.Set(middleware.UserIDKey, userID)
	return c, w
}

func TestEditMessageMemberLoadFailureAborts(t *testing.T) {
	userID := uuid.New()
	store := &fakeMessageStore{
		message: &models.Message{
			ID:       uuid.New(),
			RoomID:   uuid.New(),
			SenderID: userID,
			Content:  "original",
			Type:     models.MessageTypeText,
		},
		membersErr: errMemberLoad,
	}
	h := NewMessageHandler(store, feed.NewMemoryFeed())

	c, w := editContext(t, userID, store.message.ID.String(), `{"content":"changed"}`)
	h.EditMessage(c)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if store.updated != nil {
		t.Error("message updated despite member load failure")
	}
}

func TestEditMessageRewritesMentions(t *testing.T) {
	userID := uuid.New()
	binh := uuid.New()
	roomID := uuid.New()
	store := &fakeMessageStore{
		message: &models.Message{
			ID:       uuid.New(),
			RoomID:   roomID,
			SenderID: userID,
			Content:  "original",
			Type:     models.MessageTypeText,
		},
		members: []models.Member{
			{RoomID: roomID, UserID: userID, DisplayName: "An", IsActive: true},
			{RoomID: roomID, UserID: binh, DisplayName: "Binh", IsActive: true},
		},
	}
	h := NewMessageHandler(store, feed.NewMemoryFeed())

	c, w := editContext(t, userID, store.message.ID.String(), `{"content":"@Binh please review"}`)
	h.EditMessage(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if store.updated == nil {
		t.Fatal("message not updated")
	}
	if !store.updated.IsEdited {
		t.Error("edited flag not set")
	}
	if len(store.updated.Mentions) != 1 || store.updated.Mentions[0] != binh.String() {
		t.Errorf("mentions = %v, want [%s]", store.updated.Mentions, binh)
	}
}
