package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/modsentry/moderation-api/api/handlers"
	"github.com/modsentry/moderation-api/models"
)

// memAppealDB is an in-memory stand-in for the appeal collection, including
// the conditional-update semantics the handler relies on.
type memAppealDB struct {
	appeals        []models.Appeal
	failNextUpdate bool
}

func (m *memAppealDB) FindOne(ctx context.Context, filter interface{}) (*models.Appeal, error) {
	f := filter.(bson.M)
	for i := range m.appeals {
		if code, ok := f["code"].(string); ok && m.appeals[i].Code == code {
			found := m.appeals[i]
			return &found, nil
		}
		if id, ok := f["_id"].(primitive.ObjectID); ok && m.appeals[i].ID == id {
			found := m.appeals[i]
			return &found, nil
		}
	}
	return nil, errors.New("mongo: no documents in result")
}

func (m *memAppealDB) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Appeal, error) {
	f := filter.(bson.M)
	var out []models.Appeal
	for _, a := range m.appeals {
		if status, ok := f["status"].(string); ok && a.Status != status {
			continue
		}
		if priority, ok := f["priority"].(string); ok && a.Priority != priority {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *memAppealDB) InsertOne(ctx context.Context, appeal models.Appeal) (models.Appeal, error) {
	m.appeals = append(m.appeals, appeal)
	return appeal, nil
}

func (m *memAppealDB) UpdateOne(ctx context.Context, filter interface{}, update interface{}) (int64, error) {
	if m.failNextUpdate {
		m.failNextUpdate = false
		return 0, nil
	}
	f := filter.(bson.M)
	set := update.(bson.M)["$set"].(bson.M)
	for i := range m.appeals {
		a := &m.appeals[i]
		if id, ok := f["_id"].(primitive.ObjectID); ok && a.ID != id {
			continue
		}
		if status, ok := f["status"].(string); ok && a.Status != status {
			continue
		}
		if priority, ok := f["priority"].(string); ok && a.Priority != priority {
			continue
		}
		applySet(a, set)
		return 1, nil
	}
	return 0, nil
}

func (m *memAppealDB) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	matched, err := m.Find(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

func applySet(a *models.Appeal, set bson.M) {
	for k, v := range set {
		switch k {
		case "status":
			a.Status = v.(string)
		case "priority":
			a.Priority = v.(string)
		case "assignedTo":
			a.AssignedTo = v.(string)
		case "reviewedBy":
			a.ReviewedBy = v.(string)
		case "reviewedAt":
			a.ReviewedAt = v.(primitive.DateTime)
		case "reviewNote":
			a.ReviewNote = v.(string)
		case "updatedAt":
			a.UpdatedAt = v.(primitive.DateTime)
		}
	}
}

type memAppealMessageDB struct {
	messages []models.AppealMessage
}

func (m *memAppealMessageDB) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.AppealMessage, error) {
	f := filter.(bson.M)
	var out []models.AppealMessage
	for _, msg := range m.messages {
		if id, ok := f["appealId"].(primitive.ObjectID); ok && msg.AppealID != id {
			continue
		}
		if internal, ok := f["isInternal"].(bool); ok && msg.IsInternal != internal {
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func (m *memAppealMessageDB) InsertOne(ctx context.Context, message models.AppealMessage) (models.AppealMessage, error) {
	m.messages = append(m.messages, message)
	return message, nil
}

type memAppealHistoryDB struct {
	entries []models.AppealHistory
}

func (m *memAppealHistoryDB) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.AppealHistory, error) {
	f := filter.(bson.M)
	var out []models.AppealHistory
	for _, e := range m.entries {
		if id, ok := f["appealId"].(primitive.ObjectID); ok && e.AppealID != id {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *memAppealHistoryDB) InsertOne(ctx context.Context, entry models.AppealHistory) (models.AppealHistory, error) {
	m.entries = append(m.entries, entry)
	return entry, nil
}

func newAppealFixture() (handlers.Appeal, *memAppealDB, *memAppealMessageDB, *memAppealHistoryDB) {
	adb := &memAppealDB{}
	mdb := &memAppealMessageDB{}
	hdb := &memAppealHistoryDB{}
	return handlers.Appeal{ADB: adb, MDB: mdb, HDB: hdb}, adb, mdb, hdb
}

func seedAppeal(adb *memAppealDB, status string) models.Appeal {
	// seeded in the past so tests can assert updatedAt strictly advances
	then := primitive.NewDateTimeFromTime(time.Now().Add(-time.Hour))
	appeal := models.Appeal{
		ID:              primitive.NewObjectID(),
		Code:            "APL-7F3K2A",
		DiscordID:       "123456789012345678",
		DiscordUsername: "someuser",
		AppealType:      "ban",
		AppealMessage:   strings.Repeat("please reconsider ", 5),
		Status:          status,
		Priority:        models.PriorityNormal,
		CreatedAt:       then,
		UpdatedAt:       then,
	}
	adb.appeals = append(adb.appeals, appeal)
	return appeal
}

func submissionBody(messageLen int) []byte {
	b, _ := json.Marshal(map[string]interface{}{
		"discordId":       "123456789012345678",
		"discordUsername": "someuser",
		"email":           "user@example.com",
		"appealType":      "ban",
		"banReason":       "raid",
		"appealMessage":   strings.Repeat("x", messageLen),
		"acceptTerms":     true,
	})
	return b
}

func TestSubmitAppealHandlerRejectsShortMessage(t *testing.T) {
	a, adb, _, _ := newAppealFixture()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/appeals", bytes.NewReader(submissionBody(49)))
	rr := httptest.NewRecorder()
	a.SubmitAppealHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, adb.appeals)
}

func TestSubmitAppealHandlerCreatesPendingAppeal(t *testing.T) {
	a, adb, _, _ := newAppealFixture()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/appeals", bytes.NewReader(submissionBody(50)))
	rr := httptest.NewRecorder()
	a.SubmitAppealHandler(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Len(t, adb.appeals, 1)

	created := adb.appeals[0]
	assert.Equal(t, models.AppealPending, created.Status)
	assert.Equal(t, models.PriorityNormal, created.Priority)
	assert.True(t, strings.HasPrefix(created.Code, "APL-"))
	assert.Len(t, created.Code, 10)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, created.Code, resp["code"])
}

func TestSubmitAppealHandlerMessageLengthCountsCharactersNotBytes(t *testing.T) {
	// 49 multibyte characters is 98 bytes but still below the minimum
	short := strings.Repeat("ё", 49)
	enough := strings.Repeat("ё", 50)

	a, adb, _, _ := newAppealFixture()
	body, _ := json.Marshal(map[string]interface{}{
		"discordId": "123456789012345678", "email": "user@example.com",
		"appealType": "ban", "appealMessage": short, "acceptTerms": true,
	})
	rr := httptest.NewRecorder()
	a.SubmitAppealHandler(rr, httptest.NewRequest(http.MethodPost, "/api/v1/appeals", bytes.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, adb.appeals)

	body, _ = json.Marshal(map[string]interface{}{
		"discordId": "123456789012345678", "email": "user@example.com",
		"appealType": "ban", "appealMessage": enough, "acceptTerms": true,
	})
	rr = httptest.NewRecorder()
	a.SubmitAppealHandler(rr, httptest.NewRequest(http.MethodPost, "/api/v1/appeals", bytes.NewReader(body)))
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Len(t, adb.appeals, 1)
}

func TestSubmitAppealHandlerRejectsBadSubmissions(t *testing.T) {
	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"bad discord id", map[string]interface{}{"discordId": "abc", "email": "user@example.com", "appealType": "ban", "appealMessage": strings.Repeat("x", 50), "acceptTerms": true}},
		{"bad email", map[string]interface{}{"discordId": "123456789012345678", "email": "not-an-email", "appealType": "ban", "appealMessage": strings.Repeat("x", 50), "acceptTerms": true}},
		{"bad appeal type", map[string]interface{}{"discordId": "123456789012345678", "email": "user@example.com", "appealType": "timeout", "appealMessage": strings.Repeat("x", 50), "acceptTerms": true}},
		{"terms not accepted", map[string]interface{}{"discordId": "123456789012345678", "email": "user@example.com", "appealType": "ban", "appealMessage": strings.Repeat("x", 50), "acceptTerms": false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, adb, _, _ := newAppealFixture()
			b, _ := json.Marshal(tt.body)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/appeals", bytes.NewReader(b))
			rr := httptest.NewRecorder()
			a.SubmitAppealHandler(rr, req)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Empty(t, adb.appeals)
		})
	}
}

func updateRequest(t *testing.T, a handlers.Appeal, code string, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/v1/appeals/%s", code), bytes.NewReader(b))
	req = mux.SetURLVars(req, map[string]string{"appeal_id": code})
	rr := httptest.NewRecorder()
	a.UpdateAppealHandler(rr, req)
	return rr
}

func TestUpdateAppealHandlerClaim(t *testing.T) {
	a, adb, _, hdb := newAppealFixture()
	seedAppeal(adb, models.AppealPending)

	rr := updateRequest(t, a, "apl-7f3k2a", map[string]interface{}{
		"status": models.AppealUnderReview,
		"actor":  "mod_jane",
	})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, models.AppealUnderReview, adb.appeals[0].Status)
	assert.Equal(t, "mod_jane", adb.appeals[0].AssignedTo)
	assert.Greater(t, int64(adb.appeals[0].UpdatedAt), int64(adb.appeals[0].CreatedAt))

	assert.Len(t, hdb.entries, 1)
	entry := hdb.entries[0]
	assert.Equal(t, models.HistoryClaim, entry.Action)
	assert.Equal(t, models.AppealPending, entry.OldValue)
	assert.Equal(t, models.AppealUnderReview, entry.NewValue)
	assert.Equal(t, "mod_jane", entry.PerformedBy)
}

func TestUpdateAppealHandlerApproveRecordsDecision(t *testing.T) {
	a, adb, mdb, hdb := newAppealFixture()
	seedAppeal(adb, models.AppealUnderReview)

	rr := updateRequest(t, a, "APL-7F3K2A", map[string]interface{}{
		"status":      models.AppealApproved,
		"actor":       "mod_jane",
		"review_note": "Ban was applied to the wrong account",
	})

	assert.Equal(t, http.StatusOK, rr.Code)
	updated := adb.appeals[0]
	assert.Equal(t, models.AppealApproved, updated.Status)
	assert.Equal(t, "mod_jane", updated.ReviewedBy)
	assert.NotZero(t, updated.ReviewedAt)
	assert.Greater(t, int64(updated.UpdatedAt), int64(updated.CreatedAt))
	assert.Equal(t, "Ban was applied to the wrong account", updated.ReviewNote)

	assert.Len(t, hdb.entries, 1)
	assert.Equal(t, models.HistoryStatusChange, hdb.entries[0].Action)

	// the review note rides along as a staff message on the thread
	assert.Len(t, mdb.messages, 1)
	assert.Equal(t, models.SenderStaff, mdb.messages[0].SenderType)
	assert.Equal(t, "Ban was applied to the wrong account", mdb.messages[0].Message)
}

func TestUpdateAppealHandlerRejectsInvalidTransition(t *testing.T) {
	a, adb, _, hdb := newAppealFixture()
	seedAppeal(adb, models.AppealApproved)

	rr := updateRequest(t, a, "APL-7F3K2A", map[string]interface{}{
		"status": models.AppealDenied,
		"actor":  "mod_jane",
	})

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, models.AppealApproved, adb.appeals[0].Status)
	assert.Empty(t, hdb.entries)
}

func TestUpdateAppealHandlerLostRaceConflicts(t *testing.T) {
	a, adb, _, hdb := newAppealFixture()
	seedAppeal(adb, models.AppealUnderReview)
	adb.failNextUpdate = true

	rr := updateRequest(t, a, "APL-7F3K2A", map[string]interface{}{
		"status": models.AppealDenied,
		"actor":  "mod_jane",
	})

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "appeal status changed concurrently")
	assert.Empty(t, hdb.entries)
}

func TestUpdateAppealHandlerRequiresActorForStatusChange(t *testing.T) {
	a, adb, _, _ := newAppealFixture()
	seedAppeal(adb, models.AppealPending)

	rr := updateRequest(t, a, "APL-7F3K2A", map[string]interface{}{
		"status": models.AppealUnderReview,
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, models.AppealPending, adb.appeals[0].Status)
}

func TestUpdateAppealHandlerRejectsUnknownStatus(t *testing.T) {
	a, adb, _, _ := newAppealFixture()
	seedAppeal(adb, models.AppealPending)

	rr := updateRequest(t, a, "APL-7F3K2A", map[string]interface{}{
		"status": "reopened",
		"actor":  "mod_jane",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdateAppealHandlerRejectsEmptyUpdate(t *testing.T) {
	a, adb, _, _ := newAppealFixture()
	seedAppeal(adb, models.AppealPending)

	rr := updateRequest(t, a, "APL-7F3K2A", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "nothing to apply")
}

func TestUpdateAppealHandlerMessageOnlyTouchesThreadNotHistory(t *testing.T) {
	a, adb, mdb, hdb := newAppealFixture()
	seeded := seedAppeal(adb, models.AppealUnderReview)
	before := adb.appeals[0].UpdatedAt

	rr := updateRequest(t, a, "APL-7F3K2A", map[string]interface{}{
		"message":  "Checked the audit log, ban came from the raid wave",
		"internal": true,
		"actor":    "mod_jane",
	})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, mdb.messages, 1)
	assert.True(t, mdb.messages[0].IsInternal)
	assert.Equal(t, seeded.ID, mdb.messages[0].AppealID)
	assert.Empty(t, hdb.entries)
	assert.Equal(t, models.AppealUnderReview, adb.appeals[0].Status)
	assert.Greater(t, int64(adb.appeals[0].UpdatedAt), int64(before))
}

func TestAppealStatusHandlerHidesInternalMessages(t *testing.T) {
	a, adb, mdb, _ := newAppealFixture()
	seeded := seedAppeal(adb, models.AppealUnderReview)
	now := primitive.NewDateTimeFromTime(time.Now())
	mdb.messages = append(mdb.messages,
		models.AppealMessage{ID: primitive.NewObjectID(), AppealID: seeded.ID, SenderType: models.SenderStaff, SenderName: "mod_jane", Message: "public reply", CreatedAt: now},
		models.AppealMessage{ID: primitive.NewObjectID(), AppealID: seeded.ID, SenderType: models.SenderStaff, SenderName: "mod_jane", Message: "internal note", IsInternal: true, CreatedAt: now},
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appeals/APL-7F3K2A/status", nil)
	req = mux.SetURLVars(req, map[string]string{"appeal_id": "APL-7F3K2A"})
	rr := httptest.NewRecorder()
	a.AppealStatusHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "public reply")
	assert.NotContains(t, body, "internal note")
	assert.NotContains(t, body, "history")
}

func TestAppealByIDHandlerReturnsThreadAndHistory(t *testing.T) {
	a, adb, mdb, hdb := newAppealFixture()
	seeded := seedAppeal(adb, models.AppealUnderReview)
	now := primitive.NewDateTimeFromTime(time.Now())
	mdb.messages = append(mdb.messages,
		models.AppealMessage{ID: primitive.NewObjectID(), AppealID: seeded.ID, SenderType: models.SenderStaff, Message: "internal note", IsInternal: true, CreatedAt: now})
	hdb.entries = append(hdb.entries,
		models.AppealHistory{ID: primitive.NewObjectID(), AppealID: seeded.ID, Action: models.HistoryClaim, OldValue: models.AppealPending, NewValue: models.AppealUnderReview, PerformedBy: "mod_jane", CreatedAt: now})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appeals/APL-7F3K2A", nil)
	req = mux.SetURLVars(req, map[string]string{"appeal_id": "APL-7F3K2A"})
	rr := httptest.NewRecorder()
	a.AppealByIDHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Appeal   models.Appeal          `json:"appeal"`
		Messages []models.AppealMessage `json:"messages"`
		History  []models.AppealHistory `json:"history"`
	}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, seeded.Code, resp.Appeal.Code)
	assert.Len(t, resp.Messages, 1)
	assert.Len(t, resp.History, 1)
}

func TestAppealByIDHandlerNotFound(t *testing.T) {
	a, _, _, _ := newAppealFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appeals/APL-MISSIN", nil)
	req = mux.SetURLVars(req, map[string]string{"appeal_id": "APL-MISSIN"})
	rr := httptest.NewRecorder()
	a.AppealByIDHandler(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAppealQueueHandlerFiltersByStatus(t *testing.T) {
	a, adb, _, _ := newAppealFixture()
	seedAppeal(adb, models.AppealPending)
	denied := seedAppeal(adb, models.AppealDenied)
	denied.Code = "APL-OTHER1"

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appeals?status=pending", nil)
	rr := httptest.NewRecorder()
	a.AppealQueueHandler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp []models.Appeal
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp, 1)
	assert.Equal(t, models.AppealPending, resp[0].Status)
}
