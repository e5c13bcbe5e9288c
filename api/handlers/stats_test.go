package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/modsentry/moderation-api/api/handlers"
	"github.com/modsentry/moderation-api/models"
)

func TestOverviewHandlerCountsByStatus(t *testing.T) {
	adb := &memAppealDB{}
	cdb := &memCaseDB{}
	seedAppeal(adb, models.AppealPending)
	seedAppeal(adb, models.AppealPending)
	seedAppeal(adb, models.AppealUnderReview)
	seedAppeal(adb, models.AppealDenied)
	seedCase(cdb, "123456789012345678", "warn")
	seedCase(cdb, "123456789012345678", "ban")
	seedCase(cdb, "999999999999999999", "mute")

	s := handlers.Stats{ADB: adb, CDB: cdb}
	rr := httptest.NewRecorder()
	s.OverviewHandler(rr, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var stats models.ModerationStats
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.TotalCases)
	assert.Equal(t, 4, stats.TotalAppeals)
	assert.Equal(t, 2, stats.PendingAppeals)
	assert.Equal(t, 1, stats.UnderReviewAppeals)
	assert.Equal(t, 1, stats.DeniedAppeals)
	assert.Zero(t, stats.ApprovedAppeals)
	assert.Zero(t, stats.EscalatedAppeals)
}

func TestOverviewHandlerEmptyStore(t *testing.T) {
	s := handlers.Stats{ADB: &memAppealDB{}, CDB: &memCaseDB{}}
	rr := httptest.NewRecorder()
	s.OverviewHandler(rr, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var stats models.ModerationStats
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Zero(t, stats.TotalCases)
	assert.Zero(t, stats.TotalAppeals)
}
