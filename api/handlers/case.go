package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/modsentry/moderation-api/api"
	"github.com/modsentry/moderation-api/config"
	"github.com/modsentry/moderation-api/databases"
	"github.com/modsentry/moderation-api/models"
	"github.com/modsentry/moderation-api/moderation"
)

// Case handles moderation case requests
type Case struct {
	DB           databases.CaseDatabase
	Orchestrator *moderation.Orchestrator
}

// CreateCaseHandler runs a moderation action through the orchestrator and
// returns the persisted case. Notification or platform failures are recorded
// on the case, not surfaced; only validation and persistence failures error.
func (c Case) CreateCaseHandler(w http.ResponseWriter, r *http.Request) {
	var req moderation.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	moderationCase, err := c.Orchestrator.Execute(r.Context(), req)
	if err != nil {
		var verr *moderation.ValidationError
		if errors.As(err, &verr) {
			config.ErrorStatus("invalid moderation action", http.StatusBadRequest, w, err)
			return
		}
		config.ErrorStatus("failed to record case", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(moderationCase)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// CaseHandler returns all cases, newest first
func (c Case) CaseHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	limit64 := int64(limit)
	page := getPage(0, r)
	skip64 := int64(page * limit)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	opts := options.Find().
		SetLimit(limit64).
		SetSkip(skip64).
		SetSort(bson.M{"_id": -1})

	dbResp, err := c.DB.Find(ctx, bson.D{}, opts)
	if err != nil {
		config.ErrorStatus("failed to get cases", http.StatusNotFound, w, err)
		return
	}

	if len(dbResp) == 0 {
		dbResp = []models.Case{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CaseByIDHandler returns a case by ID
func (c Case) CaseByIDHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	zap.S().Debugf("case_id: %v", caseID)

	cID, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := c.DB.FindOne(ctx, bson.M{"_id": cID})
	if err != nil {
		config.ErrorStatus("failed to get case by ID", http.StatusNotFound, w, err)
		return
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CasesByUserIDHandler returns all cases recorded against the given platform user
func (c Case) CasesByUserIDHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	actionType := r.URL.Query().Get("actionType")
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	limit64 := int64(limit)
	page := getPage(0, r)
	skip64 := int64(page * limit)

	zap.S().Debugf("user_id: '%v'", userID)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	filter := bson.M{
		"userId": userID,
	}
	if actionType != "" {
		filter["actionType"] = actionType
	}

	dbResp, err := c.DB.Find(ctx, filter, &options.FindOptions{
		Limit: &limit64,
		Skip:  &skip64,
		Sort:  bson.M{"_id": -1},
	})
	if err != nil {
		config.ErrorStatus("failed to get cases", http.StatusNotFound, w, err)
		return
	}

	if len(dbResp) == 0 {
		dbResp = []models.Case{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

func getPage(page int, r *http.Request) int {
	if r.URL.Query().Get("page") == "" {
		return page
	}
	parsed, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		zap.S().Errorf(fmt.Sprintf("error parsing page number: %v", err))
		return page
	}
	if parsed < 0 {
		zap.S().Warnf(fmt.Sprintf("cannot process negative page number. Got: %v", parsed))
		return 0
	}
	return parsed
}
