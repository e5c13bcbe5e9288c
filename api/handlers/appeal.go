package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/modsentry/moderation-api/api"
	"github.com/modsentry/moderation-api/appeals"
	"github.com/modsentry/moderation-api/config"
	"github.com/modsentry/moderation-api/databases"
	"github.com/modsentry/moderation-api/models"
	templates "github.com/modsentry/moderation-api/templates/html"
)

const appealCodePrefix = "APL-"

// appealMessageMinLength is enforced on public submissions
const appealMessageMinLength = 50

var (
	discordIDPattern = regexp.MustCompile(`^\d{17,19}$`)
	emailPattern     = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// Appeal handles appeal lifecycle requests
type Appeal struct {
	ADB databases.AppealDatabase
	MDB databases.AppealMessageDatabase
	HDB databases.AppealHistoryDatabase
}

type appealSubmission struct {
	DiscordID       string `json:"discordId"`
	DiscordUsername string `json:"discordUsername"`
	Email           string `json:"email"`
	AppealType      string `json:"appealType"`
	BanReason       string `json:"banReason"`
	AppealMessage   string `json:"appealMessage"`
	Evidence        string `json:"evidence"`
	AcceptTerms     bool   `json:"acceptTerms"`
}

type appealUpdateRequest struct {
	Status     string `json:"status"`
	ReviewNote string `json:"review_note"`
	Message    string `json:"message"`
	Internal   bool   `json:"internal"`
	Actor      string `json:"actor"`
}

// SubmitAppealHandler creates an appeal from a public submission
func (a Appeal) SubmitAppealHandler(w http.ResponseWriter, r *http.Request) {
	var sub appealSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if err := validateSubmission(sub); err != nil {
		config.ErrorStatus("invalid appeal submission", http.StatusBadRequest, w, err)
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	appeal := models.Appeal{
		ID:              primitive.NewObjectID(),
		Code:            generateAppealCode(),
		DiscordID:       sub.DiscordID,
		DiscordUsername: sub.DiscordUsername,
		Email:           strings.ToLower(strings.TrimSpace(sub.Email)),
		AppealType:      sub.AppealType,
		BanReason:       sub.BanReason,
		AppealMessage:   sub.AppealMessage,
		Evidence:        sub.Evidence,
		Status:          models.AppealPending,
		Priority:        models.PriorityNormal,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	created, err := a.ADB.InsertOne(ctx, appeal)
	if err != nil {
		config.ErrorStatus("failed to create appeal", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Appeal submitted successfully",
		"code":    created.Code,
		"appeal":  created,
	})
}

// AppealQueueHandler returns appeals for the review queue, oldest first,
// optionally filtered by status and priority
func (a Appeal) AppealQueueHandler(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	priority := r.URL.Query().Get("priority")
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	limit64 := int64(limit)
	page := getPage(0, r)
	skip64 := int64(page * limit)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	if priority != "" {
		filter["priority"] = priority
	}

	dbResp, err := a.ADB.Find(ctx, filter, &options.FindOptions{
		Limit: &limit64,
		Skip:  &skip64,
		Sort:  bson.M{"createdAt": 1},
	})
	if err != nil {
		config.ErrorStatus("failed to get appeals", http.StatusNotFound, w, err)
		return
	}

	if len(dbResp) == 0 {
		dbResp = []models.Appeal{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// AppealByIDHandler returns an appeal with its full thread and audit trail
func (a Appeal) AppealByIDHandler(w http.ResponseWriter, r *http.Request) {
	code := normalizeAppealCode(mux.Vars(r)["appeal_id"])

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	appeal, err := a.ADB.FindOne(ctx, bson.M{"code": code})
	if err != nil {
		config.ErrorStatus("failed to get appeal by ID", http.StatusNotFound, w, err)
		return
	}

	messages, err := a.MDB.Find(ctx, bson.M{"appealId": appeal.ID}, &options.FindOptions{Sort: bson.M{"createdAt": 1}})
	if err != nil {
		config.ErrorStatus("failed to get appeal messages", http.StatusInternalServerError, w, err)
		return
	}
	if len(messages) == 0 {
		messages = []models.AppealMessage{}
	}

	history, err := a.HDB.Find(ctx, bson.M{"appealId": appeal.ID}, &options.FindOptions{Sort: bson.M{"createdAt": 1}})
	if err != nil {
		config.ErrorStatus("failed to get appeal history", http.StatusInternalServerError, w, err)
		return
	}
	if len(history) == 0 {
		history = []models.AppealHistory{}
	}

	b, err := json.Marshal(map[string]interface{}{
		"appeal":   appeal,
		"messages": messages,
		"history":  history,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// AppealStatusHandler is the submitter-facing projection of an appeal.
// Internal messages and the audit trail never appear here.
func (a Appeal) AppealStatusHandler(w http.ResponseWriter, r *http.Request) {
	code := normalizeAppealCode(mux.Vars(r)["appeal_id"])

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	appeal, err := a.ADB.FindOne(ctx, bson.M{"code": code})
	if err != nil {
		config.ErrorStatus("failed to get appeal by ID", http.StatusNotFound, w, err)
		return
	}

	messages, err := a.MDB.Find(ctx, bson.M{"appealId": appeal.ID, "isInternal": false},
		&options.FindOptions{Sort: bson.M{"createdAt": 1}})
	if err != nil {
		config.ErrorStatus("failed to get appeal messages", http.StatusInternalServerError, w, err)
		return
	}
	if len(messages) == 0 {
		messages = []models.AppealMessage{}
	}

	b, err := json.Marshal(map[string]interface{}{
		"appeal":   appeal,
		"messages": messages,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateAppealHandler applies a status transition and/or appends a staff
// message. Status omitted means message-only: the thread and updatedAt are
// touched, never the audit trail. The status write is conditional on the
// status the transition was validated against, so two racing decisions
// cannot both land.
func (a Appeal) UpdateAppealHandler(w http.ResponseWriter, r *http.Request) {
	code := normalizeAppealCode(mux.Vars(r)["appeal_id"])

	var req appealUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if req.Status == "" && req.Message == "" {
		config.ErrorStatus("nothing to apply", http.StatusBadRequest, w,
			fmt.Errorf("request must carry a status, a message, or both"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	appeal, err := a.ADB.FindOne(ctx, bson.M{"code": code})
	if err != nil {
		config.ErrorStatus("failed to get appeal by ID", http.StatusNotFound, w, err)
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())

	if req.Status != "" {
		if !appeals.ValidStatus(req.Status) {
			config.ErrorStatus("invalid appeal status", http.StatusBadRequest, w,
				fmt.Errorf("unknown status %q", req.Status))
			return
		}
		if req.Actor == "" {
			config.ErrorStatus("invalid appeal update", http.StatusBadRequest, w,
				fmt.Errorf("status changes require an actor"))
			return
		}
		if err := appeals.Validate(appeal.Status, req.Status); err != nil {
			config.ErrorStatus("invalid status transition", http.StatusConflict, w, err)
			return
		}

		set := bson.M{
			"status":    req.Status,
			"updatedAt": now,
		}
		if req.Status == models.AppealUnderReview {
			set["assignedTo"] = req.Actor
		}
		if appeals.IsDecision(req.Status) {
			set["reviewedBy"] = req.Actor
			set["reviewedAt"] = now
			if req.ReviewNote != "" {
				set["reviewNote"] = req.ReviewNote
			}
		}

		// Conditional on the status we validated against; a lost race
		// matches nothing and must not write anything.
		matched, err := a.ADB.UpdateOne(ctx,
			bson.M{"_id": appeal.ID, "status": appeal.Status},
			bson.M{"$set": set})
		if err != nil {
			config.ErrorStatus("failed to update appeal", http.StatusInternalServerError, w, err)
			return
		}
		if matched == 0 {
			config.ErrorStatus("appeal status changed concurrently", http.StatusConflict, w,
				fmt.Errorf("appeal %s is no longer %s", appeal.Code, appeal.Status))
			return
		}

		action := models.HistoryStatusChange
		if req.Status == models.AppealUnderReview {
			action = models.HistoryClaim
		}
		_, err = a.HDB.InsertOne(ctx, models.AppealHistory{
			ID:          primitive.NewObjectID(),
			AppealID:    appeal.ID,
			Action:      action,
			OldValue:    appeal.Status,
			NewValue:    req.Status,
			PerformedBy: req.Actor,
			CreatedAt:   now,
		})
		if err != nil {
			config.ErrorStatus("failed to record appeal history", http.StatusInternalServerError, w, err)
			return
		}

		if appeals.IsDecision(req.Status) {
			a.sendDecisionEmail(*appeal, req.Status, req.ReviewNote)
		}
	}

	// A decision note or explicit message rides along on the thread as staff
	// correspondence
	messageText := req.Message
	if messageText == "" && req.Status != "" && req.ReviewNote != "" {
		messageText = req.ReviewNote
	}
	if messageText != "" {
		_, err := a.MDB.InsertOne(ctx, models.AppealMessage{
			ID:         primitive.NewObjectID(),
			AppealID:   appeal.ID,
			SenderType: models.SenderStaff,
			SenderName: req.Actor,
			Message:    messageText,
			IsInternal: req.Internal,
			CreatedAt:  now,
		})
		if err != nil {
			config.ErrorStatus("failed to append appeal message", http.StatusInternalServerError, w, err)
			return
		}
		if req.Status == "" {
			if _, err := a.ADB.UpdateOne(ctx, bson.M{"_id": appeal.ID}, bson.M{"$set": bson.M{"updatedAt": now}}); err != nil {
				config.ErrorStatus("failed to update appeal", http.StatusInternalServerError, w, err)
				return
			}
		}
	}

	updated, err := a.ADB.FindOne(ctx, bson.M{"_id": appeal.ID})
	if err != nil {
		config.ErrorStatus("failed to get appeal after update", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(map[string]interface{}{
		"message": "Appeal updated successfully",
		"appeal":  updated,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// sendDecisionEmail tells the appellant about the decision. Failures are
// logged and swallowed; email is a courtesy, not part of the lifecycle.
func (a Appeal) sendDecisionEmail(appeal models.Appeal, status, note string) {
	if appeal.Email == "" {
		return
	}

	subject := fmt.Sprintf("Your appeal %s has been %s", appeal.Code, status)
	body := fmt.Sprintf("Hello,\n\nYour %s appeal (%s) has been %s.", appeal.AppealType, appeal.Code, status)
	if note != "" {
		body += fmt.Sprintf("\n\nReviewer note:\n%s", note)
	}

	from := mail.NewEmail("Moderation Team", os.Getenv("SENDGRID_FROM_EMAIL"))
	to := mail.NewEmail(appeal.DiscordUsername, appeal.Email)
	message := mail.NewSingleEmail(from, subject, to, body, templates.RenderAppealDecisionEmail(subject, body))

	client := sendgrid.NewSendClient(os.Getenv("SENDGRID_API_KEY"))
	response, err := client.Send(message)
	if err != nil {
		zap.S().Errorw("failed to send appeal decision email", "code", appeal.Code, "error", err)
		return
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
	}
}

func validateSubmission(sub appealSubmission) error {
	if !discordIDPattern.MatchString(sub.DiscordID) {
		return fmt.Errorf("discordId must be 17-19 digits")
	}
	if !emailPattern.MatchString(strings.TrimSpace(sub.Email)) {
		return fmt.Errorf("email address does not look valid")
	}
	if !models.ValidAppealType(sub.AppealType) {
		return fmt.Errorf("appealType must be one of ban, mute, warn")
	}
	if utf8.RuneCountInString(sub.AppealMessage) < appealMessageMinLength {
		return fmt.Errorf("appealMessage must be at least %d characters", appealMessageMinLength)
	}
	if !sub.AcceptTerms {
		return fmt.Errorf("terms must be accepted")
	}
	return nil
}

// generateAppealCode produces the human-memorable appeal identity, e.g. APL-7F3K2A
func generateAppealCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return appealCodePrefix + raw[:6]
}

// normalizeAppealCode upper-cases a submitted code so lookups are case-insensitive
func normalizeAppealCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
