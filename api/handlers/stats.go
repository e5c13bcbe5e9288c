package handlers

import (
	"encoding/json"
	"net/http"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/modsentry/moderation-api/api"
	"github.com/modsentry/moderation-api/databases"
	"github.com/modsentry/moderation-api/models"
)

// Stats aggregates caseload and appeal queue counts for the admin overview
type Stats struct {
	ADB databases.AppealDatabase
	CDB databases.CaseDatabase
}

// OverviewHandler returns the moderation overview counts. Individual count
// failures degrade to zero rather than failing the whole overview.
func (s Stats) OverviewHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	totalCases, _ := s.CDB.CountDocuments(ctx, bson.M{})
	totalAppeals, _ := s.ADB.CountDocuments(ctx, bson.M{})
	pending, _ := s.ADB.CountDocuments(ctx, bson.M{"status": models.AppealPending})
	underReview, _ := s.ADB.CountDocuments(ctx, bson.M{"status": models.AppealUnderReview})
	approved, _ := s.ADB.CountDocuments(ctx, bson.M{"status": models.AppealApproved})
	denied, _ := s.ADB.CountDocuments(ctx, bson.M{"status": models.AppealDenied})
	escalated, _ := s.ADB.CountDocuments(ctx, bson.M{"status": models.AppealEscalated})

	stats := models.ModerationStats{
		TotalCases:         int(totalCases),
		TotalAppeals:       int(totalAppeals),
		PendingAppeals:     int(pending),
		UnderReviewAppeals: int(underReview),
		ApprovedAppeals:    int(approved),
		DeniedAppeals:      int(denied),
		EscalatedAppeals:   int(escalated),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(stats)
}
