package models

// ModerationStats is the admin dashboard overview of caseload and appeal
// queue counts
type ModerationStats struct {
	TotalCases         int `json:"totalCases"`
	TotalAppeals       int `json:"totalAppeals"`
	PendingAppeals     int `json:"pendingAppeals"`
	UnderReviewAppeals int `json:"underReviewAppeals"`
	ApprovedAppeals    int `json:"approvedAppeals"`
	DeniedAppeals      int `json:"deniedAppeals"`
	EscalatedAppeals   int `json:"escalatedAppeals"`
}
