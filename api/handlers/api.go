package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/modsentry/moderation-api/api"
	"github.com/modsentry/moderation-api/api/scheduler"
	"github.com/modsentry/moderation-api/config"
	"github.com/modsentry/moderation-api/databases"
	"github.com/modsentry/moderation-api/discord"
	"github.com/modsentry/moderation-api/models"
	"github.com/modsentry/moderation-api/moderation"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Scheduler *scheduler.Scheduler
	dbHelper  databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewStaffDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := mux.NewRouter()

	discordClient := discord.New(a.Config.DiscordToken, a.Config.DiscordGuildID)
	caseDB := databases.NewCaseDatabase(a.dbHelper)

	c := Case{
		DB: caseDB,
		Orchestrator: &moderation.Orchestrator{
			Notifier: discordClient,
			Executor: discordClient,
			Cases:    caseDB,
			Resolver: moderation.IdentityResolver{
				Overrides: a.Config.ModeratorOverrides,
			},
			SettlingDelay:      a.Config.SettlingDelay,
			DefaultMuteMinutes: a.Config.DefaultMuteMinutes,
			StrictDurations:    a.Config.StrictDurations,
		},
	}
	ap := Appeal{
		ADB: databases.NewAppealDatabase(a.dbHelper),
		MDB: databases.NewAppealMessageDatabase(a.dbHelper),
		HDB: databases.NewAppealHistoryDatabase(a.dbHelper),
	}
	s := Staff{SDB: databases.NewStaffDatabase(a.dbHelper)}
	st := Stats{ADB: ap.ADB, CDB: caseDB}
	evidence := EvidenceHandler{}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(api.TimeoutMiddleware(30 * time.Second))

	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")
	apiCreate.Handle("/auth/login", http.HandlerFunc(s.StaffLoginHandler)).Methods("POST")

	apiCreate.Handle("/cases", api.Middleware(http.HandlerFunc(c.CreateCaseHandler))).Methods("POST")
	apiCreate.Handle("/cases", api.Middleware(http.HandlerFunc(c.CaseHandler))).Methods("GET")
	apiCreate.Handle("/cases/user/{user_id}", api.Middleware(http.HandlerFunc(c.CasesByUserIDHandler))).Methods("GET")
	apiCreate.Handle("/cases/{case_id}", api.Middleware(http.HandlerFunc(c.CaseByIDHandler))).Methods("GET")

	apiCreate.Handle("/appeals", http.HandlerFunc(ap.SubmitAppealHandler)).Methods("POST")
	apiCreate.Handle("/appeals", api.Middleware(http.HandlerFunc(ap.AppealQueueHandler))).Methods("GET")
	apiCreate.Handle("/appeals/{appeal_id}", api.Middleware(http.HandlerFunc(ap.AppealByIDHandler))).Methods("GET")
	apiCreate.Handle("/appeals/{appeal_id}", api.Middleware(http.HandlerFunc(ap.UpdateAppealHandler))).Methods("PUT")
	apiCreate.Handle("/appeals/{appeal_id}/status", http.HandlerFunc(ap.AppealStatusHandler)).Methods("GET")

	apiCreate.Handle("/stats", api.Middleware(http.HandlerFunc(st.OverviewHandler))).Methods("GET")

	apiCreate.Handle("/evidence/generate-signature", api.Middleware(http.HandlerFunc(evidence.GenerateSignature))).Methods("POST")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("moderation-api has connected to the database")

	a.Scheduler = scheduler.NewScheduler(
		databases.NewAppealDatabase(a.dbHelper),
		databases.NewAppealMessageDatabase(a.dbHelper),
		databases.NewAppealHistoryDatabase(a.dbHelper),
		a.Config.StaleAppealAfter,
	)
	a.Scheduler.Start()

	a.initializeRoutes()
	return nil
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
