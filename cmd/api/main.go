package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/phclaus/fairsplit/docs"
	"github.com/phclaus/fairsplit/internal/config"
	"github.com/phclaus/fairsplit/internal/consumption"
	"github.com/phclaus/fairsplit/internal/database"
	"github.com/phclaus/fairsplit/internal/expense"
	"github.com/phclaus/fairsplit/internal/group"
	"github.com/phclaus/fairsplit/internal/notification"
	"github.com/phclaus/fairsplit/internal/settlement"
	"github.com/phclaus/fairsplit/internal/snapshot"
	"github.com/phclaus/fairsplit/pkg/logger"
	mw "github.com/phclaus/fairsplit/pkg/middleware"
)

// @title           FairSplit API
// @version         1.0
// @description     Shared-expense ledger with weighted splits, metered resources and settlement planning.
// @BasePath        /api/v1
func main() {
	// .env is optional; deployed environments set variables directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.ServiceName, cfg.LogLevel, cfg.LogFormat)

	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	log.Info().Msg("connected to database")

	// Group feature (the share syncer is wired in below, after the expense
	// service exists)
	groupRepo := group.NewRepository(db)

	// Expense feature
	expenseRepo := expense.NewRepository(db)
	expenseService := expense.NewService(expenseRepo, groupRepo)
	expenseHandler := expense.NewHandler(expenseService)

	groupService := group.NewService(groupRepo, expenseService)
	groupHandler := group.NewHandler(groupService)

	// Consumption feature
	consumptionRepo := consumption.NewRepository(db)
	consumptionService := consumption.NewService(consumptionRepo, groupRepo)
	consumptionHandler := consumption.NewHandler(consumptionService)

	// Notification feature
	notificationRepo := notification.NewRepository(db)
	notificationService := notification.NewService(notificationRepo)
	notificationHandler := notification.NewHandler(notificationService)

	// Settlement feature
	settlementRepo := settlement.NewRepository(db)
	snapshots := snapshot.NewProvider(groupRepo, expenseRepo, consumptionRepo, settlementRepo)
	settlementService := settlement.NewService(settlementRepo, snapshots, notificationService)
	settlementHandler := settlement.NewHandler(settlementService)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(mw.ActorMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/groups", groupHandler.Routes())
		r.Mount("/expenses", expenseHandler.Routes())
		r.Mount("/consumptions", consumptionHandler.Routes())
		r.Mount("/settlements", settlementHandler.Routes())
		r.Mount("/notifications", notificationHandler.Routes())
	})

	r.Get("/swagger/*", httpSwagger.Handler())

	log.Info().Str("port", cfg.Port).Msg("server starting")
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
