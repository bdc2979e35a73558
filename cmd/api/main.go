package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/clockwork-hr/attendance-recon-go/internal/config"
	appHTTP "github.com/clockwork-hr/attendance-recon-go/internal/handler/http"
	"github.com/clockwork-hr/attendance-recon-go/internal/pkg/biotime"
	"github.com/clockwork-hr/attendance-recon-go/internal/pkg/cron"
	"github.com/clockwork-hr/attendance-recon-go/internal/pkg/database"
	"github.com/clockwork-hr/attendance-recon-go/internal/pkg/jwt"
	"github.com/clockwork-hr/attendance-recon-go/internal/pkg/storage"
	"github.com/clockwork-hr/attendance-recon-go/internal/repository/postgresql"
	serviceAuth "github.com/clockwork-hr/attendance-recon-go/internal/service/auth"
	exportService "github.com/clockwork-hr/attendance-recon-go/internal/service/export"
	"github.com/clockwork-hr/attendance-recon-go/internal/service/reference"
	rosterService "github.com/clockwork-hr/attendance-recon-go/internal/service/roster"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}
	if err := cfg.Validate(); err != nil {
		fmt.Println("Invalid config:", err)
		return
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(
		slog.String("app", "attendance-recon"),
	)

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		fmt.Println("Error connecting to leave database:", err)
		return
	}

	leaveRepo := postgresql.NewLeaveRepository(db)

	biotimeClient := biotime.NewClient(biotime.Config{
		BaseURL:      cfg.BioTime.BaseURL,
		TokenURL:     cfg.BioTime.TokenURL,
		ClientID:     cfg.BioTime.ClientID,
		ClientSecret: cfg.BioTime.ClientSecret,
		Timeout:      cfg.BioTime.Timeout,
	})

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	fileStorage, err := storage.NewLocalStorage(cfg.Export.Dir)
	if err != nil {
		log.Fatal("Failed to initialize export storage:", err)
	}

	refCache := reference.NewCache(biotimeClient, logger)
	if err := refCache.Refresh(context.Background()); err != nil {
		logger.Warn("initial reference catalog refresh failed", "error", err)
	}

	viewService := rosterService.NewViewService(biotimeClient, leaveRepo, refCache, logger, rosterService.Config{
		PreferredPageSize: cfg.Roster.PreferredPageSize,
		WeeklyOffDay:      cfg.Roster.WeeklyOffDay,
		LeaveFetchLimit:   cfg.Roster.LeaveFetchLimit,
		StatsFetchLimit:   cfg.Roster.StatsFetchLimit,
	})
	exportSvc := exportService.NewExportService(viewService, fileStorage, logger)
	authService := serviceAuth.NewAuthService(cfg.Clients, jwtService, logger)

	scheduler := cron.NewScheduler(logger)
	scheduler.AddJob("reference-catalog-refresh", time.Hour, refCache.Refresh)
	scheduler.Start()
	defer scheduler.Stop()

	authHandler := appHTTP.NewAuthHandler(authService)
	viewHandler := appHTTP.NewViewHandler(viewService)
	exportHandler := appHTTP.NewExportHandler(exportSvc)
	referenceHandler := appHTTP.NewReferenceHandler(refCache)

	router := appHTTP.NewRouter(
		jwtService,
		authHandler,
		viewHandler,
		exportHandler,
		referenceHandler,
	)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
