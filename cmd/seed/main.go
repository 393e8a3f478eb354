package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/yourwae/fastget-backend/internal/towns"
	"github.com/yourwae/fastget-backend/internal/users"
	"github.com/yourwae/fastget-backend/pkg/config"
	"github.com/yourwae/fastget-backend/pkg/db"
	"github.com/yourwae/fastget-backend/pkg/enums"
	"github.com/yourwae/fastget-backend/pkg/logger"
)

// seed loads the default service towns and optionally promotes existing
// accounts to the admin or delivery roles, which signup never grants.
func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	skipTowns := flag.Bool("skip-towns", false, "do not insert the default towns")
	admin := flag.String("admin", "", "email of an existing user to promote to admin")
	rider := flag.String("delivery", "", "email of an existing user to promote to delivery partner")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	if !*skipTowns {
		svc, err := towns.NewService(towns.NewRepository(dbClient.DB()), logg)
		requireResource(ctx, logg, "towns service", err)
		created, err := svc.Seed(ctx)
		requireResource(ctx, logg, "town seed", err)
		logg.Info(logg.WithField(ctx, "created", created), "towns seeded")
	}

	userRepo := users.NewRepository(dbClient.DB())
	for email, role := range map[string]enums.Role{*admin: enums.RoleAdmin, *rider: enums.RoleDelivery} {
		email = strings.TrimSpace(email)
		if email == "" {
			continue
		}
		user, err := userRepo.FindByEmail(ctx, email)
		requireResource(ctx, logg, "user "+email, err)
		requireResource(ctx, logg, "role update", userRepo.UpdateRole(ctx, user.ID, role))
		logg.Info(logg.WithFields(ctx, map[string]any{"user_id": user.ID.String(), "role": string(role)}), "user promoted")
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
