// Command makeadmin creates the default admin account (admin / admin123)
// when no user named admin exists. Run it once after the first deploy.
package main

import (
	"context"
	"fmt"

	"gamecatalog/catalog"
	"gamecatalog/config"
	"gamecatalog/store"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Can't load config")
	}
	logger, err := config.NewLogger(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Can't set up logger")
	}

	ctx := context.Background()
	db, err := store.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	created, err := catalog.NewService(db, logger, cfg.BcryptCost).EnsureAdmin(ctx)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create admin user")
	}
	if created {
		fmt.Println("Admin user created successfully.")
	} else {
		fmt.Println("Admin user already exists.")
	}
}
