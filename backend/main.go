package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tunilearn/backend/config"
	"tunilearn/backend/routes"
	"tunilearn/backend/seeds"
	"tunilearn/backend/services"
	"tunilearn/backend/utils"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"
)

// @title TuniLearn API
// @version 1.0
// @description Course marketplace backend: accounts, course authoring, approval and enrollment.
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	app := &cli.App{
		Name:   "tunilearn",
		Usage:  "online course marketplace API",
		Action: serve,
		Commands: []*cli.Command{
			{Name: "serve", Usage: "run the HTTP server", Action: serve},
			{Name: "migrate", Usage: "apply the database schema", Action: migrate},
			{Name: "seed", Usage: "insert starter subjects and accounts", Action: seed},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// bootstrap loads the configuration and opens a migrated database.
func bootstrap() (*config.Config, *log.Logger, *gorm.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "load config")
	}

	logger := utils.InitLogger(utils.LoggerConfig{
		Format:       cfg.LogFormat,
		EnableColors: cfg.LogFormat != "json",
	})

	db, err := utils.InitDB(cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := utils.Migrate(db); err != nil {
		_ = utils.CloseDB(db)
		return nil, nil, nil, err
	}
	return cfg, logger, db, nil
}

func serve(_ *cli.Context) error {
	cfg, logger, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() {
		if err := utils.CloseDB(db); err != nil {
			logger.Printf("close database: %v", err)
		}
	}()

	if err := services.NewUploadService(cfg.UploadDir).Init(); err != nil {
		return err
	}

	app := routes.NewApp(db, cfg, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on :%s", cfg.ServerPort)
		errCh <- app.Listen(":" + cfg.ServerPort)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return errors.Wrap(err, "listen")
	case sig := <-quit:
		logger.Printf("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}

func migrate(_ *cli.Context) error {
	_, logger, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer utils.CloseDB(db)
	logger.Println("migrations applied")
	return nil
}

func seed(_ *cli.Context) error {
	_, logger, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer utils.CloseDB(db)
	return seeds.Run(db, logger)
}
