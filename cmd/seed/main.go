package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"flag"
	"log/slog"
	"os"

	"github.com/pkg/errors"

	"taskmanager/internal/auth"
	"taskmanager/internal/config"
	"taskmanager/internal/db"
	apperrors "taskmanager/internal/errors"
	"taskmanager/internal/logging"
	"taskmanager/internal/model"
	"taskmanager/internal/repository"
	"taskmanager/internal/service"
)

// SeedTask represents one task in the seed file.
type SeedTask struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
}

var defaultTasks = []SeedTask{
	{Title: "Read the API docs", Status: string(model.TaskStatusCompleted)},
	{Title: "Upload a profile picture", Status: string(model.TaskStatusWorking)},
	{Title: "Plan the week"},
}

func main() {
	email := flag.String("email", "demo@example.com", "demo user email")
	password := flag.String("password", "demo1234", "demo user password")
	tasksFile := flag.String("tasks", "", "optional JSON file with an array of {title, description, status}")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg)
	if err != nil {
		slog.Error("build logger", "error", err)
		os.Exit(1)
	}

	if err := run(context.Background(), cfg, logger, *email, *password, *tasksFile); err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, email, password, tasksFile string) error {
	tasks := defaultTasks
	if tasksFile != "" {
		loaded, err := loadTasks(tasksFile)
		if err != nil {
			return err
		}
		tasks = loaded
	}

	gormDB, err := db.New(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	if err := db.Migrate(ctx, gormDB, cfg.Database.Driver); err != nil {
		return err
	}
	logger.Info("database migrations completed")

	users := repository.NewUserRepository(gormDB)
	authService := service.NewAuthService(
		users,
		auth.NewSessionIssuer(cfg.Session.Secret, cfg.Session.TTL),
		auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		auth.NewTokenStore(nil),
		nil,
		logger,
	)
	taskService := service.NewTaskService(repository.NewTaskRepository(gormDB))

	session, err := authService.Signup(ctx, service.SignupInput{
		Username:  "demo",
		Firstname: "Demo",
		Email:     email,
		Password:  password,
	})
	if stderrors.Is(err, apperrors.ErrConflict) {
		logger.Info("demo user already exists, nothing to do", "email", email)
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "create demo user")
	}

	created := 0
	for _, item := range tasks {
		in := service.NewTask{Title: item.Title, Description: item.Description}
		if item.Status != "" {
			status := model.TaskStatus(item.Status)
			in.Status = &status
		}
		if _, err := taskService.Create(ctx, session.User.ID, in); err != nil {
			logger.Warn("skipping task", "title", item.Title, "error", err)
			continue
		}
		created++
	}

	logger.Info("seed completed", "user_id", session.User.ID, "email", email, "tasks", created)
	return nil
}

func loadTasks(path string) ([]SeedTask, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	var tasks []SeedTask
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return tasks, nil
}
