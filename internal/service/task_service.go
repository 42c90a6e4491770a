package service

import (
	"context"
	"strings"
	"time"

	apperrors "taskmanager/internal/errors"
	"taskmanager/internal/model"
	"taskmanager/internal/repository"
)

// NewTask carries the fields of a task being created.
type NewTask struct {
	Title       string
	Description *string
	Status      *model.TaskStatus
}

// TaskService manages tasks on behalf of their owner.
type TaskService interface {
	Create(ctx context.Context, ownerID uint, in NewTask) (*model.Task, error)
	List(ctx context.Context, ownerID uint) ([]model.Task, error)
	Get(ctx context.Context, ownerID, taskID uint) (*model.Task, error)
	Update(ctx context.Context, ownerID, taskID uint, update model.TaskUpdate) (*model.Task, error)
	Delete(ctx context.Context, ownerID, taskID uint) error
}

type taskService struct {
	tasks repository.TaskRepository
}

// NewTaskService creates a new task service.
func NewTaskService(tasks repository.TaskRepository) TaskService {
	return &taskService{tasks: tasks}
}

func (s *taskService) Create(ctx context.Context, ownerID uint, in NewTask) (*model.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperrors.ErrTitleRequired
	}
	status := model.TaskStatusPending
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, apperrors.ErrInvalidStatus
		}
		status = *in.Status
	}

	task := &model.Task{
		UserID:      ownerID,
		Title:       in.Title,
		Description: in.Description,
		Status:      status,
		// Stored timestamps keep millisecond precision.
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) List(ctx context.Context, ownerID uint) ([]model.Task, error) {
	return s.tasks.ListByOwner(ctx, ownerID)
}

func (s *taskService) Get(ctx context.Context, ownerID, taskID uint) (*model.Task, error) {
	return s.tasks.FindByIDAndOwner(ctx, taskID, ownerID)
}

// Update applies only the supplied fields and returns the task as stored afterwards.
func (s *taskService) Update(ctx context.Context, ownerID, taskID uint, update model.TaskUpdate) (*model.Task, error) {
	if update.Empty() {
		return nil, apperrors.ErrNoFieldsToUpdate
	}
	if update.Title != nil && strings.TrimSpace(*update.Title) == "" {
		return nil, apperrors.ErrTitleRequired
	}
	if update.Status != nil && !update.Status.Valid() {
		return nil, apperrors.ErrInvalidStatus
	}

	if err := s.tasks.Update(ctx, taskID, ownerID, update); err != nil {
		return nil, err
	}
	return s.tasks.FindByIDAndOwner(ctx, taskID, ownerID)
}

func (s *taskService) Delete(ctx context.Context, ownerID, taskID uint) error {
	return s.tasks.Delete(ctx, taskID, ownerID)
}
