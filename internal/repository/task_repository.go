package repository

import (
	"context"
	stderrors "errors"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	apperrors "taskmanager/internal/errors"
	"taskmanager/internal/model"
)

// TaskRepository persists tasks. Every lookup is scoped by owner so another
// user's task is indistinguishable from a missing one.
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	ListByOwner(ctx context.Context, ownerID uint) ([]model.Task, error)
	FindByIDAndOwner(ctx context.Context, id, ownerID uint) (*model.Task, error)
	Update(ctx context.Context, id, ownerID uint, update model.TaskUpdate) error
	Delete(ctx context.Context, id, ownerID uint) error
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return errors.Wrap(err, "create task")
	}
	return nil
}

func (r *taskRepository) ListByOwner(ctx context.Context, ownerID uint) ([]model.Task, error) {
	tasks := make([]model.Task, 0)
	if err := r.db.WithContext(ctx).Where("user_id = ?", ownerID).Find(&tasks).Error; err != nil {
		return nil, errors.Wrap(err, "list tasks")
	}
	return tasks, nil
}

func (r *taskRepository) FindByIDAndOwner(ctx context.Context, id, ownerID uint) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).First(&task).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, errors.Wrap(err, "find task")
	}
	return &task, nil
}

// Update applies the supplied columns in a single statement.
func (r *taskRepository) Update(ctx context.Context, id, ownerID uint, update model.TaskUpdate) error {
	result := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND user_id = ?", id, ownerID).
		Updates(update.Columns())
	if result.Error != nil {
		return errors.Wrap(result.Error, "update task")
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id, ownerID uint) error {
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).Delete(&model.Task{})
	if result.Error != nil {
		return errors.Wrap(result.Error, "delete task")
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrTaskNotFound
	}
	return nil
}
