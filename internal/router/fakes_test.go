package router

import (
	"context"
	"sync"
	"time"

	apperrors "taskmanager/internal/errors"
	"taskmanager/internal/model"
)

// memDB backs the in-memory repositories used by the HTTP tests.
type memDB struct {
	mu      sync.Mutex
	users   map[uint]model.User
	tasks   map[uint]model.Task
	nextID  uint
	revoked map[string]time.Time
}

func newMemDB() *memDB {
	return &memDB{
		users:   map[uint]model.User{},
		tasks:   map[uint]model.Task{},
		revoked: map[string]time.Time{},
	}
}

func (db *memDB) id() uint {
	db.nextID++
	return db.nextID
}

type memUsers struct{ db *memDB }

func (r memUsers) Create(_ context.Context, user *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Email == user.Email || u.Username == user.Username {
			return apperrors.ErrEmailTaken
		}
	}
	user.ID = r.db.id()
	r.db.users[user.ID] = *user
	return nil
}

func (r memUsers) FindByID(_ context.Context, id uint) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return &u, nil
}

func (r memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r memUsers) EmailTaken(_ context.Context, email string, exceptID uint) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Email == email && u.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (r memUsers) Update(_ context.Context, id uint, update model.ProfileUpdate) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	if update.Firstname != nil {
		u.Firstname = *update.Firstname
	}
	if update.Lastname != nil {
		u.Lastname = update.Lastname
	}
	if update.Email != nil {
		u.Email = *update.Email
	}
	if update.ProfilePicture != nil {
		u.ProfilePicture = update.ProfilePicture
	}
	r.db.users[id] = u
	return nil
}

func (r memUsers) UpdatePassword(_ context.Context, id uint, hash string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.PasswordHash = hash
	r.db.users[id] = u
	return nil
}

func (r memUsers) Delete(_ context.Context, id uint) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.users[id]; !ok {
		return apperrors.ErrUserNotFound
	}
	for taskID, task := range r.db.tasks {
		if task.UserID == id {
			delete(r.db.tasks, taskID)
		}
	}
	delete(r.db.users, id)
	return nil
}

type memTasks struct{ db *memDB }

func (r memTasks) Create(_ context.Context, task *model.Task) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	task.ID = r.db.id()
	r.db.tasks[task.ID] = *task
	return nil
}

func (r memTasks) ListByOwner(_ context.Context, ownerID uint) ([]model.Task, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	tasks := make([]model.Task, 0)
	for _, task := range r.db.tasks {
		if task.UserID == ownerID {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func (r memTasks) FindByIDAndOwner(_ context.Context, id, ownerID uint) (*model.Task, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	task, ok := r.db.tasks[id]
	if !ok || task.UserID != ownerID {
		return nil, apperrors.ErrTaskNotFound
	}
	return &task, nil
}

func (r memTasks) Update(_ context.Context, id, ownerID uint, update model.TaskUpdate) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	task, ok := r.db.tasks[id]
	if !ok || task.UserID != ownerID {
		return apperrors.ErrTaskNotFound
	}
	if update.Title != nil {
		task.Title = *update.Title
	}
	if update.Description != nil {
		task.Description = update.Description
	}
	if update.Status != nil {
		task.Status = *update.Status
	}
	r.db.tasks[id] = task
	return nil
}

func (r memTasks) Delete(_ context.Context, id, ownerID uint) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	task, ok := r.db.tasks[id]
	if !ok || task.UserID != ownerID {
		return apperrors.ErrTaskNotFound
	}
	delete(r.db.tasks, id)
	return nil
}

type memRevocations struct{ db *memDB }

func (r memRevocations) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.revoked[tokenID] = expiresAt
	return nil
}

func (r memRevocations) IsRevoked(_ context.Context, tokenID string) bool {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	_, ok := r.db.revoked[tokenID]
	return ok
}
