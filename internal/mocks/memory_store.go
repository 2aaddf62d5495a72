package mocks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/tareas-api/internal/domain"
	"github.com/phrazzld/tareas-api/internal/store"
)

// MemoryDB is an in-memory implementation of all stores with the same
// observable behavior as the PostgreSQL stores: unique emails, unique
// category names per owner, cascading user deletion and owner-scoped task
// queries. Entities are copied in and out so callers never share state
// with the store.
type MemoryDB struct {
	mu         sync.Mutex
	txMu       sync.Mutex
	users      map[uuid.UUID]domain.User
	categories map[uuid.UUID]domain.Category
	tasks      map[uuid.UUID]domain.Task
}

// NewMemoryDB creates an empty MemoryDB.
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		users:      make(map[uuid.UUID]domain.User),
		categories: make(map[uuid.UUID]domain.Category),
		tasks:      make(map[uuid.UUID]domain.Task),
	}
}

// Stores returns the store bundle backed by db.
func (db *MemoryDB) Stores() store.Stores {
	return store.Stores{
		Users:      &MemoryUserStore{db: db},
		Categories: &MemoryCategoryStore{db: db},
		Tasks:      &MemoryTaskStore{db: db},
	}
}

// InTx implements store.Transactor. Transactions are serialized; when fn
// fails every change it made is discarded.
func (db *MemoryDB) InTx(ctx context.Context, fn func(ctx context.Context, s store.Stores) error) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()

	snapshot := db.snapshot()
	if err := fn(ctx, db.Stores()); err != nil {
		db.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	users      map[uuid.UUID]domain.User
	categories map[uuid.UUID]domain.Category
	tasks      map[uuid.UUID]domain.Task
}

func (db *MemoryDB) snapshot() memorySnapshot {
	db.mu.Lock()
	defer db.mu.Unlock()

	s := memorySnapshot{
		users:      make(map[uuid.UUID]domain.User, len(db.users)),
		categories: make(map[uuid.UUID]domain.Category, len(db.categories)),
		tasks:      make(map[uuid.UUID]domain.Task, len(db.tasks)),
	}
	for k, v := range db.users {
		s.users[k] = v
	}
	for k, v := range db.categories {
		s.categories[k] = v
	}
	for k, v := range db.tasks {
		s.tasks[k] = v
	}
	return s
}

func (db *MemoryDB) restore(s memorySnapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users, db.categories, db.tasks = s.users, s.categories, s.tasks
}

// TaskCount returns the number of stored tasks.
func (db *MemoryDB) TaskCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.tasks)
}

// CategoryCount returns the number of stored categories.
func (db *MemoryDB) CategoryCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.categories)
}

// MemoryUserStore implements store.UserStore.
type MemoryUserStore struct{ db *MemoryDB }

var _ store.UserStore = (*MemoryUserStore)(nil)

// Create implements store.UserStore.
func (s *MemoryUserStore) Create(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, u := range s.db.users {
		if strings.EqualFold(u.Email, user.Email) {
			return store.ErrEmailExists
		}
	}
	s.db.users[user.ID] = *user
	return nil
}

// GetByID implements store.UserStore.
func (s *MemoryUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	u, ok := s.db.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return &u, nil
}

// GetByEmail implements store.UserStore.
func (s *MemoryUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	for _, u := range s.db.users {
		if strings.EqualFold(u.Email, email) {
			found := u
			return &found, nil
		}
	}
	return nil, store.ErrUserNotFound
}

// Delete implements store.UserStore. Owned tasks and categories go with
// the user.
func (s *MemoryUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.users[id]; !ok {
		return store.ErrUserNotFound
	}
	delete(s.db.users, id)

	for tid, t := range s.db.tasks {
		if t.OwnerID == id {
			delete(s.db.tasks, tid)
		}
	}
	for cid, c := range s.db.categories {
		if c.OwnerID != nil && *c.OwnerID == id {
			delete(s.db.categories, cid)
		}
	}
	for tid, t := range s.db.tasks {
		if t.CompletedByID != nil && *t.CompletedByID == id {
			t.CompletedByID = nil
			s.db.tasks[tid] = t
		}
	}
	return nil
}

// MemoryCategoryStore implements store.CategoryStore.
type MemoryCategoryStore struct{ db *MemoryDB }

var _ store.CategoryStore = (*MemoryCategoryStore)(nil)

// sameOwner reports whether two nullable owner references are equal.
func sameOwner(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *MemoryCategoryStore) nameTakenLocked(owner *uuid.UUID, name string, except uuid.UUID) bool {
	for _, c := range s.db.categories {
		if c.ID != except && sameOwner(c.OwnerID, owner) && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

// Create implements store.CategoryStore.
func (s *MemoryCategoryStore) Create(ctx context.Context, category *domain.Category) error {
	if err := category.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if category.OwnerID != nil {
		if _, ok := s.db.users[*category.OwnerID]; !ok {
			return fmt.Errorf("%w: owner does not exist", store.ErrInvalidEntity)
		}
	}
	if s.nameTakenLocked(category.OwnerID, category.Name, uuid.Nil) {
		return store.ErrCategoryExists
	}
	s.db.categories[category.ID] = *category
	return nil
}

// GetByID implements store.CategoryStore.
func (s *MemoryCategoryStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	c, ok := s.db.categories[id]
	if !ok {
		return nil, store.ErrCategoryNotFound
	}
	return &c, nil
}

// Update implements store.CategoryStore.
func (s *MemoryCategoryStore) Update(ctx context.Context, category *domain.Category) error {
	if err := category.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	existing, ok := s.db.categories[category.ID]
	if !ok {
		return store.ErrCategoryNotFound
	}
	if s.nameTakenLocked(existing.OwnerID, category.Name, category.ID) {
		return store.ErrCategoryExists
	}

	existing.Name = category.Name
	existing.Color = category.Color
	existing.Icon = category.Icon
	s.db.categories[category.ID] = existing
	return nil
}

// Delete implements store.CategoryStore. Like the database foreign key, it
// refuses to delete a category that tasks still reference.
func (s *MemoryCategoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.categories[id]; !ok {
		return store.ErrCategoryNotFound
	}
	for _, t := range s.db.tasks {
		if t.CategoryID != nil && *t.CategoryID == id {
			return fmt.Errorf("%w: category is referenced by tasks", store.ErrDeleteFailed)
		}
	}
	delete(s.db.categories, id)
	return nil
}

// ListVisible implements store.CategoryStore.
func (s *MemoryCategoryStore) ListVisible(ctx context.Context, ownerID uuid.UUID) ([]*domain.Category, error) {
	return s.filter(ownerID, func(*domain.Category) bool { return true }), nil
}

// SearchByName implements store.CategoryStore.
func (s *MemoryCategoryStore) SearchByName(
	ctx context.Context,
	ownerID uuid.UUID,
	partial string,
) ([]*domain.Category, error) {
	needle := strings.ToLower(partial)
	return s.filter(ownerID, func(c *domain.Category) bool {
		return strings.Contains(strings.ToLower(c.Name), needle)
	}), nil
}

// ExistsByName implements store.CategoryStore.
func (s *MemoryCategoryStore) ExistsByName(ctx context.Context, ownerID uuid.UUID, name string) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.nameTakenLocked(&ownerID, name, uuid.Nil), nil
}

func (s *MemoryCategoryStore) filter(ownerID uuid.UUID, keep func(*domain.Category) bool) []*domain.Category {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	result := make([]*domain.Category, 0)
	for _, c := range s.db.categories {
		c := c
		if (c.IsOwnedBy(ownerID) || c.IsShared()) && keep(&c) {
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := strings.ToLower(result[i].Name), strings.ToLower(result[j].Name)
		if a != b {
			return a < b
		}
		return !result[i].IsShared() && result[j].IsShared()
	})
	return result
}

// MemoryTaskStore implements store.TaskStore.
type MemoryTaskStore struct{ db *MemoryDB }

var _ store.TaskStore = (*MemoryTaskStore)(nil)

// Create implements store.TaskStore.
func (s *MemoryTaskStore) Create(ctx context.Context, task *domain.Task) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.users[task.OwnerID]; !ok {
		return fmt.Errorf("%w: owner does not exist", store.ErrInvalidEntity)
	}
	if err := s.checkCategoryLocked(task.CategoryID); err != nil {
		return err
	}
	s.db.tasks[task.ID] = *task
	return nil
}

// GetByID implements store.TaskStore.
func (s *MemoryTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	t, ok := s.db.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return &t, nil
}

// Update implements store.TaskStore.
func (s *MemoryTaskStore) Update(ctx context.Context, task *domain.Task) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	existing, ok := s.db.tasks[task.ID]
	if !ok {
		return store.ErrTaskNotFound
	}
	if err := s.checkCategoryLocked(task.CategoryID); err != nil {
		return err
	}

	updated := *task
	updated.OwnerID = existing.OwnerID
	updated.CreatedAt = existing.CreatedAt
	s.db.tasks[task.ID] = updated
	return nil
}

// Delete implements store.TaskStore.
func (s *MemoryTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(s.db.tasks, id)
	return nil
}

// DetachCategory implements store.TaskStore.
func (s *MemoryTaskStore) DetachCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	var n int64
	for id, t := range s.db.tasks {
		if t.CategoryID != nil && *t.CategoryID == categoryID {
			t.CategoryID = nil
			s.db.tasks[id] = t
			n++
		}
	}
	return n, nil
}

// Find implements store.TaskStore.
func (s *MemoryTaskStore) Find(ctx context.Context, ownerID uuid.UUID, q store.TaskQuery) ([]*domain.Task, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("%w: owner is required", store.ErrInvalidEntity)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	keyword := strings.ToLower(q.Keyword)
	result := make([]*domain.Task, 0)
	for _, t := range s.db.tasks {
		t := t
		if t.OwnerID != ownerID {
			continue
		}
		if q.Priority != nil && t.Priority != *q.Priority {
			continue
		}
		if q.MaxDuration != nil && t.DurationMinutes > *q.MaxDuration {
			continue
		}
		if q.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *q.CategoryID) {
			continue
		}
		if keyword != "" &&
			!strings.Contains(strings.ToLower(t.Title), keyword) &&
			!strings.Contains(strings.ToLower(t.Description), keyword) {
			continue
		}
		if q.DueFrom != nil && (t.DueAt == nil || t.DueAt.Before(*q.DueFrom)) {
			continue
		}
		if q.DueBefore != nil && (t.DueAt == nil || !t.DueAt.Before(*q.DueBefore)) {
			continue
		}
		result = append(result, &t)
	}

	sortTasks(result, q.SortBy)
	return result, nil
}

func (s *MemoryTaskStore) checkCategoryLocked(categoryID *uuid.UUID) error {
	if categoryID == nil {
		return nil
	}
	if _, ok := s.db.categories[*categoryID]; !ok {
		return fmt.Errorf("%w: category does not exist", store.ErrInvalidEntity)
	}
	return nil
}

// sortTasks orders tasks the way the SQL store does. Ties fall back to
// creation time and then ID so results are deterministic.
func sortTasks(tasks []*domain.Task, by store.SortField) {
	base := func(a, b *domain.Task) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		switch by {
		case store.SortByTitle:
			ta, tb := strings.ToLower(a.Title), strings.ToLower(b.Title)
			if ta != tb {
				return ta < tb
			}
		case store.SortByDuration:
			if a.DurationMinutes != b.DurationMinutes {
				return a.DurationMinutes < b.DurationMinutes
			}
		case store.SortByPriority:
			if a.Priority != b.Priority {
				return a.Priority.Less(b.Priority)
			}
		case store.SortByDueDate:
			switch {
			case a.DueAt == nil && b.DueAt != nil:
				return false
			case a.DueAt != nil && b.DueAt == nil:
				return true
			case a.DueAt != nil && b.DueAt != nil && !a.DueAt.Equal(*b.DueAt):
				return a.DueAt.Before(*b.DueAt)
			}
		}
		return base(a, b)
	})
}
