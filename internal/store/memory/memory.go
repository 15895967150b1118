// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package memory implements the repositories in memory for development
// and testing. It enforces the same unique constraints, orderings and
// cascades as the PostgreSQL stores.
package memory

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"jellyarcade/internal/models"
	"jellyarcade/internal/service"
	"jellyarcade/internal/store"
)

// errNoRow is returned by updates that match nothing.
var errNoRow = errors.New("no such row")

// DB holds every table. The repositories returned by its accessors share
// the same lock, so multi-row writes are atomic like a transaction.
type DB struct {
	mu sync.Mutex

	categories    map[uuid.UUID]*categoryRow
	games         map[uuid.UUID]*gameRow
	users         map[uuid.UUID]*userRow
	notifications []*notificationRow

	seq int64
	now func() time.Time
}

type categoryRow struct {
	models.Category
	seq int64
}

type gameRow struct {
	models.Game
	seq int64
	// links maps category id to the per-category position, nil when unset.
	links map[uuid.UUID]*int
}

type userRow struct {
	models.User
	seq            int64
	favorites      []uuid.UUID
	favoriteCats   map[uuid.UUID]bool
	recentlyPlayed []models.RecentPlay
}

type notificationRow struct {
	models.Notification
	seq int64
}

// New creates an empty in-memory database.
func New() *DB {
	return &DB{
		categories: make(map[uuid.UUID]*categoryRow),
		games:      make(map[uuid.UUID]*gameRow),
		users:      make(map[uuid.UUID]*userRow),
		now:        time.Now,
	}
}

// Ensure interfaces are met.
var _ service.CategoryRepository = (*CategoryStore)(nil)
var _ service.GameRepository = (*GameStore)(nil)
var _ service.UserRepository = (*UserStore)(nil)
var _ service.NotificationRepository = (*NotificationStore)(nil)

// Categories returns the category repository.
func (db *DB) Categories() *CategoryStore { return &CategoryStore{db: db} }

// Games returns the game repository.
func (db *DB) Games() *GameStore { return &GameStore{db: db} }

// Users returns the user repository.
func (db *DB) Users() *UserStore { return &UserStore{db: db} }

// Notifications returns the notification repository.
func (db *DB) Notifications() *NotificationStore { return &NotificationStore{db: db} }

// next returns a monotonically increasing sequence used to break ties the
// way created_at does in SQL.
func (db *DB) next() int64 {
	db.seq++
	return db.seq
}

func duplicate(op, constraint string) error {
	return fmt.Errorf("%s: %w (%s)", op, store.ErrDuplicate, constraint)
}

func cloneUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneList(l models.LocalizedList) models.LocalizedList {
	return models.LocalizedList{
		TR: append([]string{}, l.TR...),
		EN: append([]string{}, l.EN...),
	}
}
