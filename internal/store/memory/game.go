// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"jellyarcade/internal/models"
)

// GameStore is the in-memory game repository.
type GameStore struct {
	db *DB
}

// bare copies the game without its category links.
func (r *gameRow) bare() models.Game {
	g := r.Game
	g.Keywords = cloneList(r.Keywords)
	g.CategoryIDs = nil
	g.CategoryOrder = nil
	g.Categories = nil
	return g
}

// withCategories copies the game and attaches its categories ordered the
// way the category listing orders them.
func (db *DB) withCategories(r *gameRow) models.Game {
	g := r.bare()
	g.CategoryIDs = []uuid.UUID{}
	g.CategoryOrder = map[uuid.UUID]int{}
	g.Categories = db.sortedCategories(true, func(c *categoryRow) bool {
		_, ok := r.links[c.ID]
		return ok
	})
	for _, c := range g.Categories {
		g.CategoryIDs = append(g.CategoryIDs, c.ID)
		if p := r.links[c.ID]; p != nil {
			g.CategoryOrder[c.ID] = *p
		}
	}
	return g
}

// sortedGames returns the rows matching keep sorted by less, with their
// categories attached.
func (db *DB) sortedGames(keep func(*gameRow) bool, less func(a, b *gameRow) bool) []models.Game {
	rows := make([]*gameRow, 0, len(db.games))
	for _, r := range db.games {
		if keep == nil || keep(r) {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
	out := make([]models.Game, len(rows))
	for i, r := range rows {
		out[i] = db.withCategories(r)
	}
	return out
}

func byGlobalOrder(a, b *gameRow) bool {
	if a.Order != b.Order {
		return a.Order < b.Order
	}
	return a.seq < b.seq
}

func limitGames(games []models.Game, limit int) []models.Game {
	if limit >= 0 && len(games) > limit {
		return games[:limit]
	}
	return games
}

func (db *DB) gameSlugTaken(loc models.Locale, slug string, exclude uuid.UUID) bool {
	for id, r := range db.games {
		if id != exclude && r.Slug.Get(loc) == slug {
			return true
		}
	}
	return false
}

func (s *GameStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	r, ok := s.db.games[id]
	if !ok {
		return nil, nil
	}
	g := s.db.withCategories(r)
	return &g, nil
}

func (s *GameStore) FindBySlug(ctx context.Context, slug string) (*models.Game, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	list := s.db.sortedGames(func(r *gameRow) bool {
		return r.Slug.TR == slug || r.Slug.EN == slug
	}, byGlobalOrder)
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

func (s *GameStore) List(ctx context.Context, f models.GameFilter) ([]models.Game, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var keep func(*gameRow) bool
	if f.CategoryID != nil {
		id := *f.CategoryID
		keep = func(r *gameRow) bool { _, ok := r.links[id]; return ok }
	}
	return s.db.sortedGames(keep, byGlobalOrder), nil
}

// ListByCategory orders by per-category position with unpositioned games
// last, then by global order.
func (s *GameStore) ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.Game, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.sortedGames(func(r *gameRow) bool {
		_, ok := r.links[categoryID]
		return ok
	}, func(a, b *gameRow) bool {
		pa, pb := a.links[categoryID], b.links[categoryID]
		switch {
		case pa != nil && pb != nil && *pa != *pb:
			return *pa < *pb
		case pa != nil && pb == nil:
			return true
		case pa == nil && pb != nil:
			return false
		}
		return byGlobalOrder(a, b)
	}), nil
}

func (s *GameStore) Showcased(ctx context.Context, limit int) ([]models.Game, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	games := s.db.sortedGames(func(r *gameRow) bool { return r.IsShowcased },
		func(a, b *gameRow) bool { return a.seq > b.seq })
	return limitGames(games, limit), nil
}

func (s *GameStore) MostPlayed(ctx context.Context, limit int) ([]models.Game, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	games := s.db.sortedGames(nil, func(a, b *gameRow) bool {
		if a.PlayCount != b.PlayCount {
			return a.PlayCount > b.PlayCount
		}
		return a.seq > b.seq
	})
	return limitGames(games, limit), nil
}

// Search matches q as a case-insensitive substring of the title,
// description or any keyword in loc.
func (s *GameStore) Search(ctx context.Context, loc models.Locale, q string, limit int) ([]models.Game, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	needle := strings.ToLower(q)
	contains := func(v string) bool { return strings.Contains(strings.ToLower(v), needle) }
	games := s.db.sortedGames(func(r *gameRow) bool {
		if contains(r.Title.Get(loc)) || contains(r.Description.Get(loc)) {
			return true
		}
		for _, k := range r.Keywords.Get(loc) {
			if contains(k) {
				return true
			}
		}
		return false
	}, func(a, b *gameRow) bool {
		if a.PlayCount != b.PlayCount {
			return a.PlayCount > b.PlayCount
		}
		return byGlobalOrder(a, b)
	})
	return limitGames(games, limit), nil
}

func (s *GameStore) SlugTaken(ctx context.Context, loc models.Locale, slug string, exclude *uuid.UUID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var ex uuid.UUID
	if exclude != nil {
		ex = *exclude
	}
	return s.db.gameSlugTaken(loc, slug, ex), nil
}

func (s *GameStore) NextSortOrder(ctx context.Context) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	next := 0
	for _, r := range s.db.games {
		if r.Order+1 > next {
			next = r.Order + 1
		}
	}
	return next, nil
}

func (db *DB) checkGame(g *models.Game, exclude uuid.UUID) error {
	if db.gameSlugTaken(models.LocaleTR, g.Slug.TR, exclude) {
		return duplicate("insert game", "games_slug_tr_key")
	}
	if db.gameSlugTaken(models.LocaleEN, g.Slug.EN, exclude) {
		return duplicate("insert game", "games_slug_en_key")
	}
	for _, cid := range g.CategoryIDs {
		if _, ok := db.categories[cid]; !ok {
			return fmt.Errorf("link game category %s: category does not exist", cid)
		}
	}
	return nil
}

// Create inserts a game with its category links and fills in its ID,
// play count and timestamps.
func (s *GameStore) Create(ctx context.Context, g *models.Game) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if err := s.db.checkGame(g, uuid.Nil); err != nil {
		return fmt.Errorf("create game: %w", err)
	}
	now := s.db.now()
	g.ID = uuid.New()
	g.PlayCount = 0
	g.Keywords = g.Keywords.Normalize()
	g.CreatedAt, g.UpdatedAt = now, now

	r := &gameRow{Game: *g, seq: s.db.next(), links: map[uuid.UUID]*int{}}
	r.Game = r.bare()
	link(r, g)
	s.db.games[g.ID] = r
	return nil
}

// link adds the missing category links of g, keeping existing positions.
func link(r *gameRow, g *models.Game) {
	for _, cid := range g.CategoryIDs {
		if _, ok := r.links[cid]; ok {
			continue
		}
		var position *int
		if p, ok := g.CategoryOrder[cid]; ok {
			position = &p
		}
		r.links[cid] = position
	}
}

// Update modifies a game and syncs its category links. The play count and
// global order are never written here.
func (s *GameStore) Update(ctx context.Context, g *models.Game) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	r, ok := s.db.games[g.ID]
	if !ok {
		return fmt.Errorf("update game: %w", errNoRow)
	}
	if err := s.db.checkGame(g, g.ID); err != nil {
		return fmt.Errorf("update game: %w", err)
	}
	g.UpdatedAt = s.db.now()

	kept := map[uuid.UUID]bool{}
	for _, cid := range g.CategoryIDs {
		kept[cid] = true
	}
	for cid := range r.links {
		if !kept[cid] {
			delete(r.links, cid)
		}
	}
	link(r, g)

	plays, order, created := r.PlayCount, r.Order, r.CreatedAt
	r.Game = *g
	r.Game = r.bare()
	r.PlayCount, r.Order, r.CreatedAt = plays, order, created
	return nil
}

// Delete removes a game with its links and favorites. Notifications keep
// existing without the related game.
func (s *GameStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	delete(s.db.games, id)
	for _, u := range s.db.users {
		u.favorites = withoutID(u.favorites, id)
	}
	for _, n := range s.db.notifications {
		if n.RelatedGameID != nil && *n.RelatedGameID == id {
			n.RelatedGameID = nil
		}
	}
	return nil
}

func withoutID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func (s *GameStore) IncrementPlayCount(ctx context.Context, id uuid.UUID) (int64, bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	r, ok := s.db.games[id]
	if !ok {
		return 0, false, nil
	}
	r.PlayCount++
	return r.PlayCount, true, nil
}

func (s *GameStore) UpdateOrder(ctx context.Context, batch []models.OrderUpdate) ([]uuid.UUID, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	now := s.db.now()
	skipped := []uuid.UUID{}
	for _, u := range batch {
		r, ok := s.db.games[u.ID]
		if !ok {
			skipped = append(skipped, u.ID)
			continue
		}
		r.Order = u.Order
		r.UpdatedAt = now
	}
	return skipped, nil
}

func (s *GameStore) UpdateCategoryOrder(ctx context.Context, categoryID uuid.UUID, batch []models.OrderUpdate) ([]uuid.UUID, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	skipped := []uuid.UUID{}
	for _, u := range batch {
		r, ok := s.db.games[u.ID]
		if !ok {
			skipped = append(skipped, u.ID)
			continue
		}
		if _, linked := r.links[categoryID]; !linked {
			skipped = append(skipped, u.ID)
			continue
		}
		p := u.Order
		r.links[categoryID] = &p
	}
	return skipped, nil
}
