// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"jellyarcade/internal/imaging"
	"jellyarcade/internal/models"
	"jellyarcade/internal/slug"
)

// Listing limits.
const (
	ShowcasedLimit     = 3
	MostPlayedLimit    = 10
	MaxMostPlayedLimit = 50
	SearchLimit        = 10
)

// GameInput is the body of a game create.
type GameInput struct {
	Title       models.Localized
	Description models.Localized
	Keywords    models.LocalizedList
	CategoryIDs []uuid.UUID
	InstantLink string
	Orientation models.Orientation
	IsNew       *bool
	IsPopular   *bool
	IsActive    *bool
	IsShowcased *bool
}

// GamePatch is a partial game update. Blank strings, blank translations
// and nil fields keep the current value.
type GamePatch struct {
	Title       models.Localized
	Description models.Localized
	Keywords    models.LocalizedList
	CategoryIDs []uuid.UUID
	InstantLink string
	Orientation models.Orientation
	IsNew       *bool
	IsPopular   *bool
	IsActive    *bool
	IsShowcased *bool
}

// OrderResult reports a bulk order update.
type OrderResult struct {
	Updated int         `json:"updated"`
	Skipped []uuid.UUID `json:"skipped"`
}

// GameService manages the game catalog and play tracking.
type GameService struct {
	games      GameRepository
	categories CategoryRepository
	users      UserRepository
	media      Media
	locks      Locker
	notifier   *NotificationService

	// Plays, when set, is incremented on every recorded play.
	Plays Counter
	now   func() time.Time
}

// NewGameService wires a GameService. notifier may be nil.
func NewGameService(games GameRepository, categories CategoryRepository, users UserRepository, media Media, locks Locker, notifier *NotificationService) *GameService {
	return &GameService{
		games:      games,
		categories: categories,
		users:      users,
		media:      media,
		locks:      locks,
		notifier:   notifier,
		now:        time.Now,
	}
}

// List returns games in default order, optionally filtered by category.
func (s *GameService) List(ctx context.Context, f models.GameFilter) ([]models.Game, error) {
	games, err := s.games.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return games, nil
}

// Get returns one game with its categories.
func (s *GameService) Get(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	g, err := s.games.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find game: %w", err)
	}
	if g == nil {
		return nil, notFound("game")
	}
	return g, nil
}

// BySlug returns the game whose Turkish or English slug is slug.
func (s *GameService) BySlug(ctx context.Context, value string) (*models.Game, error) {
	g, err := s.games.FindBySlug(ctx, strings.ToLower(strings.TrimSpace(value)))
	if err != nil {
		return nil, fmt.Errorf("find game by slug: %w", err)
	}
	if g == nil {
		return nil, notFound("game")
	}
	return g, nil
}

// Showcased returns the newest showcased games.
func (s *GameService) Showcased(ctx context.Context) ([]models.Game, error) {
	games, err := s.games.Showcased(ctx, ShowcasedLimit)
	if err != nil {
		return nil, fmt.Errorf("list showcased games: %w", err)
	}
	return games, nil
}

// MostPlayed returns games by descending play count. limit <= 0 selects
// the default.
func (s *GameService) MostPlayed(ctx context.Context, limit int) ([]models.Game, error) {
	if limit <= 0 {
		limit = MostPlayedLimit
	}
	limit = min(limit, MaxMostPlayedLimit)
	games, err := s.games.MostPlayed(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list most played games: %w", err)
	}
	return games, nil
}

// Search matches q literally against the fields of loc.
func (s *GameService) Search(ctx context.Context, q string, loc models.Locale) ([]models.Game, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, validationError("search query is required")
	}
	games, err := s.games.Search(ctx, loc, q, SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search games: %w", err)
	}
	return games, nil
}

// ByCategory returns the games of a category in per-category order.
func (s *GameService) ByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.Game, error) {
	if err := s.requireCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	games, err := s.games.ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list games by category: %w", err)
	}
	return games, nil
}

// Create validates in, uploads the image and inserts the game at the end
// of the default listing. Subscribers are notified afterwards.
func (s *GameService) Create(ctx context.Context, in GameInput, image []byte) (*models.Game, error) {
	if !in.Title.Complete() {
		return nil, validationError("game title is required in both languages")
	}
	if err := validateInstantLink(in.InstantLink); err != nil {
		return nil, err
	}
	categoryIDs := dedupeIDs(in.CategoryIDs)
	if len(categoryIDs) == 0 {
		return nil, validationError("at least one category is required")
	}
	if len(image) == 0 {
		return nil, validationError("game image is required")
	}
	orientation := in.Orientation
	if orientation == "" {
		orientation = models.OrientationHorizontal
	}
	if !orientation.Valid() {
		return nil, validationError("orientation must be horizontal or vertical")
	}
	if err := s.requireCategories(ctx, categoryIDs); err != nil {
		return nil, err
	}
	base, err := slug.Base(in.Title, slug.GameSuffix)
	if err != nil {
		return nil, validationError("game title does not produce a usable slug")
	}

	imageURL, err := s.media.Upload(ctx, image, imaging.GameImage)
	if err != nil {
		return nil, newError(KindImageUpload, "game image upload failed", err)
	}

	g := &models.Game{
		Title:       in.Title,
		Description: in.Description,
		Keywords:    in.Keywords.Normalize(),
		CategoryIDs: categoryIDs,
		InstantLink: strings.TrimSpace(in.InstantLink),
		Image:       imageURL,
		Orientation: orientation,
		IsNew:       boolOr(in.IsNew, false),
		IsPopular:   boolOr(in.IsPopular, false),
		IsActive:    boolOr(in.IsActive, true),
		IsShowcased: boolOr(in.IsShowcased, false),
	}
	if err := s.insert(ctx, g, base); err != nil {
		if derr := s.media.Destroy(ctx, imageURL); derr != nil {
			slog.Warn("destroy orphaned game image", "url", imageURL, "error", derr)
		}
		return nil, err
	}

	s.announce(ctx, g)
	return g, nil
}

func (s *GameService) insert(ctx context.Context, g *models.Game, base models.Localized) error {
	unlock, err := s.locks.Lock(ctx, gamesScope)
	if err != nil {
		return fmt.Errorf("lock games: %w", err)
	}
	defer unlock()

	order, err := s.games.NextSortOrder(ctx)
	if err != nil {
		return fmt.Errorf("next game order: %w", err)
	}
	slugs, err := slug.Resolve(ctx, base, s.slugTaken(nil))
	if err != nil {
		return s.slugError(err)
	}
	g.Order, g.Slug = order, slugs
	if err := s.games.Create(ctx, g); err != nil {
		return writeError("game", err)
	}
	return nil
}

// announce fans out the new game notifications. Failures are logged and
// never undo the create.
func (s *GameService) announce(ctx context.Context, g *models.Game) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyNewGame(ctx, g); err != nil {
		slog.Error("notify new game", "game", g.ID, "error", err)
	}
	for _, id := range g.CategoryIDs {
		c, err := s.categories.FindByID(ctx, id)
		if err != nil || c == nil {
			slog.Error("load category for notification", "category", id, "error", err)
			continue
		}
		if err := s.notifier.NotifyFavoriteCategory(ctx, g, c); err != nil {
			slog.Error("notify favorite category", "game", g.ID, "category", id, "error", err)
		}
	}
}

// Update applies patch. Slugs are regenerated only when a title changes;
// the play count is never written.
func (s *GameService) Update(ctx context.Context, id uuid.UUID, patch GamePatch, image []byte) (*models.Game, error) {
	g, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	title := patch.Title.Merge(g.Title)
	titleChanged := title != g.Title
	if !title.Complete() {
		return nil, validationError("game title is required in both languages")
	}
	if patch.InstantLink != "" {
		if err := validateInstantLink(patch.InstantLink); err != nil {
			return nil, err
		}
		g.InstantLink = strings.TrimSpace(patch.InstantLink)
	}
	if patch.CategoryIDs != nil {
		ids := dedupeIDs(patch.CategoryIDs)
		if len(ids) == 0 {
			return nil, validationError("at least one category is required")
		}
		if err := s.requireCategories(ctx, ids); err != nil {
			return nil, err
		}
		g.CategoryIDs = ids
	}
	if patch.Orientation != "" {
		if !patch.Orientation.Valid() {
			return nil, validationError("orientation must be horizontal or vertical")
		}
		g.Orientation = patch.Orientation
	}

	if titleChanged {
		base, err := slug.Base(title, slug.GameSuffix)
		if err != nil {
			return nil, validationError("game title does not produce a usable slug")
		}
		slugs, err := slug.Resolve(ctx, base, s.slugTaken(&g.ID))
		if err != nil {
			return nil, s.slugError(err)
		}
		g.Title, g.Slug = title, slugs
	}
	g.Description = patch.Description.Merge(g.Description)
	g.Keywords = patch.Keywords.Merge(g.Keywords).Normalize()
	g.IsNew = boolOr(patch.IsNew, g.IsNew)
	g.IsPopular = boolOr(patch.IsPopular, g.IsPopular)
	g.IsActive = boolOr(patch.IsActive, g.IsActive)
	g.IsShowcased = boolOr(patch.IsShowcased, g.IsShowcased)

	oldImage := ""
	if len(image) > 0 {
		uploaded, err := s.media.Upload(ctx, image, imaging.GameImage)
		if err != nil {
			return nil, newError(KindImageUpload, "game image upload failed", err)
		}
		oldImage, g.Image = g.Image, uploaded
	}

	if err := s.games.Update(ctx, g); err != nil {
		if oldImage != "" {
			if derr := s.media.Destroy(ctx, g.Image); derr != nil {
				slog.Warn("destroy orphaned game image", "url", g.Image, "error", derr)
			}
		}
		return nil, writeError("game", err)
	}
	if oldImage != "" {
		if err := s.media.Destroy(ctx, oldImage); err != nil {
			slog.Warn("destroy replaced game image", "url", oldImage, "error", err)
		}
	}
	return s.Get(ctx, id)
}

// Delete removes a game and its image. Media failures abort the delete.
func (s *GameService) Delete(ctx context.Context, id uuid.UUID) error {
	g, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if g.Image != "" {
		if err := s.media.Destroy(ctx, g.Image); err != nil {
			return fmt.Errorf("destroy game image: %w", err)
		}
	}
	if err := s.games.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	return nil
}

// Reorder moves a game to newIndex in the default listing and renumbers
// every game to 0..n-1.
func (s *GameService) Reorder(ctx context.Context, id uuid.UUID, newIndex int) ([]models.Game, error) {
	unlock, err := s.locks.Lock(ctx, gamesScope)
	if err != nil {
		return nil, fmt.Errorf("lock games: %w", err)
	}
	defer unlock()

	games, err := s.games.List(ctx, models.GameFilter{})
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	ids := make([]uuid.UUID, len(games))
	for i := range games {
		ids[i] = games[i].ID
	}
	if !slices.Contains(ids, id) {
		return nil, notFound("game")
	}

	ids = insertAt(ids, id, newIndex)
	batch := make([]models.OrderUpdate, len(ids))
	for i, gid := range ids {
		batch[i] = models.OrderUpdate{ID: gid, Order: i}
	}
	if _, err := s.games.UpdateOrder(ctx, batch); err != nil {
		return nil, fmt.Errorf("update game order: %w", err)
	}
	return s.games.List(ctx, models.GameFilter{})
}

// UpdateOrder applies a batch of global orders. Unknown ids are reported
// in the result instead of failing the batch.
func (s *GameService) UpdateOrder(ctx context.Context, batch []models.OrderUpdate) (*OrderResult, error) {
	if len(batch) == 0 {
		return nil, validationError("order batch is empty")
	}
	unlock, err := s.locks.Lock(ctx, gamesScope)
	if err != nil {
		return nil, fmt.Errorf("lock games: %w", err)
	}
	defer unlock()

	batch = dedupeOrders(batch)
	skipped, err := s.games.UpdateOrder(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("update game order: %w", err)
	}
	return orderResult(len(batch), skipped), nil
}

// UpdateCategoryOrder applies a batch of positions within one category.
// Games outside the category are reported as skipped.
func (s *GameService) UpdateCategoryOrder(ctx context.Context, categoryID uuid.UUID, batch []models.OrderUpdate) (*OrderResult, error) {
	if len(batch) == 0 {
		return nil, validationError("order batch is empty")
	}
	if err := s.requireCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	unlock, err := s.locks.Lock(ctx, categoryGamesScope(categoryID))
	if err != nil {
		return nil, fmt.Errorf("lock category games: %w", err)
	}
	defer unlock()

	batch = dedupeOrders(batch)
	skipped, err := s.games.UpdateCategoryOrder(ctx, categoryID, batch)
	if err != nil {
		return nil, fmt.Errorf("update category game order: %w", err)
	}
	return orderResult(len(batch), skipped), nil
}

// RecordPlay counts one play of the game and, for a signed-in player,
// prepends it to their recently played list.
func (s *GameService) RecordPlay(ctx context.Context, gameID uuid.UUID, userID *uuid.UUID) (int64, error) {
	count, ok, err := s.games.IncrementPlayCount(ctx, gameID)
	if err != nil {
		return 0, fmt.Errorf("increment play count: %w", err)
	}
	if !ok {
		return 0, notFound("game")
	}
	if s.Plays != nil {
		s.Plays.Inc()
	}
	if userID != nil {
		if err := s.users.PushRecentPlay(ctx, *userID, gameID, s.now().UTC()); err != nil {
			return 0, fmt.Errorf("record recent play: %w", err)
		}
	}
	return count, nil
}

func (s *GameService) requireCategory(ctx context.Context, id uuid.UUID) error {
	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("find category: %w", err)
	}
	if c == nil {
		return notFound("category")
	}
	return nil
}

func (s *GameService) requireCategories(ctx context.Context, ids []uuid.UUID) error {
	n, err := s.categories.CountExisting(ctx, ids)
	if err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if n != len(ids) {
		return validationError("one or more categories do not exist")
	}
	return nil
}

func (s *GameService) slugTaken(exclude *uuid.UUID) slug.TakenFunc {
	return func(ctx context.Context, loc models.Locale, candidate string) (bool, error) {
		return s.games.SlugTaken(ctx, loc, candidate, exclude)
	}
}

func (s *GameService) slugError(err error) error {
	if errors.Is(err, slug.ErrExhausted) {
		return &Error{Kind: KindConflict, Message: "no free slug for this title", Err: err}
	}
	return fmt.Errorf("resolve game slug: %w", err)
}

// validateInstantLink accepts absolute http and https URLs only.
func validateInstantLink(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return validationError("instantLink must be a valid http or https URL")
	}
	return nil
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// dedupeOrders keeps one entry per game. A repeated id takes its last
// order and keeps the position of its first appearance.
func dedupeOrders(batch []models.OrderUpdate) []models.OrderUpdate {
	at := make(map[uuid.UUID]int, len(batch))
	out := make([]models.OrderUpdate, 0, len(batch))
	for _, u := range batch {
		if i, ok := at[u.ID]; ok {
			out[i].Order = u.Order
			continue
		}
		at[u.ID] = len(out)
		out = append(out, u)
	}
	return out
}

func orderResult(total int, skipped []uuid.UUID) *OrderResult {
	if skipped == nil {
		skipped = []uuid.UUID{}
	}
	return &OrderResult{Updated: total - len(skipped), Skipped: skipped}
}
