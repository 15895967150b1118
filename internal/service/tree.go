// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"github.com/google/uuid"

	"jellyarcade/internal/models"
)

// BuildCategoryTree nests a flat category list under parentID. Input order
// is preserved within each sibling set. Children is left nil for leaves.
func BuildCategoryTree(flat []models.Category, parentID *uuid.UUID) []models.CategoryNode {
	byParent := make(map[uuid.UUID][]models.Category)
	var roots []models.Category
	for _, c := range flat {
		if c.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		byParent[*c.ParentID] = append(byParent[*c.ParentID], c)
	}

	top := roots
	if parentID != nil {
		top = byParent[*parentID]
	}
	visited := make(map[uuid.UUID]bool)
	result := attachChildren(top, byParent, visited)
	if result == nil {
		result = []models.CategoryNode{}
	}
	return result
}

// attachChildren recurses per sibling set. visited stops corrupt data with
// a parent loop from recursing forever.
func attachChildren(level []models.Category, byParent map[uuid.UUID][]models.Category, visited map[uuid.UUID]bool) []models.CategoryNode {
	var nodes []models.CategoryNode
	for _, c := range level {
		if visited[c.ID] {
			continue
		}
		visited[c.ID] = true
		nodes = append(nodes, models.CategoryNode{
			Category: c,
			Children: attachChildren(byParent[c.ID], byParent, visited),
		})
	}
	return nodes
}

// clampIndex pins i to [0, n]. Out-of-range indexes insert at the nearest end.
func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

// withoutID returns ids with every occurrence of id removed.
func withoutID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// insertAt removes id from ids and reinserts it at the clamped index.
func insertAt(ids []uuid.UUID, id uuid.UUID, index int) []uuid.UUID {
	rest := withoutID(ids, id)
	index = clampIndex(index, len(rest))
	out := make([]uuid.UUID, 0, len(rest)+1)
	out = append(out, rest[:index]...)
	out = append(out, id)
	return append(out, rest[index:]...)
}

// renumber assigns 0..n-1 to ids under parentID.
func renumber(ids []uuid.UUID, parentID *uuid.UUID) []models.CategoryPosition {
	positions := make([]models.CategoryPosition, len(ids))
	for i, id := range ids {
		positions[i] = models.CategoryPosition{ID: id, ParentID: parentID, Order: i}
	}
	return positions
}

func categoryIDs(list []models.Category) []uuid.UUID {
	ids := make([]uuid.UUID, len(list))
	for i := range list {
		ids[i] = list[i].ID
	}
	return ids
}

// createsCycle reports whether making newParent the parent of id would
// put id among its own ancestors. The walk uses the arena of all
// categories keyed by id and stops at a root or a revisited node.
func createsCycle(arena map[uuid.UUID]*models.Category, id uuid.UUID, newParent *uuid.UUID) bool {
	visited := make(map[uuid.UUID]bool)
	for cur := newParent; cur != nil; {
		if *cur == id {
			return true
		}
		if visited[*cur] {
			return true
		}
		visited[*cur] = true
		node, ok := arena[*cur]
		if !ok {
			return false
		}
		cur = node.ParentID
	}
	return false
}

func arenaOf(list []models.Category) map[uuid.UUID]*models.Category {
	arena := make(map[uuid.UUID]*models.Category, len(list))
	for i := range list {
		arena[list[i].ID] = &list[i]
	}
	return arena
}
