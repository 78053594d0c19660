// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package tree assembles flat category records into a forest and provides
// the search filter and traversal helpers used by the picker.
package tree

import (
	"catpicker/internal/models"
	"catpicker/internal/status"
)

// Build assembles records into a forest using their parent links in the
// given locale. It runs in two passes over an id index, so the cost is
// linear in the number of records.
//
// A duplicate id keeps the position of its first occurrence and the
// content of its last one. Records whose parent is missing, unknown, or
// the record itself become roots. Roots and children keep input order.
func Build(records []models.CategoryRecord, locale string) []*models.TreeNode {
	index := make(map[string]*models.TreeNode, len(records))
	order := make([]string, 0, len(records))

	for i := range records {
		rec := &records[i]
		id := rec.Sys.ID
		if _, seen := index[id]; !seen {
			order = append(order, id)
		}
		index[id] = &models.TreeNode{
			ID:       id,
			Title:    rec.DisplayTitle(locale),
			ParentID: rec.ParentID(locale),
			Status:   status.ForRecord(rec),
			Expanded: true,
			Children: []*models.TreeNode{},
		}
	}

	roots := make([]*models.TreeNode, 0)
	children := make(map[string][]*models.TreeNode)

	for _, id := range order {
		node := index[id]
		pid := node.ParentID
		if pid == "" || pid == node.ID || index[pid] == nil {
			roots = append(roots, node)
			continue
		}
		children[pid] = append(children[pid], node)
	}

	for pid, kids := range children {
		index[pid].Children = kids
	}

	return roots
}
