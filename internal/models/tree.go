// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// Status is the lifecycle state shown next to each category.
type Status string

const (
	StatusPublished Status = "published"
	StatusDraft     Status = "draft"
	StatusArchived  Status = "archived"
	StatusChanged   Status = "changed"
	StatusDeleted   Status = "deleted"
	StatusNew       Status = "new"
)

// badgeVariants maps each status to the badge variant the picker renders.
var badgeVariants = map[Status]string{
	StatusPublished: "positive",
	StatusDraft:     "warning",
	StatusArchived:  "secondary",
	StatusChanged:   "primary",
	StatusDeleted:   "negative",
	StatusNew:       "primary-filled",
}

// Badge returns the badge variant for the status.
func (s Status) Badge() string {
	if v, ok := badgeVariants[s]; ok {
		return v
	}
	return "secondary"
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	_, ok := badgeVariants[s]
	return ok
}

// TreeNode is one category in an assembled forest. Nodes are rebuilt
// wholesale on every load and never patched in place.
type TreeNode struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	ParentID string      `json:"parent_id,omitempty"`
	Status   Status      `json:"status"`
	Expanded bool        `json:"expanded"`
	Children []*TreeNode `json:"children"`
}
