// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package tree

import (
	"strings"

	"catpicker/internal/models"
)

// Filter returns the part of forest whose titles contain term
// (case-insensitive), together with every ancestor of a match.
//
// An empty term returns forest itself. Otherwise kept nodes are shallow
// copies holding only their kept children; the input is never modified.
func Filter(forest []*models.TreeNode, term string) []*models.TreeNode {
	if term == "" {
		return forest
	}
	return filterNodes(forest, strings.ToLower(term))
}

func filterNodes(nodes []*models.TreeNode, needle string) []*models.TreeNode {
	out := make([]*models.TreeNode, 0)
	for _, n := range nodes {
		children := filterNodes(n.Children, needle)
		if len(children) == 0 && !strings.Contains(strings.ToLower(n.Title), needle) {
			continue
		}
		cp := *n
		cp.Children = children
		out = append(out, &cp)
	}
	return out
}
