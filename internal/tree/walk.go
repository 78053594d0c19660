// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package tree

import "catpicker/internal/models"

// Row is one line of a flattened forest.
type Row struct {
	Node  *models.TreeNode
	Depth int
}

// Walk visits every node depth-first, parents before children. Returning
// false from fn skips the node's subtree.
func Walk(forest []*models.TreeNode, fn func(n *models.TreeNode, depth int) bool) {
	walk(forest, 0, fn)
}

func walk(nodes []*models.TreeNode, depth int, fn func(*models.TreeNode, int) bool) {
	for _, n := range nodes {
		if fn(n, depth) {
			walk(n.Children, depth+1, fn)
		}
	}
}

// Flatten returns the forest as display rows with their depth set, for
// indented lists and <select> dropdowns.
func Flatten(forest []*models.TreeNode) []Row {
	var rows []Row
	Walk(forest, func(n *models.TreeNode, depth int) bool {
		rows = append(rows, Row{Node: n, Depth: depth})
		return true
	})
	return rows
}

// Count returns the number of nodes in the forest.
func Count(forest []*models.TreeNode) int {
	total := 0
	Walk(forest, func(*models.TreeNode, int) bool {
		total++
		return true
	})
	return total
}

// Find returns the node with the given id, or nil.
func Find(forest []*models.TreeNode, id string) *models.TreeNode {
	var found *models.TreeNode
	Walk(forest, func(n *models.TreeNode, _ int) bool {
		if found != nil {
			return false
		}
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}
