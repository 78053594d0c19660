// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// LinkSys identifies the entry a Link points at.
type LinkSys struct {
	Type     string `json:"type"`
	LinkType string `json:"linkType"`
	ID       string `json:"id"`
}

// Link is a reference object as stored in reference-list fields:
//
//	{"sys": {"type": "Link", "linkType": "Entry", "id": "..."}}
type Link struct {
	Sys LinkSys `json:"sys"`
}

// NewEntryLink returns a Link to the entry with the given id.
func NewEntryLink(id string) Link {
	return Link{Sys: LinkSys{Type: "Link", LinkType: "Entry", ID: id}}
}

// LinkIDs extracts the ids from a reference list, in order. A nil list
// yields an empty (non-nil) slice.
func LinkIDs(links []Link) []string {
	ids := make([]string, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.Sys.ID)
	}
	return ids
}

// EntryLinks builds a reference list with one entry link per id, in order.
func EntryLinks(ids []string) []Link {
	links := make([]Link, 0, len(ids))
	for _, id := range ids {
		links = append(links, NewEntryLink(id))
	}
	return links
}
