// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "fmt"

// MaxRecordLimit is the largest page a record source returns in one call.
const MaxRecordLimit = 1000

// Record orderings understood by record sources.
const (
	OrderSlug      = "fields.slug"
	OrderSlugDesc  = "-fields.slug"
	OrderCreatedAt = "sys.createdAt"
	OrderUpdatedAt = "sys.updatedAt"
	DefaultOrder   = OrderSlug
)

// RecordQuery selects the records a source returns.
type RecordQuery struct {
	ContentType string
	Order       string
	Limit       int
}

// CategoryQuery returns the query the picker issues for the category tree.
func CategoryQuery(order string, limit int) RecordQuery {
	return RecordQuery{ContentType: ContentTypeCategory, Order: order, Limit: limit}.Normalize()
}

// Normalize fills defaults and clamps Limit to 1..MaxRecordLimit.
func (q RecordQuery) Normalize() RecordQuery {
	if q.Order == "" {
		q.Order = DefaultOrder
	}
	if q.Limit <= 0 || q.Limit > MaxRecordLimit {
		q.Limit = MaxRecordLimit
	}
	return q
}

// Key returns a stable string identifying the query, for cache keys.
func (q RecordQuery) Key() string {
	q = q.Normalize()
	return fmt.Sprintf("%s:%s:%d", q.ContentType, q.Order, q.Limit)
}
