// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// DefaultLimit is the page size when the caller sends none.
	DefaultLimit = 50
	// MaxLimit caps the "limit" query parameter.
	MaxLimit = 200
)

// Params are the keyset paging inputs of a list request.
type Params struct {
	Before string
	After  string
	Limit  int
}

// FromRequest reads ?before=, ?after= and ?limit=.
func FromRequest(r *http.Request) Params {
	p := Params{
		Before: query.Get(r, "before"),
		After:  query.Get(r, "after"),
		Limit:  DefaultLimit,
	}
	if s := query.Get(r, "limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			p.Limit = min(n, MaxLimit)
		}
	}
	return p
}

// Page is the paging block returned alongside a list.
type Page struct {
	HasPrev    bool   `json:"has_prev"`
	HasNext    bool   `json:"has_next"`
	PrevCursor string `json:"prev_cursor,omitempty"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// Direction indicates the pagination direction.
type Direction int

const (
	Forward  Direction = iota // sort ascending, "gt" window
	Backward                  // sort descending, "lt" window
)

// KeysetConfig is the decoded paging state used to build a query.
type KeysetConfig struct {
	Direction Direction
	SortOrder int
	Limit     int
	Cursor    *wafflemongo.Cursor
}

// ConfigureKeyset decodes the cursor and picks a direction. before wins
// over after when both are set.
func ConfigureKeyset(p Params) KeysetConfig {
	cfg := KeysetConfig{Direction: Forward, SortOrder: 1, Limit: p.Limit}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}

	if p.Before != "" {
		cfg.Direction = Backward
		cfg.SortOrder = -1
		if c, ok := wafflemongo.DecodeCursor(p.Before); ok {
			cfg.Cursor = &c
		}
	} else if p.After != "" {
		if c, ok := wafflemongo.DecodeCursor(p.After); ok {
			cfg.Cursor = &c
		}
	}
	return cfg
}

// ApplyToFind sets sort on (sortField, _id) and a look-ahead limit.
func (cfg KeysetConfig) ApplyToFind(find *options.FindOptions, sortField string) {
	find.SetSort(bson.D{
		{Key: sortField, Value: cfg.SortOrder},
		{Key: "_id", Value: cfg.SortOrder},
	}).SetLimit(int64(cfg.Limit + 1))
}

// KeysetWindow returns the cursor condition, or nil on the first page.
func (cfg KeysetConfig) KeysetWindow(sortField string) bson.M {
	if cfg.Cursor == nil {
		return nil
	}
	dir := "gt"
	if cfg.Direction == Backward {
		dir = "lt"
	}
	return wafflemongo.KeysetWindow(sortField, dir, cfg.Cursor.CI, cfg.Cursor.ID)
}

// Finish trims the look-ahead row, restores display order when paging
// backwards, and builds the cursors.
func Finish[T any](rows []T, p Params, cfg KeysetConfig, keyFn func(T) string, idFn func(T) primitive.ObjectID) ([]T, Page) {
	var page Page
	if p.Before != "" {
		if len(rows) > cfg.Limit {
			rows = rows[:cfg.Limit]
			page.HasPrev = true
		}
		Reverse(rows)
		page.HasNext = true
	} else {
		if len(rows) > cfg.Limit {
			rows = rows[:cfg.Limit]
			page.HasNext = true
		}
		page.HasPrev = p.After != ""
	}
	prev, next := BuildCursors(rows, keyFn, idFn)
	if page.HasPrev {
		page.PrevCursor = prev
	}
	if page.HasNext {
		page.NextCursor = next
	}
	return rows, page
}

// Reverse reverses a slice in place.
func Reverse[T any](rows []T) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}

// BuildCursors encodes cursors for the first and last rows.
func BuildCursors[T any](rows []T, keyFn func(T) string, idFn func(T) primitive.ObjectID) (prev, next string) {
	if len(rows) == 0 {
		return "", ""
	}
	first := rows[0]
	last := rows[len(rows)-1]
	return wafflemongo.EncodeCursor(keyFn(first), idFn(first)), wafflemongo.EncodeCursor(keyFn(last), idFn(last))
}
