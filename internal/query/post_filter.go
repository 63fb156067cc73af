// Package query turns listing parameters into a typed, validated post filter
// and applies it to gorm queries.
package query

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrUnknownSortField = errors.New("unknown sortBy field")
	ErrUnknownSortOrder = errors.New("unknown sortOrder")
)

// SortField is a column the listing may be ordered by.
type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByUpdatedAt SortField = "updatedAt"
	SortByTitle     SortField = "title"
	SortByCategory  SortField = "category"
	SortByID        SortField = "id"
)

var sortColumns = map[SortField]string{
	SortByCreatedAt: "created_at",
	SortByUpdatedAt: "updated_at",
	SortByTitle:     "title",
	SortByCategory:  "category",
	SortByID:        "id",
}

var sortAliases = map[string]SortField{
	"createdat":  SortByCreatedAt,
	"created_at": SortByCreatedAt,
	"updatedat":  SortByUpdatedAt,
	"updated_at": SortByUpdatedAt,
	"title":      SortByTitle,
	"category":   SortByCategory,
	"id":         SortByID,
}

// Column is the database column backing the field.
func (f SortField) Column() string {
	return sortColumns[f]
}

type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// PostFilter is the full set of listing constraints. Zero values mean "no
// constraint" except Sort and Order, which ParsePostFilter always sets.
type PostFilter struct {
	Category string
	Search   string
	Tags     []string
	Sort     SortField
	Order    SortOrder
}

// ParsePostFilter reads category, search, tags, sortBy and sortOrder.
func ParsePostFilter(values url.Values) (PostFilter, error) {
	f := PostFilter{
		Category: strings.TrimSpace(values.Get("category")),
		Search:   strings.TrimSpace(values.Get("search")),
		Tags:     ParseTags(values.Get("tags")),
		Sort:     SortByCreatedAt,
		Order:    Desc,
	}

	if raw := strings.TrimSpace(values.Get("sortBy")); raw != "" {
		field, ok := sortAliases[strings.ToLower(raw)]
		if !ok {
			return PostFilter{}, fmt.Errorf("%w: %q", ErrUnknownSortField, raw)
		}
		f.Sort = field
	}

	if raw := strings.TrimSpace(values.Get("sortOrder")); raw != "" {
		switch SortOrder(strings.ToLower(raw)) {
		case Asc:
			f.Order = Asc
		case Desc:
			f.Order = Desc
		default:
			return PostFilter{}, fmt.Errorf("%w: %q", ErrUnknownSortOrder, raw)
		}
	}

	return f, nil
}

// ParseTags splits a comma separated list, dropping blanks and repeats.
func ParseTags(raw string) []string {
	var tags []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching term literally anywhere.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

// Scopes returns the WHERE and ORDER BY scopes of the filter, in that order.
func (f PostFilter) Scopes() []func(*gorm.DB) *gorm.DB {
	return []func(*gorm.DB) *gorm.DB{f.where, f.order}
}

func (f PostFilter) where(db *gorm.DB) *gorm.DB {
	if f.Category != "" {
		db = db.Where("category = ?", f.Category)
	}
	if f.Search != "" {
		p := containsPattern(f.Search)
		db = db.Where("(title ILIKE ? OR description ILIKE ? OR content ILIKE ?)", p, p, p)
	}
	if len(f.Tags) > 0 {
		db = db.Where("tags && ?", pq.StringArray(f.Tags))
	}
	return db
}

func (f PostFilter) order(db *gorm.DB) *gorm.DB {
	field := f.Sort
	if field.Column() == "" {
		field = SortByCreatedAt
	}
	desc := f.Order != Asc

	db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: field.Column()}, Desc: desc})
	if field != SortByID {
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: desc})
	}
	return db
}

// CacheKey is a canonical encoding of the filter; equal filters give equal keys.
func (f PostFilter) CacheKey() string {
	tags := append([]string(nil), f.Tags...)
	sort.Strings(tags)

	v := url.Values{}
	v.Set("c", f.Category)
	v.Set("s", f.Search)
	v.Set("t", strings.Join(tags, ","))
	v.Set("sb", string(f.Sort))
	v.Set("so", string(f.Order))
	return v.Encode()
}
