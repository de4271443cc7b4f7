// Copyright (c) 2026 ClarifyX. All rights reserved.

/*
Package query builds SQL list queries from untyped request parameters.

It is the single translation layer between client query strings
(?status=approved&minPrice=10&sort=-created_at&page=2) and the WHERE /
ORDER BY / LIMIT / OFFSET fragments executed by the storage layer. Every
list endpoint constructs a [Builder], declares exactly the parameters it
supports, and hands the result to its store. The matching count query is
guaranteed to share the same predicate.

# Whitelisting

Nothing in this package derives column names from client input. Search
fields, sortable fields, and projectable fields are all declared by the
caller, so a malicious query string can never reach an undeclared column.

# Failure policy

Malformed or nonsensical input for any single filter degrades to "no
filter applied". List endpoints never fail because of a client-side
query-string mistake.
*/
package query

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	// DefaultLimit is the number of items per page if not specified.
	DefaultLimit = 20
	// MaxLimit is the upper bound for items per page to prevent system abuse.
	MaxLimit = 100
)

// SortField is a single ORDER BY term.
type SortField struct {
	Column string
	Desc   bool
}

// condition is one accumulated predicate. Expr uses '?' placeholders
// which [Builder.Build] rewrites into numbered PostgreSQL parameters.
type condition struct {
	expr string
	args []any
}

// Builder accumulates filter, sort, projection, and pagination state
// from an untyped parameter map via a chainable API.
//
// Builder is not safe for concurrent use. Construct one per request.
type Builder struct {
	params url.Values

	conds      []condition
	sorts      []SortField
	projection []string

	page  int
	limit int
	skip  int
}

// New constructs a Builder over raw request parameters.
//
// Pagination defaults (page 1, limit 20) and the default sort
// (created_at descending) apply until [Builder.Paginate] and
// [Builder.Sort] override them.
func New(params url.Values) *Builder {
	return &Builder{
		params: params,
		sorts:  []SortField{{Column: "created_at", Desc: true}},
		page:   1,
		limit:  DefaultLimit,
	}
}

func (b *Builder) raw(key string) (string, bool) {
	vals, ok := b.params[key]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

func (b *Builder) toString(key string, lower bool) (string, bool) {
	raw, ok := b.raw(key)
	if !ok {
		return "", false
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	if lower {
		trimmed = strings.ToLower(trimmed)
	}
	return trimmed, true
}

func (b *Builder) toNumber(key string) (float64, bool) {
	raw, ok := b.raw(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

func (b *Builder) toBool(key string) (bool, bool) {
	raw, ok := b.raw(key)
	if !ok {
		return false, false
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes":
		return true, true
	case "false", "0", "no":
		return false, true
	}
	return false, false
}

// toStringSlice accepts repeated parameters and comma-separated values
// interchangeably: ?tags=a,b and ?tags=a&tags=b produce the same slice.
func (b *Builder) toStringSlice(key string, lower bool) []string {
	vals, ok := b.params[key]
	if !ok {
		return nil
	}
	var out []string
	for _, raw := range vals {
		for _, part := range strings.Split(raw, ",") {
			clean := strings.TrimSpace(part)
			if clean == "" {
				continue
			}
			if lower {
				clean = strings.ToLower(clean)
			}
			out = append(out, clean)
		}
	}
	return out
}

// toUUIDSlice parses tokens as UUIDs, silently dropping invalid ones.
func (b *Builder) toUUIDSlice(key string) []string {
	var out []string
	for _, raw := range b.toStringSlice(key, false) {
		if id, err := uuid.Parse(raw); err == nil {
			out = append(out, id.String())
		}
	}
	return out
}

func (b *Builder) push(expr string, args ...any) {
	b.conds = append(b.conds, condition{expr: expr, args: args})
}

// Search adds a case-insensitive substring match across the given
// columns when a non-blank `search`, `searchTerm`, or `q` parameter is
// present. Earlier aliases win when several are set.
func (b *Builder) Search(columns ...string) *Builder {
	var term string
	for _, key := range []string{"search", "searchTerm", "q"} {
		if v, ok := b.raw(key); ok && strings.TrimSpace(v) != "" {
			term = strings.TrimSpace(v)
			break
		}
	}
	if term == "" || len(columns) == 0 {
		return b
	}

	pattern := "%" + escapeLike(term) + "%"
	parts := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		parts[i] = col + " ILIKE ?"
		args[i] = pattern
	}
	b.push("("+strings.Join(parts, " OR ")+")", args...)
	return b
}

// ExactOption tweaks [Builder.FilterExact] behavior.
type ExactOption func(*exactOptions)

type exactOptions struct {
	lower bool
}

// CaseSensitive disables the default lowercased comparison.
func CaseSensitive() ExactOption {
	return func(o *exactOptions) { o.lower = false }
}

// FilterExact adds an equality condition for a string parameter.
// The comparison is case-insensitive unless [CaseSensitive] is given.
func (b *Builder) FilterExact(key, column string, opts ...ExactOption) *Builder {
	options := exactOptions{lower: true}
	for _, opt := range opts {
		opt(&options)
	}

	value, ok := b.toString(key, options.lower)
	if !ok {
		return b
	}

	if options.lower {
		b.push("lower("+column+") = ?", value)
	} else {
		b.push(column+" = ?", value)
	}
	return b
}

// FilterBoolean adds an equality condition for a boolean parameter.
// Accepts true/1/yes and false/0/no (case-insensitive); anything else
// is treated as absent.
func (b *Builder) FilterBoolean(key, column string) *Builder {
	value, ok := b.toBool(key)
	if !ok {
		return b
	}
	b.push(column+" = ?", value)
	return b
}

// ArrayMode selects the membership semantics for array filters.
type ArrayMode string

const (
	// ModeAll requires the stored array to contain every requested value.
	ModeAll ArrayMode = "all"
	// ModeIn requires any overlap between stored and requested values.
	ModeIn ArrayMode = "in"
)

// FilterArray adds an array-membership condition against a PostgreSQL
// array column. Values come from a comma-separated string or repeated
// parameters; an empty result after parsing is a no-op.
func (b *Builder) FilterArray(key, column string, mode ArrayMode) *Builder {
	values := b.toStringSlice(key, true)
	if len(values) == 0 {
		return b
	}
	b.pushArray(column, mode, values)
	return b
}

// FilterUUID adds an equality condition for a single UUID parameter.
// Invalid identifiers are silently ignored.
func (b *Builder) FilterUUID(key, column string) *Builder {
	raw, ok := b.toString(key, false)
	if !ok {
		return b
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return b
	}
	b.push(column+" = ?", id.String())
	return b
}

// FilterUUIDArray is [Builder.FilterArray] with per-token UUID
// validation. Invalid tokens are dropped, not errored.
func (b *Builder) FilterUUIDArray(key, column string, mode ArrayMode) *Builder {
	values := b.toUUIDSlice(key)
	if len(values) == 0 {
		return b
	}
	b.pushArray(column, mode, values)
	return b
}

func (b *Builder) pushArray(column string, mode ArrayMode, values []string) {
	op := "@>" // superset: AND semantics
	if mode == ModeIn {
		op = "&&" // overlap: OR semantics
	}
	b.push(column+" "+op+" ?", values)
}

// Range adds a numeric `column >= min AND column <= max` condition.
// Either bound may be absent; with both absent it is a no-op.
func (b *Builder) Range(column, minKey, maxKey string) *Builder {
	minVal, hasMin := b.toNumber(minKey)
	maxVal, hasMax := b.toNumber(maxKey)

	switch {
	case hasMin && hasMax:
		b.push(column+" >= ? AND "+column+" <= ?", minVal, maxVal)
	case hasMin:
		b.push(column+" >= ?", minVal)
	case hasMax:
		b.push(column+" <= ?", maxVal)
	}
	return b
}

// Condition adds a caller-supplied predicate verbatim. It is meant for
// store-internal scoping (e.g. restricting a payment history to its
// owner) so the data and count queries stay consistent.
func (b *Builder) Condition(expr string, args ...any) *Builder {
	b.push(expr, args...)
	return b
}

// Sort parses the `sort` parameter (comma-separated, leading '-' means
// descending) against a whitelist mapping parameter field names to
// columns. A repeated field keeps its last occurrence. When no field is
// recognized the previous sort order is retained.
func (b *Builder) Sort(allowed map[string]string) *Builder {
	raw, ok := b.toString("sort", false)
	if !ok {
		return b
	}

	var parsed []SortField
	for _, part := range strings.Split(raw, ",") {
		field := strings.TrimSpace(part)
		if field == "" {
			continue
		}
		desc := strings.HasPrefix(field, "-")
		if desc {
			field = field[1:]
		}
		column, known := allowed[field]
		if !known {
			continue
		}

		replaced := false
		for i := range parsed {
			if parsed[i].Column == column {
				parsed[i].Desc = desc
				replaced = true
				break
			}
		}
		if !replaced {
			parsed = append(parsed, SortField{Column: column, Desc: desc})
		}
	}

	if len(parsed) > 0 {
		b.sorts = parsed
	}
	return b
}

// Project parses the `fields` parameter into an inclusion-only column
// list, resolved through a whitelist. The identifier column is always
// included. An absent parameter means no projection (all columns).
func (b *Builder) Project(allowed map[string]string, idColumn string) *Builder {
	raw, ok := b.toString("fields", false)
	if !ok {
		return b
	}

	columns := []string{idColumn}
	for _, part := range strings.Split(raw, ",") {
		field := strings.TrimSpace(part)
		column, known := allowed[field]
		if !known || column == idColumn {
			continue
		}
		seen := false
		for _, existing := range columns {
			if existing == column {
				seen = true
				break
			}
		}
		if !seen {
			columns = append(columns, column)
		}
	}

	if len(columns) > 1 {
		b.projection = columns
	}
	return b
}

// Paginate resolves `page` and `limit` with clamping: page defaults to
// 1 and is never below 1; limit defaults to defaultLimit and is clamped
// to [1, maxLimit].
func (b *Builder) Paginate(defaultLimit, maxLimit int) *Builder {
	page := 1
	if n, ok := b.toNumber("page"); ok && n > 0 {
		page = int(n)
	}

	limit := defaultLimit
	if n, ok := b.toNumber("limit"); ok && n > 0 {
		limit = int(n)
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	b.page = page
	b.limit = limit
	b.skip = (page - 1) * limit
	return b
}

// Query is the assembled SQL fragment set. Where and Args are shared by
// the data and count queries; the tail applies only to the data query.
type Query struct {
	// Where is the complete predicate without the WHERE keyword, or ""
	// when no condition was added.
	Where string
	// Args are the positional arguments for Where, numbered from $1.
	Args []any
	// Sorts is the resolved ORDER BY field list (never empty).
	Sorts []SortField
	// Columns is the projection column list, or nil for all columns.
	Columns []string
	// Limit and Offset are the resolved pagination window.
	Limit  int
	Offset int
}

// Build assembles the final query fragments.
//
// A single condition is emitted bare; two or more are joined with AND.
// The count query must reuse [Query.WhereClause] and [Query.Args] so
// both stay consistent.
func (b *Builder) Build() Query {
	var parts []string
	var args []any
	n := 0
	for _, cond := range b.conds {
		expr := cond.expr
		for strings.Contains(expr, "?") {
			n++
			expr = strings.Replace(expr, "?", "$"+strconv.Itoa(n), 1)
		}
		parts = append(parts, expr)
		args = append(args, cond.args...)
	}

	return Query{
		Where:   strings.Join(parts, " AND "),
		Args:    args,
		Sorts:   b.sorts,
		Columns: b.projection,
		Limit:   b.limit,
		Offset:  b.skip,
	}
}

// WhereClause returns " WHERE <predicate>" or "" when unfiltered.
func (q Query) WhereClause() string {
	if q.Where == "" {
		return ""
	}
	return " WHERE " + q.Where
}

// OrderByClause returns the " ORDER BY ..." fragment.
func (q Query) OrderByClause() string {
	parts := make([]string, len(q.Sorts))
	for i, s := range q.Sorts {
		direction := " ASC"
		if s.Desc {
			direction = " DESC"
		}
		parts[i] = s.Column + direction
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

// TailClause returns the " ORDER BY ... LIMIT n OFFSET m" fragment for
// the data query. Limit and offset are emitted as literals; both are
// server-derived integers, never raw client input.
func (q Query) TailClause() string {
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", q.OrderByClause(), q.Limit, q.Offset)
}

// SelectColumns returns the projection columns, falling back to the
// store's full column list when no projection was requested.
func (q Query) SelectColumns(all []string) []string {
	if len(q.Columns) == 0 {
		return all
	}
	return q.Columns
}

// Meta is the pagination metadata block for list responses.
type Meta struct {
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalPages int  `json:"totalPages"`
	HasMore    bool `json:"hasMore"`
}

// BuildMeta computes response metadata from the resolved page/limit and
// a caller-supplied total count.
func (b *Builder) BuildMeta(total int) Meta {
	totalPages := 0
	if total > 0 {
		totalPages = (total + b.limit - 1) / b.limit
	}
	return Meta{
		Total:      total,
		Page:       b.page,
		Limit:      b.limit,
		TotalPages: totalPages,
		HasMore:    b.page < totalPages,
	}
}

// escapeLike escapes LIKE wildcards so a search term matches literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// StringSlice parses a single comma-separated query string
// into a trimmed slice of strings.
func StringSlice(val string) []string {
	if val == "" {
		return nil
	}
	var res []string
	for _, v := range strings.Split(val, ",") {
		clean := strings.TrimSpace(v)
		if clean != "" {
			res = append(res, clean)
		}
	}
	return res
}
