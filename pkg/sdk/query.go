package sdk

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/hashicorp/go-bexpr"
)

// AllRoles is the role filter value that matches every user.
const AllRoles = "all"

// DefaultPerPage is the page size used when none is given.
const DefaultPerPage = 10

// ProductQuery narrows a product list. Zero fields do not filter.
type ProductQuery struct {
	// Search matches titles case-insensitively.
	Search   string
	Category string
	MinPrice *float64
	MaxPrice *float64
	// Filter is a bexpr expression over product fields, e.g. `category == "jewelery" and title matches "(?i)gold"`.
	Filter string
}

// UserQuery narrows a user list.
type UserQuery struct {
	// Search matches name or email case-insensitively.
	Search string
	// Role keeps users with this role; "" and AllRoles keep everyone.
	Role   string
	Filter string
}

// FilterProducts returns the products matching q, keeping their order.
func FilterProducts(products []Product, q ProductQuery) ([]Product, error) {
	match, err := compileFilter(q.Filter)
	if err != nil {
		return nil, err
	}
	search := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if search != "" && !strings.Contains(strings.ToLower(p.Title), search) {
			continue
		}
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		if q.MinPrice != nil && p.Price < *q.MinPrice {
			continue
		}
		if q.MaxPrice != nil && p.Price > *q.MaxPrice {
			continue
		}
		if ok, err := match(p); err != nil {
			return nil, err
		} else if !ok {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// FilterUsers returns the users matching q, keeping their order.
func FilterUsers(users []User, q UserQuery) ([]User, error) {
	match, err := compileFilter(q.Filter)
	if err != nil {
		return nil, err
	}
	search := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]User, 0, len(users))
	for _, u := range users {
		if search != "" &&
			!strings.Contains(strings.ToLower(u.Name), search) &&
			!strings.Contains(strings.ToLower(u.Email), search) {
			continue
		}
		if q.Role != "" && q.Role != AllRoles && u.Role != q.Role {
			continue
		}
		if ok, err := match(u); err != nil {
			return nil, err
		} else if !ok {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

// Categories returns the distinct non-empty product categories, sorted.
func Categories(products []Product) []string {
	seen := make(map[string]struct{})
	for _, p := range products {
		if p.Category != "" {
			seen[p.Category] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Page is one page of a list.
type Page[T any] struct {
	Items      []T
	Page       int
	PerPage    int
	TotalItems int
	TotalPages int
}

// Paginate returns the 1-based page of items. perPage <= 0 uses DefaultPerPage.
// Pages outside 1..TotalPages are empty.
func Paginate[T any](items []T, page, perPage int) Page[T] {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	p := Page[T]{
		Items:      []T{},
		Page:       page,
		PerPage:    perPage,
		TotalItems: len(items),
		TotalPages: (len(items) + perPage - 1) / perPage,
	}
	if page < 1 || page > p.TotalPages {
		return p
	}
	start := (page - 1) * perPage
	end := min(start+perPage, len(items))
	p.Items = append(p.Items, items[start:end]...)
	return p
}

// BuildFilter builds a bexpr AND filter matching every field exactly.
// Strings are quoted, booleans and numbers are emitted verbatim.
// When fields is empty an empty string is returned.
func BuildFilter(fields map[string]any) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	expressions := make([]string, 0, len(keys))
	for _, key := range keys {
		expressions = append(expressions, fmt.Sprintf("%s == %s", key, formatBexprValue(fields[key])))
	}
	return strings.Join(expressions, " and ")
}

func formatBexprValue(value any) string {
	switch v := value.(type) {
	case string:
		return strconv.Quote(v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		if _, frac := math.Modf(v); frac == 0 {
			return strconv.FormatFloat(v, 'f', 0, 64)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return formatBexprValue(float64(v))
	case int, int8, int16, int32, int64:
		return fmt.Sprintf("%d", v)
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	default:
		return strconv.Quote(fmt.Sprintf("%v", value))
	}
}

// compiled evaluators keyed by expression
var evaluatorCache sync.Map

type matchFunc func(datum any) (bool, error)

func compileFilter(expr string) (matchFunc, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return func(any) (bool, error) { return true, nil }, nil
	}

	var evaluator *bexpr.Evaluator
	if cached, ok := evaluatorCache.Load(expr); ok {
		evaluator = cached.(*bexpr.Evaluator)
	} else {
		e, err := bexpr.CreateEvaluator(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid filter %q: %w", expr, err)
		}
		evaluatorCache.Store(expr, e)
		evaluator = e
	}

	return func(datum any) (bool, error) {
		ok, err := evaluator.Evaluate(datum)
		if err != nil {
			return false, fmt.Errorf("evaluate filter %q: %w", expr, err)
		}
		return ok, nil
	}, nil
}
