package shop

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode"
)

// Limit bounds accepted by the shop for a single page.
const (
	MinLimit = 1
	MaxLimit = 50
)

// Criteria holds the filter, limit, order and page parameters of one call.
// Unset fields are zero (empty string or nil pointer).
type Criteria struct {
	// Filters is the JSON-serialized filter object.
	Filters string `json:"filters,omitempty" yaml:"filters,omitempty"`
	Limit   *int   `json:"limit,omitempty"   yaml:"limit,omitempty"`
	Order   string `json:"order,omitempty"   yaml:"order,omitempty"`
	Page    *int   `json:"page,omitempty"    yaml:"page,omitempty"`
}

// IsEmpty reports whether no criterion is set.
func (c *Criteria) IsEmpty() bool {
	return c == nil || (c.Filters == "" && c.Limit == nil && c.Order == "" && c.Page == nil)
}

// Values converts the criteria to query string values.
func (c *Criteria) Values() url.Values {
	values := url.Values{}
	if c == nil {
		return values
	}

	if c.Filters != "" {
		values.Set("filters", c.Filters)
	}

	if c.Limit != nil {
		values.Set("limit", strconv.Itoa(*c.Limit))
	}

	if c.Order != "" {
		values.Set("order", c.Order)
	}

	if c.Page != nil {
		values.Set("page", strconv.Itoa(*c.Page))
	}

	return values
}

// CriteriaBuilder accumulates criteria for the next call. It is drained, and
// thereby reset, by exactly one call. It is not safe for concurrent use.
type CriteriaBuilder struct {
	filters string
	limit   *int
	order   string
	page    *int
}

// NewCriteriaBuilder creates an empty builder.
func NewCriteriaBuilder() *CriteriaBuilder {
	return &CriteriaBuilder{}
}

// Limit sets the page size. count must be within MinLimit..MaxLimit.
func (b *CriteriaBuilder) Limit(count int) error {
	if count < MinLimit || count > MaxLimit {
		return newResourceError(KindInvalidLimit, fmt.Sprintf("limit %d beyond %d-%d range", count, MinLimit, MaxLimit))
	}

	b.limit = &count

	return nil
}

// Filters sets the filter object. A nil map is rejected.
func (b *CriteriaBuilder) Filters(filters map[string]any) error {
	if filters == nil {
		return newResourceError(KindInvalidFilters, "filters not specified")
	}

	encoded, err := json.Marshal(filters)
	if err != nil {
		resErr := newResourceError(KindInvalidFilters, fmt.Sprintf("encoding filters: %v", err))
		resErr.Err = err

		return resErr
	}

	b.filters = string(encoded)

	return nil
}

// Page sets the page number. Negative pages are rejected.
func (b *CriteriaBuilder) Page(page int) error {
	if page < 0 {
		return newResourceError(KindInvalidPage, fmt.Sprintf("invalid page %d specified", page))
	}

	b.page = &page

	return nil
}

// PageString coerces s to an integer by its leading numeric prefix ("3abc" is
// 3, "abc" is 0) and sets it as the page.
func (b *CriteriaBuilder) PageString(s string) error {
	return b.Page(leadingInt(s))
}

// Order sets the ordering expression, see ParseOrder.
func (b *CriteriaBuilder) Order(expr string) error {
	order, err := ParseOrder(expr)
	if err != nil {
		return err
	}

	b.order = order

	return nil
}

// Drain returns the accumulated criteria and resets the builder.
func (b *CriteriaBuilder) Drain() Criteria {
	criteria := Criteria{
		Filters: b.filters,
		Limit:   b.limit,
		Order:   b.order,
		Page:    b.page,
	}

	b.reset()

	return criteria
}

func (b *CriteriaBuilder) reset() {
	b.filters = ""
	b.limit = nil
	b.order = ""
	b.page = nil
}

func leadingInt(s string) int {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}

	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}

	if end == digits {
		return 0
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}

	return n
}
