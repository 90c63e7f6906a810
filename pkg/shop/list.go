package shop

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Result is returned by Resource.Get: either a *Record or a *RecordList.
type Result interface {
	Records() []*Record
}

// RecordList is a page of a shop collection.
type RecordList struct {
	Items []*Record `json:"list" yaml:"list"`
	// Page is the current page number.
	Page int `json:"page" yaml:"page"`
	// Count is the total number of records matching the criteria.
	Count int `json:"count" yaml:"count"`
	// PageCount is the total number of pages.
	PageCount int `json:"pages" yaml:"pages"`

	hasMeta bool
}

// NewRecordList creates a list carrying pagination metadata.
func NewRecordList(items []*Record, page, count, pageCount int) *RecordList {
	return &RecordList{
		Items:     items,
		Page:      page,
		Count:     count,
		PageCount: pageCount,
		hasMeta:   true,
	}
}

// HasMeta reports whether the server supplied pagination metadata.
func (l *RecordList) HasMeta() bool {
	return l.hasMeta
}

// Len returns the number of records on this page.
func (l *RecordList) Len() int {
	return len(l.Items)
}

// Records implements Result.
func (l *RecordList) Records() []*Record {
	return l.Items
}

// flexInt decodes a JSON number or a numeric string; the shop uses both for
// pagination counters.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == `""` {
		*f = 0

		return nil
	}

	var number json.Number

	err := json.Unmarshal(data, &number)
	if err != nil {
		return fmt.Errorf("%w: pagination value %s", ErrMalformedResponse, raw)
	}

	n, err := strconv.Atoi(number.String())
	if err != nil {
		return fmt.Errorf("%w: pagination value %s", ErrMalformedResponse, raw)
	}

	*f = flexInt(n)

	return nil
}
