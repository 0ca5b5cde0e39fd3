package model

import (
	"fmt"
	"strings"
)

// FilterKind is the date-range predicate applied to the visible list.
type FilterKind string

const (
	FilterAll   FilterKind = "all"
	FilterToday FilterKind = "today"
	FilterWeek  FilterKind = "week"
)

var filterOrder = []FilterKind{FilterAll, FilterToday, FilterWeek}

// ParseFilterKind accepts all, today or week (case-insensitive). Empty means all.
func ParseFilterKind(s string) (FilterKind, error) {
	switch FilterKind(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterToday:
		return FilterToday, nil
	case FilterWeek:
		return FilterWeek, nil
	}
	return FilterAll, fmt.Errorf("unknown filter %q (want all, today or week)", s)
}

// Next returns the filter that follows f when cycling through tabs.
func (f FilterKind) Next() FilterKind {
	for i, k := range filterOrder {
		if k == f {
			return filterOrder[(i+1)%len(filterOrder)]
		}
	}
	return FilterAll
}

// Label is the tab caption shown in the UI.
func (f FilterKind) Label() string {
	switch f {
	case FilterToday:
		return "Today"
	case FilterWeek:
		return "This week"
	default:
		return "All"
	}
}

// FilterKinds lists every filter in tab order.
func FilterKinds() []FilterKind {
	return append([]FilterKind(nil), filterOrder...)
}
