package store

import (
	"slices"
	"strings"

	"github.com/sitecrew/sitecrew/internal/model"
)

type sliceReducer func(State, Outcome) State

var reducers = map[string]sliceReducer{
	"auth":          reduceAuth,
	"theme":         reduceTheme,
	"projects":      reduceProjects,
	"teams":         reduceTeams,
	"payroll":       reducePayroll,
	"notifications": reduceNotifications,
	"calendar":      reduceCalendar,
	"reports":       reduceReports,
	"users":         reduceUsers,
}

func reduce(s State, o Outcome) State {
	slice, _, _ := strings.Cut(o.Op, "/")
	if fn, ok := reducers[slice]; ok {
		return fn(s, o)
	}
	return s
}

// lifecycle applies the loading/error convention shared by every slice.
func lifecycle(o Outcome, loading *bool, errMsg *string) {
	switch o.Phase {
	case PhasePending:
		*loading = true
		*errMsg = ""
	case PhaseFulfilled:
		*loading = false
	case PhaseRejected:
		*loading = false
		*errMsg = o.Err
	}
}

func payload[T any](o Outcome) (T, bool) {
	v, ok := o.Payload.(T)
	return v, ok
}

// upsert returns a copy of items with v replacing the element sharing its id,
// or v added when absent.
func upsert[T model.Identifiable](items []T, v T, prepend bool) []T {
	for i, item := range items {
		if item.GetID() == v.GetID() {
			out := slices.Clone(items)
			out[i] = v
			return out
		}
	}
	if prepend {
		return append([]T{v}, items...)
	}
	return append(slices.Clone(items), v)
}

// replaceByID is upsert without insertion.
func replaceByID[T model.Identifiable](items []T, v T) []T {
	for i, item := range items {
		if item.GetID() == v.GetID() {
			out := slices.Clone(items)
			out[i] = v
			return out
		}
	}
	return items
}

func removeByID[T model.Identifiable](items []T, id string) []T {
	return slices.DeleteFunc(slices.Clone(items), func(item T) bool { return item.GetID() == id })
}
