package api

import (
	"slices"
)

// Name identifies a property within a flow or activity schema
type Name string

// unionNames merges name lists into one sorted list without duplicates
func unionNames(lists ...[]Name) []Name {
	var res []Name
	for _, l := range lists {
		res = append(res, l...)
	}
	if len(res) == 0 {
		return nil
	}
	slices.Sort(res)
	return slices.Compact(res)
}
