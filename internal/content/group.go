package content

import (
	"sort"
	"strconv"
)

// Group is a labelled run of items.
type Group struct {
	Label string
	Items []*Item
}

// GroupByYear groups items by year, newest year first, with undated items
// in a final group labelled undated.
func GroupByYear(items []*Item, undated string) []Group {
	byYear := map[int][]*Item{}
	for _, it := range items {
		byYear[it.Year()] = append(byYear[it.Year()], it)
	}
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	groups := make([]Group, 0, len(years))
	for _, y := range years {
		if y == 0 {
			continue
		}
		groups = append(groups, Group{Label: strconv.Itoa(y), Items: byYear[y]})
	}
	if rest, ok := byYear[0]; ok {
		groups = append(groups, Group{Label: undated, Items: rest})
	}
	return groups
}

// GroupBy groups items by a string field in first-seen order.
func GroupBy(items []*Item, field string) []Group {
	index := map[string]int{}
	var groups []Group
	for _, it := range items {
		key := it.Str(field)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Label: key})
		}
		groups[i].Items = append(groups[i].Items, it)
	}
	return groups
}

// FilterField keeps the items whose field equals value.
func FilterField(items []*Item, field, value string) []*Item {
	var out []*Item
	for _, it := range items {
		if it.Str(field) == value {
			out = append(out, it)
		}
	}
	return out
}
