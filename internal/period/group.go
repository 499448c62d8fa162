package period

import "time"

// Group is one bucket of items sharing a calendar key.
type Group[T any] struct {
	Key   string
	Items []T
}

// GroupBy buckets items by the key of unit. Buckets are returned in order
// of their first item; items keep their input order inside a bucket.
func GroupBy[T any](items []T, stamp func(T) time.Time, unit Unit) ([]Group[T], error) {
	if _, err := Key(time.Time{}, unit); err != nil {
		return nil, err
	}

	index := make(map[string]int)
	var groups []Group[T]
	for _, it := range items {
		k, _ := Key(stamp(it), unit)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group[T]{Key: k})
		}
		groups[i].Items = append(groups[i].Items, it)
	}
	return groups, nil
}

// GroupByName is GroupBy with the unit given by name.
func GroupByName[T any](items []T, stamp func(T) time.Time, name string) ([]Group[T], error) {
	u, err := ParseUnit(name)
	if err != nil {
		return nil, err
	}
	return GroupBy(items, stamp, u)
}
