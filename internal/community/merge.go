package community

// mergeByID replaces items whose id already exists and appends the rest.
// Applying the same batch twice leaves the result unchanged.
func mergeByID[T any](existing, batch []T, id func(T) string) []T {
	index := make(map[string]int, len(existing))
	out := make([]T, len(existing), len(existing)+len(batch))
	copy(out, existing)
	for i, item := range out {
		index[id(item)] = i
	}

	for _, item := range batch {
		key := id(item)
		if i, ok := index[key]; ok {
			out[i] = item
			continue
		}
		index[key] = len(out)
		out = append(out, item)
	}
	return out
}
