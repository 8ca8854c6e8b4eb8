package store

type entity[T any] interface {
	EntityID() string
	Clone() T
}

func indexOf[T entity[T]](items []T, id string) int {
	for i, item := range items {
		if item.EntityID() == id {
			return i
		}
	}
	return -1
}

func cloneAll[T entity[T]](items []T) []T {
	out := make([]T, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}

func cloneWhere[T entity[T]](items []T, keep func(T) bool) []T {
	var out []T
	for _, item := range items {
		if keep(item) {
			out = append(out, item.Clone())
		}
	}
	return out
}

func appended[T any](items []T, add ...T) []T {
	out := make([]T, len(items), len(items)+len(add))
	copy(out, items)
	return append(out, add...)
}

func replaced[T any](items []T, i int, v T) []T {
	out := make([]T, len(items))
	copy(out, items)
	out[i] = v
	return out
}

func removed[T any](items []T, i int) []T {
	out := make([]T, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...)
}
