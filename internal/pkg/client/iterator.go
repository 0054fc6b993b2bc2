package client

import "context"

// PageFetcher loads the page behind cursor and returns its items together
// with the cursor of the following page. An empty cursor ends the iteration.
// The first call receives an empty cursor.
type PageFetcher[T any] func(ctx context.Context, cursor string) ([]T, string, error)

// Iterator walks a paged provider response. It cannot be restarted.
type Iterator[T any] struct {
	fetch   PageFetcher[T]
	cursor  string
	hasNext bool
}

func NewIterator[T any](fetch PageFetcher[T]) *Iterator[T] {
	return &Iterator[T]{
		fetch:   fetch,
		hasNext: true,
	}
}

func (i *Iterator[T]) HasNext() bool {
	return i.hasNext
}

func (i *Iterator[T]) Next(ctx context.Context) ([]T, error) {
	if !i.hasNext {
		return nil, nil
	}

	items, cursor, err := i.fetch(ctx, i.cursor)
	if err != nil {
		i.hasNext = false
		return nil, err
	}

	i.cursor = cursor
	i.hasNext = cursor != ""

	return items, nil
}

// GetAll drains the iterator until it is exhausted or limit items were
// collected. A limit below one means no limit.
func (i *Iterator[T]) GetAll(ctx context.Context, limit int) ([]T, error) {
	result := []T{}
	for i.HasNext() {
		items, err := i.Next(ctx)
		if err != nil {
			return nil, err
		}

		result = append(result, items...)
		if limit > 0 && len(result) >= limit {
			return result[:limit], nil
		}
	}

	return result, nil
}
