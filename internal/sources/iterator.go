package sources

import "context"

// PageFunc fetches one page of postings (1-indexed). It returns the page's
// postings and whether more pages may follow. An empty page with more=false
// signals ordinary end-of-results.
type PageFunc func(ctx context.Context, page int) ([]Posting, bool, error)

// Iterator is a lazy, finite, restartable sequence of postings. It pulls
// pages on demand so adapters can keep pagination and backoff internal.
type Iterator struct {
	fetch PageFunc
	limit int

	buf     []Posting
	page    int
	emitted int
	done    bool
}

// NewIterator wraps a page fetcher. A non-zero limit caps the total number
// of postings emitted across all pages.
func NewIterator(fetch PageFunc, limit int) *Iterator {
	return &Iterator{fetch: fetch, limit: limit}
}

// Next returns the next posting, or (nil, nil) once the sequence is
// exhausted. Transport failures propagate as *TransportError.
func (it *Iterator) Next(ctx context.Context) (*Posting, error) {
	for {
		if it.limit > 0 && it.emitted >= it.limit {
			return nil, nil
		}
		if len(it.buf) > 0 {
			p := it.buf[0]
			it.buf = it.buf[1:]
			it.emitted++
			return &p, nil
		}
		if it.done {
			return nil, nil
		}

		it.page++
		postings, more, err := it.fetch(ctx, it.page)
		if err != nil {
			return nil, err
		}
		it.buf = postings
		if !more {
			it.done = true
		}
		if len(it.buf) == 0 && it.done {
			return nil, nil
		}
	}
}

// Restart rewinds the iterator to the beginning so the sequence can be
// consumed again from the first page.
func (it *Iterator) Restart() {
	it.buf = nil
	it.page = 0
	it.emitted = 0
	it.done = false
}

// Collect drains the iterator into a slice.
func (it *Iterator) Collect(ctx context.Context) ([]Posting, error) {
	var out []Posting
	for {
		p, err := it.Next(ctx)
		if err != nil {
			return out, err
		}
		if p == nil {
			return out, nil
		}
		out = append(out, *p)
	}
}
