// Package paginator slices an ordered result set into fixed-size pages.
//
// Page resolution is lenient: a missing or malformed page number yields the
// first page and an out-of-range number yields the last one.
package paginator

import "strconv"

// Paginator 固定每页条数
type Paginator struct {
	PerPage int
}

func New(perPage int) *Paginator {
	if perPage <= 0 {
		perPage = 10
	}
	return &Paginator{PerPage: perPage}
}

// Bounds is a resolved page position, ready to be turned into OFFSET/LIMIT.
type Bounds struct {
	Number   int
	NumPages int
	Count    int64
	PerPage  int
}

func (b Bounds) Offset() int { return (b.Number - 1) * b.PerPage }
func (b Bounds) Limit() int  { return b.PerPage }

// NumPages 空结果也算一页
func (p *Paginator) NumPages(count int64) int {
	if count <= 0 {
		return 1
	}
	return int((count + int64(p.PerPage) - 1) / int64(p.PerPage))
}

// Resolve maps a raw ?page= value onto a valid page for count items.
func (p *Paginator) Resolve(count int64, raw string) Bounds {
	pages := p.NumPages(count)
	n, err := strconv.Atoi(raw)
	switch {
	case err != nil:
		n = 1
	case n < 1, n > pages:
		n = pages
	}
	return Bounds{Number: n, NumPages: pages, Count: count, PerPage: p.PerPage}
}

// Page 一页数据
type Page[T any] struct {
	Items []T
	Bounds
}

func NewPage[T any](b Bounds, items []T) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{Items: items, Bounds: b}
}

func (p *Page[T]) Len() int            { return len(p.Items) }
func (p *Page[T]) HasNext() bool       { return p.Number < p.NumPages }
func (p *Page[T]) HasPrevious() bool   { return p.Number > 1 }
func (p *Page[T]) HasOtherPages() bool { return p.HasNext() || p.HasPrevious() }
func (p *Page[T]) NextNumber() int     { return p.Number + 1 }
func (p *Page[T]) PreviousNumber() int { return p.Number - 1 }

// StartIndex is the 1-based index of the first item on the page, 0 when empty.
func (p *Page[T]) StartIndex() int64 {
	if p.Count == 0 {
		return 0
	}
	return int64(p.Offset()) + 1
}

func (p *Page[T]) PageRange() []int {
	r := make([]int, p.NumPages)
	for i := range r {
		r[i] = i + 1
	}
	return r
}

// Map converts the items of a page while keeping its position.
func Map[T, U any](p *Page[T], fn func(T) U) *Page[U] {
	out := make([]U, len(p.Items))
	for i, it := range p.Items {
		out[i] = fn(it)
	}
	return NewPage(p.Bounds, out)
}
