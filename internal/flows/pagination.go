package flows

// Pager computes slice bounds and navigation availability for paginated
// selection keyboards. Pages are zero-based.
type Pager struct {
	Page     int
	PageSize int
	Total    int
}

// Bounds returns the half-open [from, to) range of the current page.
func (p Pager) Bounds() (from, to int) {
	from = p.Page * p.PageSize
	if from > p.Total {
		from = p.Total
	}
	to = from + p.PageSize
	if to > p.Total {
		to = p.Total
	}
	return from, to
}

// HasPrev reports whether an earlier page exists.
func (p Pager) HasPrev() bool {
	return p.Page > 0
}

// HasNext reports whether a later page exists.
func (p Pager) HasNext() bool {
	return (p.Page+1)*p.PageSize < p.Total
}
