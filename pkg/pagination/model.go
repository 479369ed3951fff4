package pagination

// Model is a snapshot of an instance's paging state.
type Model struct {
	PageNumber int
	PageSize   int

	// TotalNumber is meaningful only when TotalKnown is set. Remote sources
	// with a TotalNumberLocator learn it from the first response.
	TotalNumber int
	TotalKnown  bool

	// Disabled is set while the instance is disabled or a remote request
	// is in flight.
	Disabled bool

	// Direction is the sign of the last page transition: 0 for the first
	// page set or a reload of the same page.
	Direction int
}

// TotalPage returns ceil(TotalNumber / PageSize).
func (m Model) TotalPage() int {
	if m.PageSize <= 0 || m.TotalNumber <= 0 {
		return 0
	}
	return (m.TotalNumber + m.PageSize - 1) / m.PageSize
}

// accepts reports whether page passes the bounds check. Only a known
// positive total bounds the page; an empty source still delivers page 1.
func (m Model) accepts(page int) bool {
	if page < 1 {
		return false
	}
	return !m.TotalKnown || m.TotalNumber <= 0 || page <= m.TotalPage()
}

// slicePage returns records[(page-1)*size : min(page*size, total)], clamped
// to the bounds of records. total is the model's total, which can disagree
// with len(records) when a caller configured it.
func slicePage(records []any, page, size, total int) []any {
	start := (page - 1) * size
	end := min(page*size, total)
	start = min(max(start, 0), len(records))
	end = min(max(end, start), len(records))
	out := make([]any, end-start)
	copy(out, records[start:end])
	return out
}
