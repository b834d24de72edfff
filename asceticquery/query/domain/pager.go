package query

// Pager is the 1-based page form of firstResult/maxResults used by controllers.
type Pager struct {
	Page     int
	PageSize int
}

func (p Pager) FirstResult() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// PageCount is the number of pages needed for total rows.
func (p Pager) PageCount(total int64) int64 {
	if p.PageSize <= 0 {
		return 1
	}
	return (total + int64(p.PageSize) - 1) / int64(p.PageSize)
}
