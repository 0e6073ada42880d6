package utils

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type PaginationInfo struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NormalizePage applique les bornes par défaut et retourne (page, limit, offset)
func NormalizePage(page, limit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit, (page - 1) * limit
}

func NewPagination(page, limit, total int) PaginationInfo {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return PaginationInfo{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// Paginate découpe une tranche déjà filtrée en mémoire
func Paginate[T any](items []T, page, limit int) ([]T, PaginationInfo) {
	page, limit, offset := NormalizePage(page, limit)
	info := NewPagination(page, limit, len(items))

	if offset >= len(items) {
		return []T{}, info
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end], info
}
