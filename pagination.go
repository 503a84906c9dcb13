package catalog

// DefaultPageSize is used when a request does not set a size
const DefaultPageSize = 12

// MaxPageSize caps the per page record count
const MaxPageSize = 100

// PageRequest carries zero based page coordinates and an optional sort column
type PageRequest struct {
	Page int    `json:"page" query:"page"`
	Size int    `json:"size" query:"size"`
	Sort string `json:"sort" query:"sort"`
}

// Normalize clamps the request into valid bounds
func (r PageRequest) Normalize() PageRequest {
	if r.Page < 0 {
		r.Page = 0
	}
	if r.Size <= 0 {
		r.Size = DefaultPageSize
	}
	if r.Size > MaxPageSize {
		r.Size = MaxPageSize
	}
	return r
}

// Offset is the record offset for the request
func (r PageRequest) Offset() int {
	return r.Page * r.Size
}

// Page is a single slice of a result set plus the coordinates needed to
// request its neighbors
type Page[T any] struct {
	Content       []T  `json:"content"`
	Number        int  `json:"number"`
	Size          int  `json:"size"`
	TotalElements int  `json:"totalElements"`
	TotalPages    int  `json:"totalPages"`
	First         bool `json:"first"`
	Last          bool `json:"last"`
}

// NewPage assembles a page envelope from a content slice and the total count
func NewPage[T any](content []T, req PageRequest, total int) *Page[T] {
	req = req.Normalize()

	if content == nil {
		content = []T{}
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + req.Size - 1) / req.Size
	}

	return &Page[T]{
		Content:       content,
		Number:        req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    totalPages,
		First:         req.Page == 0,
		Last:          totalPages == 0 || req.Page >= totalPages-1,
	}
}

// Map converts a page of one element type into another, keeping coordinates
func MapPage[T, U any](page *Page[T], fn func(T) U) *Page[U] {
	content := make([]U, 0, len(page.Content))
	for _, item := range page.Content {
		content = append(content, fn(item))
	}

	return &Page[U]{
		Content:       content,
		Number:        page.Number,
		Size:          page.Size,
		TotalElements: page.TotalElements,
		TotalPages:    page.TotalPages,
		First:         page.First,
		Last:          page.Last,
	}
}
