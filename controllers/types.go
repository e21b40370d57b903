package controllers

// PagedResponse is the body of every paginated listing.
type PagedResponse struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data"`
	Meta       interface{} `json:"meta,omitempty"`
	Pagination PageMeta    `json:"pagination"`
}

type PageMeta struct {
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
	TotalItems  int64 `json:"total_items"`
	TotalPages  int   `json:"total_pages"`
}

func newPageMeta(page, size int, total int64) PageMeta {
	pages := 0
	if size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	return PageMeta{CurrentPage: page, PageSize: size, TotalItems: total, TotalPages: pages}
}
