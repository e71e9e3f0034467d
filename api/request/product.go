package request

import (
	"net/url"
	"strconv"

	"github.com/google/uuid"
)

type ProductFilter struct {
	Search     string     `json:"search"`
	CategoryId *uuid.UUID `json:"category_id"`
	Sort       string     `json:"sort"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
}

func (f ProductFilter) Query() url.Values {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.CategoryId != nil {
		q.Set("category_id", f.CategoryId.String())
	}
	if f.Sort != "" {
		q.Set("sort", f.Sort)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(f.PageSize))
	}
	return q
}
