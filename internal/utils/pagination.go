package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PaginationParams carries the page window and ordering parsed from a
// list request's query string.
type PaginationParams struct {
	Page     int    `json:"page" form:"page"`
	PageSize int    `json:"page_size" form:"page_size"`
	Sort     string `json:"sort" form:"sort"`
	Order    string `json:"order" form:"order"`
	Search   string `json:"search" form:"search"`
}

type PaginationMeta struct {
	Page        int   `json:"page"`
	PageSize    int   `json:"page_size"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

// GetPaginationParams reads page/page_size/sort/order/search from the
// query string, clamping out-of-range values to sane defaults.
func GetPaginationParams(c *gin.Context) *PaginationParams {
	params := &PaginationParams{
		Sort:   c.DefaultQuery("sort", "created_at"),
		Order:  c.DefaultQuery("order", "desc"),
		Search: c.Query("search"),
	}

	params.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if params.Page < 1 {
		params.Page = 1
	}

	params.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(DefaultPageSize)))
	switch {
	case params.PageSize < MinPageSize:
		params.PageSize = MinPageSize
	case params.PageSize > MaxPageSize:
		params.PageSize = MaxPageSize
	}

	if params.Order != "asc" {
		params.Order = "desc"
	}

	return params
}

// GetSortOptions builds the mongo find options for this page window.
func (p *PaginationParams) GetSortOptions() *options.FindOptions {
	order := -1
	if p.Order == "asc" {
		order = 1
	}

	return options.Find().
		SetSkip(int64((p.Page - 1) * p.PageSize)).
		SetLimit(int64(p.PageSize)).
		SetSort(bson.D{{Key: p.Sort, Value: order}})
}

// GetSearchFilter builds a case-insensitive $or regex filter over the
// given fields, or an empty filter when there is no search term.
func (p *PaginationParams) GetSearchFilter(fields []string) bson.M {
	if p.Search == "" || len(fields) == 0 {
		return bson.M{}
	}

	conditions := make([]bson.M, 0, len(fields))
	for _, field := range fields {
		conditions = append(conditions, bson.M{
			field: bson.M{"$regex": p.Search, "$options": "i"},
		})
	}

	return bson.M{"$or": conditions}
}

func CreatePaginationMeta(params *PaginationParams, total int64) *PaginationMeta {
	totalPages := int((total + int64(params.PageSize) - 1) / int64(params.PageSize))

	return &PaginationMeta{
		Page:        params.Page,
		PageSize:    params.PageSize,
		Total:       total,
		TotalPages:  totalPages,
		HasNext:     params.Page < totalPages,
		HasPrevious: params.Page > 1,
	}
}
