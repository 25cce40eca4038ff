// internal/app/store/storeutil/storeutil.go

// Package storeutil holds helpers shared by the Mongo stores.
package storeutil

import "go.mongodb.org/mongo-driver/mongo/options"

// DefaultPageSize is used when a caller asks for a non-positive limit.
const DefaultPageSize = 20

// Paginate builds find options for a 1-based page of results. Out-of-range
// limit and page values fall back to the first page at the default size.
func Paginate(limit, page int64) *options.FindOptions {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if page <= 0 {
		page = 1
	}
	return options.Find().
		SetLimit(limit).
		SetSkip((page - 1) * limit)
}
