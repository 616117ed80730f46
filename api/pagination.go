package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/jinzhu/gorm"
)

const defaultPerPage = 50

// paginate reads page/per_page from the query, counts the result set
// and writes the Link and X-Total-Count headers. It returns the offset
// and limit to apply to the listing query. Invalid pagination
// parameters are the caller's bad request, never a panic.
func paginate(w http.ResponseWriter, r *http.Request, query *gorm.DB) (offset int, limit int, err error) {
	page, err := positiveQueryParam(r, "page", 1)
	if err != nil {
		return 0, 0, err
	}
	perPage, err := positiveQueryParam(r, "per_page", defaultPerPage)
	if err != nil {
		return 0, 0, err
	}

	var total uint64
	if result := query.Count(&total); result.Error != nil {
		return 0, 0, result.Error
	}

	writePageHeaders(w, r, page, perPage, total)
	return int((page - 1) * perPage), int(perPage), nil
}

func positiveQueryParam(r *http.Request, name string, fallback uint64) (uint64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	if value < 1 {
		return 0, fmt.Errorf("%s must be at least 1", name)
	}
	return value, nil
}

func writePageHeaders(w http.ResponseWriter, r *http.Request, page, perPage, total uint64) {
	lastPage := total / perPage
	if total%perPage > 0 {
		lastPage++
	}

	links := make([]string, 0, 2)
	if page < lastPage {
		links = append(links, pageLink(r, page+1, "next"))
	}
	links = append(links, pageLink(r, lastPage, "last"))

	w.Header().Set("Link", strings.Join(links, ", "))
	w.Header().Set("X-Total-Count", strconv.FormatUint(total, 10))
}

func pageLink(r *http.Request, page uint64, rel string) string {
	u := *r.URL
	query := u.Query()
	query.Set("page", strconv.FormatUint(page, 10))
	u.RawQuery = query.Encode()
	return fmt.Sprintf("<%s>; rel=%q", u.String(), rel)
}
