package pipeline

import (
	"net/url"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/ajitpratap0/tap-purecloud/pkg/errors"
)

// QueryBody describes how one page is requested. The set of variants is
// closed: CountedPage, FilteredCountedPage and CursorPaging.
type QueryBody interface {
	// page reports the requested page size and 1-based page number.
	page() (size, number int)
	// withPage returns a copy of the body addressing another page.
	withPage(size, number int) QueryBody
}

// CountedPage is sent as pageSize and pageNumber query parameters.
type CountedPage struct {
	PageSize   int
	PageNumber int
}

// FilteredCountedPage is sent as a JSON body with flat pageSize and pageNumber
// fields next to the filter.
type FilteredCountedPage struct {
	PageSize   int
	PageNumber int
	Filter     map[string]interface{}
}

// Paging is the paging sub-object of a CursorPaging body.
type Paging struct {
	PageSize   int `json:"pageSize"`
	PageNumber int `json:"pageNumber"`
}

// CursorPaging is sent as a JSON body carrying a "paging" sub-object next to
// the filter. Analytics queries use this shape.
type CursorPaging struct {
	Paging Paging
	Filter map[string]interface{}
}

func (b CountedPage) page() (int, int) { return b.PageSize, b.PageNumber }

func (b CountedPage) withPage(size, number int) QueryBody {
	return CountedPage{PageSize: size, PageNumber: number}
}

func (b FilteredCountedPage) page() (int, int) { return b.PageSize, b.PageNumber }

func (b FilteredCountedPage) withPage(size, number int) QueryBody {
	b.PageSize, b.PageNumber = size, number
	return b
}

func (b CursorPaging) page() (int, int) { return b.Paging.PageSize, b.Paging.PageNumber }

func (b CursorPaging) withPage(size, number int) QueryBody {
	b.Paging = Paging{PageSize: size, PageNumber: number}
	return b
}

// Request is what a PageFunc sends: query parameters and, for POST
// endpoints, a JSON body.
type Request struct {
	Query url.Values
	Body  []byte
}

// BuildRequest shapes body into a Request and merges params into the query.
// A nil or unknown body is a configuration error.
func BuildRequest(body QueryBody, params url.Values) (Request, error) {
	req := Request{Query: url.Values{}}
	for k, vs := range params {
		for _, v := range vs {
			req.Query.Add(k, v)
		}
	}

	switch b := body.(type) {
	case CountedPage:
		req.Query.Set("pageSize", strconv.Itoa(b.PageSize))
		req.Query.Set("pageNumber", strconv.Itoa(b.PageNumber))
	case FilteredCountedPage:
		payload := copyFilter(b.Filter)
		payload["pageSize"] = b.PageSize
		payload["pageNumber"] = b.PageNumber
		data, err := json.Marshal(payload)
		if err != nil {
			return Request{}, errors.Wrap(err, errors.ErrorTypeConfig, "failed to encode query body")
		}
		req.Body = data
	case CursorPaging:
		payload := copyFilter(b.Filter)
		payload["paging"] = b.Paging
		data, err := json.Marshal(payload)
		if err != nil {
			return Request{}, errors.Wrap(err, errors.ErrorTypeConfig, "failed to encode query body")
		}
		req.Body = data
	default:
		return Request{}, errors.Newf(errors.ErrorTypeConfig, "unknown query body %T", body)
	}

	return req, nil
}

func copyFilter(filter map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(filter)+2)
	for k, v := range filter {
		out[k] = v
	}
	return out
}
