package transport

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const pageSize = 20

type (
	page struct {
		number int
		size   int
	}

	// listEnvelope is the uniform list response: total count, absolute
	// next/previous links and the page of results.
	listEnvelope struct {
		Count    int64       `json:"count"`
		Next     *string     `json:"next"`
		Previous *string     `json:"previous"`
		Results  interface{} `json:"results"`
	}
)

func pageFromRequest(c echo.Context) page {
	number := 1
	if raw := c.QueryParam("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			number = parsed
		}
	}
	return page{number: number, size: pageSize}
}

func (p page) offset() int {
	return (p.number - 1) * p.size
}

func (s *HTTPServer) envelope(c echo.Context, p page, count int64, results interface{}) listEnvelope {
	env := listEnvelope{Count: count, Results: results}
	if int64(p.offset()+p.size) < count {
		env.Next = s.pageLink(c, p.number+1)
	}
	if p.number > 1 {
		env.Previous = s.pageLink(c, p.number-1)
	}
	return env
}

func (s *HTTPServer) pageLink(c echo.Context, number int) *string {
	u := *c.Request().URL
	q := u.Query()
	if number <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(number))
	}
	u.RawQuery = q.Encode()
	link := s.absoluteURL(c, u.RequestURI())
	return &link
}
