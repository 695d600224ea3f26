package pagination

import (
	"encoding/base64"
	"encoding/json"
)

type Pagination struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
}

// Cursor is the opaque payload behind a page token.
type Cursor struct {
	Offset int `json:"offset"`
}

type PageInfo struct {
	NextPageToken string `json:"next_page_token,omitempty"`
	HasMore       bool   `json:"has_more"`
}

func EncodeCursor(data Cursor) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeCursor(data string) (*Cursor, error) {
	b, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		return nil, err
	}

	var cursor Cursor
	if err := json.Unmarshal(b, &cursor); err != nil {
		return nil, err
	}
	if cursor.Offset < 0 {
		cursor.Offset = 0
	}
	return &cursor, nil
}

// Offset returns the row offset encoded in the page token. Malformed tokens restart at zero.
func (p Pagination) Offset() int {
	if p.PageToken == "" {
		return 0
	}
	cursor, err := DecodeCursor(p.PageToken)
	if err != nil {
		return 0
	}
	return cursor.Offset
}

// BuildPageInfo expects items fetched with limit PageSize+1 and trims the lookahead row.
func BuildPageInfo[T any](items []T, page Pagination) ([]T, PageInfo) {
	if page.PageSize <= 0 || len(items) <= page.PageSize {
		return items, PageInfo{}
	}

	items = items[:page.PageSize]
	token, err := EncodeCursor(Cursor{Offset: page.Offset() + page.PageSize})
	if err != nil {
		return items, PageInfo{}
	}
	return items, PageInfo{NextPageToken: token, HasMore: true}
}
