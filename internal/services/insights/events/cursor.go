// Package events lists raw events and folds their side-table properties back into maps
package events

import (
	"encoding/base64"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"insights/internal/services/insights/domain"
)

var cursorJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// EncodeCursor renders c as an opaque url safe token
func EncodeCursor(c domain.Cursor) (string, error) {
	b, err := cursorJSON.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DecodeCursor parses a token from EncodeCursor, an empty token means the first page
func DecodeCursor(token string) (*domain.Cursor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, domain.InvalidDescriptorf("cursor", "cursor is not valid base64url")
	}
	var c domain.Cursor
	if err := cursorJSON.Unmarshal(b, &c); err != nil {
		return nil, domain.InvalidDescriptorf("cursor", "cursor payload is malformed")
	}
	if c.ID == "" || c.CreatedAt.IsZero() {
		return nil, domain.InvalidDescriptorf("cursor", "cursor is incomplete")
	}
	return &c, nil
}
