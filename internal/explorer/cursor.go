package explorer

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"go.uber.org/zap"
)

const cursorVersion = 1

// Phase says which block a listing resumes in.
type Phase string

const (
	PhaseFolders Phase = "folders"
	PhaseFiles   Phase = "files"
)

// Cursor is the complete state needed to resume a listing. It travels to
// the client as an opaque token and is never stored server side.
//
// In the files phase BackendToken is the start token of the current file
// window ("" for the first) and FileOffset the position inside that
// window's sorted order.
type Cursor struct {
	Version      int       `json:"v"`
	Phase        Phase     `json:"p"`
	FolderOffset int       `json:"fo"`
	BackendToken string    `json:"bt,omitempty"`
	FileOffset   int       `json:"ff,omitempty"`
	Sort         SortOrder `json:"s,omitempty"`
}

// InitialCursor is the state of a fresh listing.
func InitialCursor(order SortOrder) Cursor {
	return Cursor{Version: cursorVersion, Phase: PhaseFolders, Sort: order}
}

// EncodeCursor serializes c as unpadded base64url JSON.
func EncodeCursor(c Cursor) string {
	c.Version = cursorVersion
	// Marshal of this struct cannot fail.
	data, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeCursor parses a token produced by EncodeCursor. Any failure,
// including an empty token, returns ErrMalformedCursor.
func DecodeCursor(token string) (Cursor, error) {
	token = strings.TrimRight(strings.TrimSpace(token), "=")
	if token == "" {
		return Cursor{}, ErrMalformedCursor
	}
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, ErrMalformedCursor
	}

	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return Cursor{}, ErrMalformedCursor
	}
	if c.Version != cursorVersion || c.FolderOffset < 0 || c.FileOffset < 0 {
		return Cursor{}, ErrMalformedCursor
	}
	switch c.Phase {
	case PhaseFolders:
		if c.BackendToken != "" || c.FileOffset != 0 {
			return Cursor{}, ErrMalformedCursor
		}
	case PhaseFiles:
	default:
		return Cursor{}, ErrMalformedCursor
	}
	if c.Sort != "" && !c.Sort.Valid() {
		return Cursor{}, ErrMalformedCursor
	}
	return c, nil
}

// resume decodes a request token. Missing, malformed or foreign-sort tokens
// restart from the initial state; fresh reports that restart.
func (e *Engine) resume(token string, order SortOrder) (c Cursor, fresh bool) {
	if strings.TrimSpace(token) == "" {
		return InitialCursor(order), true
	}
	c, err := DecodeCursor(token)
	if err != nil {
		e.logger.Debug("discarding malformed cursor", zap.Error(err))
		return InitialCursor(order), true
	}
	if c.Sort != "" && c.Sort != order {
		e.logger.Debug("discarding cursor minted for another sort order",
			zap.String("cursor_sort", string(c.Sort)), zap.String("sort", string(order)))
		return InitialCursor(order), true
	}
	c.Sort = order
	return c, false
}
