// Package protocol defines the message catalog and the JSON array envelopes
// exchanged with clients.
package protocol

import (
	"fmt"
	"maps"
	"slices"

	"github.com/tcec-chess/livefeed/pkg/errors"
)

// Message names known to the server.
const (
	IPGet           = "ip_get"
	UserSubscribe   = "user_subscribe"
	UserUnsubscribe = "user_unsubscribe"
	FeedGet         = "feed_get"
	FeedLog         = "feed_log"
	FeedPGN         = "feed_pgn"
	FeedFile        = "feed_file"
)

// DefaultMessages returns the built-in name to code table.
func DefaultMessages() map[string]int {
	return map[string]int{
		IPGet:           1,
		UserSubscribe:   2,
		UserUnsubscribe: 3,
		FeedGet:         4,
		FeedLog:         10,
		FeedPGN:         11,
		FeedFile:        12,
	}
}

// Entry is one row of the catalog.
type Entry struct {
	Code int    `json:"code" yaml:"code"`
	Name string `json:"name" yaml:"name"`
}

// Catalog is an immutable bijection between message codes and names.
type Catalog struct {
	byCode map[int]string
	byName map[string]int
}

// NewCatalog validates messages and builds a catalog from them.
func NewCatalog(messages map[string]int) (*Catalog, error) {
	if len(messages) == 0 {
		return nil, errors.NewValidationError("messages", nil, "catalog is empty")
	}
	c := &Catalog{
		byCode: make(map[int]string, len(messages)),
		byName: make(map[string]int, len(messages)),
	}
	// sorted so the reported duplicate is stable
	for _, name := range slices.Sorted(maps.Keys(messages)) {
		code := messages[name]
		if name == "" {
			return nil, errors.NewValidationError("name", code, "message name is empty")
		}
		if code < 0 {
			return nil, errors.NewValidationError("code", code, fmt.Sprintf("message %s has a negative code", name))
		}
		if other, dup := c.byCode[code]; dup {
			return nil, errors.NewValidationError("code", code,
				fmt.Sprintf("code %d is used by both %s and %s", code, other, name))
		}
		c.byCode[code] = name
		c.byName[name] = code
	}
	return c, nil
}

// NewCatalogFromEntries builds a catalog from a list, rejecting duplicate names.
func NewCatalogFromEntries(entries []Entry) (*Catalog, error) {
	messages := make(map[string]int, len(entries))
	for _, e := range entries {
		if _, dup := messages[e.Name]; dup {
			return nil, errors.NewValidationError("name", e.Name,
				fmt.Sprintf("message %s is listed twice", e.Name))
		}
		messages[e.Name] = e.Code
	}
	return NewCatalog(messages)
}

// DefaultCatalog returns the catalog built from DefaultMessages.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultMessages())
	if err != nil {
		panic(err)
	}
	return c
}

// Name returns the message name for code.
func (c *Catalog) Name(code int) (string, bool) {
	name, ok := c.byCode[code]
	return name, ok
}

// Code returns the code for a message name.
func (c *Catalog) Code(name string) (int, bool) {
	code, ok := c.byName[name]
	return code, ok
}

// Len returns the number of messages.
func (c *Catalog) Len() int { return len(c.byCode) }

// Entries returns all messages ordered by code.
func (c *Catalog) Entries() []Entry {
	entries := make([]Entry, 0, len(c.byCode))
	for _, code := range slices.Sorted(maps.Keys(c.byCode)) {
		entries = append(entries, Entry{Code: code, Name: c.byCode[code]})
	}
	return entries
}
