package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Page is one page of a listed resource. Every list response shape the
// backend produces is normalised into it.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
	Total      int `json:"total"`
}

// HasNext reports whether a later page exists.
func (p Page[T]) HasNext() bool { return p.Page < p.TotalPages }

// HasPrev reports whether an earlier page exists.
func (p Page[T]) HasPrev() bool { return p.Page > 1 }

// pageCounters captures the pagination fields the backend has been seen to
// use, either at the top level or under "pagination".
type pageCounters struct {
	Page        *int `json:"page"`
	CurrentPage *int `json:"currentPage"`
	TotalPages  *int `json:"totalPages"`
	Pages       *int `json:"pages"`
	Total       *int `json:"total"`
	TotalItems  *int `json:"totalItems"`
}

func (pc pageCounters) apply(page, totalPages, total *int) {
	switch {
	case pc.Page != nil:
		*page = *pc.Page
	case pc.CurrentPage != nil:
		*page = *pc.CurrentPage
	}
	switch {
	case pc.TotalPages != nil:
		*totalPages = *pc.TotalPages
	case pc.Pages != nil:
		*totalPages = *pc.Pages
	}
	switch {
	case pc.Total != nil:
		*total = *pc.Total
	case pc.TotalItems != nil:
		*total = *pc.TotalItems
	}
}

// decodePage normalises a list reply. Accepted shapes:
//
//	[ ... ]
//	{ "<resource>": [ ... ], "totalPages": n, ... }
//	{ "data": [ ... ] }  or  { "data": { "<resource>": [ ... ] } }
//	any of the above with a "pagination" object
func decodePage[T any](body []byte, resource string) (Page[T], error) {
	var out Page[T]
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return out, fmt.Errorf("decoding %s list: empty body", resource)
	}

	page, totalPages, total := 0, 0, -1

	if body[0] == '[' {
		if err := json.Unmarshal(body, &out.Items); err != nil {
			return out, fmt.Errorf("decoding %s list: %w", resource, err)
		}
	} else {
		items, err := findItems(body, resource, &page, &totalPages, &total, 0)
		if err != nil {
			return out, err
		}
		if items != nil {
			if err := json.Unmarshal(items, &out.Items); err != nil {
				return out, fmt.Errorf("decoding %s list: %w", resource, err)
			}
		}
	}

	if out.Items == nil {
		out.Items = []T{}
	}
	if page < 1 {
		page = 1
	}
	if total < 0 {
		total = len(out.Items)
	}
	if totalPages < 1 {
		totalPages = 1
	}
	out.Page, out.TotalPages, out.Total = page, totalPages, total
	return out, nil
}

// findItems locates the item array inside an envelope object, collecting
// pagination counters on the way. "data" may nest one more envelope.
func findItems(body []byte, resource string, page, totalPages, total *int, depth int) (json.RawMessage, error) {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decoding %s list: %w", resource, err)
	}

	var top pageCounters
	if err := json.Unmarshal(body, &top); err == nil {
		top.apply(page, totalPages, total)
	}
	if raw, ok := env["pagination"]; ok {
		var pc pageCounters
		if err := json.Unmarshal(raw, &pc); err == nil {
			pc.apply(page, totalPages, total)
		}
	}

	if raw, ok := env[resource]; ok && isArray(raw) {
		return raw, nil
	}
	if raw, ok := env["data"]; ok {
		if isArray(raw) {
			return raw, nil
		}
		if depth == 0 && isObject(raw) {
			return findItems(raw, resource, page, totalPages, total, depth+1)
		}
	}
	if raw, ok := env["items"]; ok && isArray(raw) {
		return raw, nil
	}
	return nil, nil
}

// decodeOne extracts a single document from a reply that is either the bare
// document, { "<key>": {...} } or { "data": {...} }. An empty 2xx reply
// (204) is a success with a zero document.
func decodeOne[T any](body []byte, key string) (*T, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return new(T), nil
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", key, err)
	}

	doc := json.RawMessage(body)
	if raw, ok := env[key]; ok && isObject(raw) {
		doc = raw
	} else if raw, ok := env["data"]; ok && isObject(raw) {
		doc = raw
	}

	var out T
	if err := json.Unmarshal(doc, &out); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", key, err)
	}
	return &out, nil
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}
