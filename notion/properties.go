// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notion

import (
	"github.com/danielhkuo/pollsync/store"
)

// Wire types for the subset of the Notion API we use.

type parent struct {
	DatabaseID string `json:"database_id"`
}

type page struct {
	ID         string              `json:"id"`
	Archived   bool                `json:"archived"`
	Parent     parent              `json:"parent"`
	Properties map[string]property `json:"properties"`
}

func (p page) record(collection string) store.Record {
	return store.Record{
		ID:         p.ID,
		Collection: collection,
		Properties: decodeProperties(p.Properties),
		Archived:   p.Archived,
	}
}

type queryRequest struct {
	Filter      *compoundFilter `json:"filter,omitempty"`
	StartCursor string          `json:"start_cursor,omitempty"`
	PageSize    int             `json:"page_size,omitempty"`
}

type queryResponse struct {
	Results    []page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

type updateRequest struct {
	Properties map[string]property `json:"properties,omitempty"`
	Archived   *bool               `json:"archived,omitempty"`
}

type createRequest struct {
	Parent     parent              `json:"parent"`
	Properties map[string]property `json:"properties"`
}

type textContent struct {
	Content string `json:"content"`
}

type richText struct {
	Type      string       `json:"type,omitempty"`
	Text      *textContent `json:"text,omitempty"`
	PlainText string       `json:"plain_text,omitempty"`
}

func (r richText) content() string {
	if r.PlainText != "" {
		return r.PlainText
	}
	if r.Text != nil {
		return r.Text.Content
	}
	return ""
}

type selectOption struct {
	Name string `json:"name"`
}

type dateRange struct {
	Start string `json:"start"`
}

// property is a page property value. Exactly one of the typed fields is
// set, matching Type.
type property struct {
	Type     string        `json:"type,omitempty"`
	Title    []richText    `json:"title,omitempty"`
	RichText []richText    `json:"rich_text,omitempty"`
	Number   *float64      `json:"number,omitempty"`
	Select   *selectOption `json:"select,omitempty"`
	Date     *dateRange    `json:"date,omitempty"`
}

func encodeProperties(props store.Properties) map[string]property {
	if len(props) == 0 {
		return nil
	}
	out := make(map[string]property, len(props))
	for name, v := range props {
		out[name] = encodeValue(v)
	}
	return out
}

func encodeValue(v store.Value) property {
	p := property{Type: string(v.Kind)}
	switch v.Kind {
	case store.KindTitle:
		p.Title = []richText{{Type: "text", Text: &textContent{Content: v.Str}}}
	case store.KindText:
		p.RichText = []richText{{Type: "text", Text: &textContent{Content: v.Str}}}
	case store.KindNumber:
		n := v.Num
		p.Number = &n
	case store.KindSelect:
		p.Select = &selectOption{Name: v.Str}
	case store.KindDate:
		p.Date = &dateRange{Start: v.Str}
	}
	return p
}

// decodeProperties keeps the property types the store knows and drops the
// rest (formulas, relations, people).
func decodeProperties(in map[string]property) store.Properties {
	out := make(store.Properties, len(in))
	for name, p := range in {
		switch store.Kind(p.Type) {
		case store.KindTitle:
			out[name] = store.Title(joinText(p.Title))
		case store.KindText:
			out[name] = store.Text(joinText(p.RichText))
		case store.KindNumber:
			if p.Number != nil {
				out[name] = store.Number(*p.Number)
			}
		case store.KindSelect:
			if p.Select != nil {
				out[name] = store.Select(p.Select.Name)
			}
		case store.KindDate:
			if p.Date != nil {
				start := p.Date.Start
				if len(start) > len(store.DateLayout) {
					start = start[:len(store.DateLayout)]
				}
				out[name] = store.Value{Kind: store.KindDate, Str: start}
			}
		}
	}
	return out
}

func joinText(parts []richText) string {
	var s string
	for _, r := range parts {
		s += r.content()
	}
	return s
}

// Filters

type compoundFilter struct {
	And []propertyFilter `json:"and"`
}

type equalsString struct {
	Equals string `json:"equals"`
}

type equalsNumber struct {
	Equals float64 `json:"equals"`
}

type propertyFilter struct {
	Property string        `json:"property"`
	Title    *equalsString `json:"title,omitempty"`
	RichText *equalsString `json:"rich_text,omitempty"`
	Number   *equalsNumber `json:"number,omitempty"`
	Select   *equalsString `json:"select,omitempty"`
	Date     *equalsString `json:"date,omitempty"`
}

func encodeFilter(f store.Filter) *compoundFilter {
	out := &compoundFilter{And: make([]propertyFilter, 0, len(f.Conditions))}
	for _, c := range f.Conditions {
		pf := propertyFilter{Property: c.Property}
		switch c.Value.Kind {
		case store.KindTitle:
			pf.Title = &equalsString{Equals: c.Value.Str}
		case store.KindText:
			pf.RichText = &equalsString{Equals: c.Value.Str}
		case store.KindNumber:
			pf.Number = &equalsNumber{Equals: c.Value.Num}
		case store.KindSelect:
			pf.Select = &equalsString{Equals: c.Value.Str}
		case store.KindDate:
			pf.Date = &equalsString{Equals: c.Value.Str}
		}
		out.And = append(out.And, pf)
	}
	return out
}
