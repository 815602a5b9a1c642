package export

import (
	"encoding/json"
	"math"
)

// EnvelopeKind names the shape of a handler result.
type EnvelopeKind string

const (
	EnvelopePlain           EnvelopeKind = "plain"
	EnvelopePaged           EnvelopeKind = "paged"
	EnvelopePagedWithFooter EnvelopeKind = "paged_with_footer"
)

// Envelope is the classified shape of a handler result. The variants are Plain, Paged
// and PagedWithFooter.
type Envelope interface {
	Kind() EnvelopeKind
	envelope()
}

// Plain is a result that is directly a sequence of records.
type Plain struct {
	Items any
}

func (Plain) Kind() EnvelopeKind { return EnvelopePlain }
func (Plain) envelope()          {}

// MarshalJSON encodes the items as a bare JSON array.
func (p Plain) MarshalJSON() ([]byte, error) {
	if p.Items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p.Items)
}

// Paged is a page of records plus paging metadata.
type Paged struct {
	Items any
	Count int64
	Limit int
	Page  int
}

func (Paged) Kind() EnvelopeKind { return EnvelopePaged }
func (Paged) envelope()          {}

// TotalPages returns ceil(Count/Limit), or 0 when either is zero.
func (p Paged) TotalPages() int {
	if p.Count <= 0 || p.Limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(p.Count) / float64(p.Limit)))
}

// MarshalJSON encodes the page using the listData/count/limit/page/totalPage layout.
func (p Paged) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.payload())
}

func (p Paged) payload() pagedPayload {
	items := p.Items
	if items == nil {
		items = []any{}
	}
	return pagedPayload{
		ListData:  items,
		Count:     p.Count,
		Limit:     p.Limit,
		Page:      p.Page,
		TotalPage: p.TotalPages(),
	}
}

// PagedWithFooter is a page followed by footer records (totals, summaries). Footer rows
// are rendered after the body rows.
type PagedWithFooter struct {
	Paged
	FooterItems any
}

func (PagedWithFooter) Kind() EnvelopeKind { return EnvelopePagedWithFooter }

// MarshalJSON encodes the page plus a footerData array.
func (p PagedWithFooter) MarshalJSON() ([]byte, error) {
	payload := p.Paged.payload()
	payload.FooterData = p.FooterItems
	if payload.FooterData == nil {
		payload.FooterData = []any{}
	}
	return json.Marshal(payload)
}

type pagedPayload struct {
	ListData   any   `json:"listData"`
	Count      int64 `json:"count"`
	Limit      int   `json:"limit"`
	Page       int   `json:"page"`
	TotalPage  int   `json:"totalPage"`
	FooterData any   `json:"footerData,omitempty"`
}

func envelopeParts(env Envelope) (items any, footer any, err error) {
	switch e := env.(type) {
	case PagedWithFooter:
		return e.Items, e.FooterItems, nil
	case *PagedWithFooter:
		if e == nil {
			return nil, nil, NewError(KindUnsupportedShape, "nil envelope", nil)
		}
		return e.Items, e.FooterItems, nil
	case Paged:
		return e.Items, nil, nil
	case *Paged:
		if e == nil {
			return nil, nil, NewError(KindUnsupportedShape, "nil envelope", nil)
		}
		return e.Items, nil, nil
	case Plain:
		return e.Items, nil, nil
	case *Plain:
		if e == nil {
			return nil, nil, NewError(KindUnsupportedShape, "nil envelope", nil)
		}
		return e.Items, nil, nil
	case nil:
		return nil, nil, NewError(KindUnsupportedShape, "nil envelope", nil)
	default:
		return nil, nil, NewError(KindUnsupportedShape, "unknown envelope "+string(env.Kind()), nil)
	}
}
