package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/goliatone/go-export-xlsx/export"
)

type user struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"createdAt"`
}

type order struct {
	ID       int     `json:"id"`
	Customer string  `json:"customer"`
	Items    int     `json:"items"`
	Total    float64 `json:"total"`
	Status   string  `json:"status"`
}

type role struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// pageQuery is the list request body shared by the demo endpoints.
type pageQuery struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func parsePageQuery(body []byte) (pageQuery, error) {
	q := pageQuery{Page: 1, Limit: 20}
	if len(body) == 0 {
		return q, nil
	}
	if err := json.Unmarshal(body, &q); err != nil {
		return pageQuery{}, export.NewError(export.KindValidation, "invalid list request", err)
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 20
	}
	return q, nil
}

func (q pageQuery) bounds(total int) (int, int) {
	start := (q.Page - 1) * q.Limit
	if start > total {
		start = total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}
	return start, end
}

type dataset struct {
	users  []user
	orders []order
	roles  []role
}

func newDataset(users, orders int) *dataset {
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	roles := []role{
		{Code: "admin", Description: "Full access"},
		{Code: "editor", Description: "Manage content"},
		{Code: "viewer", Description: "Read only"},
	}
	statuses := []string{"pending", "paid", "shipped"}

	d := &dataset{roles: roles}
	for i := 1; i <= users; i++ {
		d.users = append(d.users, user{
			ID:        i,
			Name:      fmt.Sprintf("User %03d", i),
			Email:     fmt.Sprintf("user%03d@example.com", i),
			Role:      roles[i%len(roles)].Code,
			Active:    i%4 != 0,
			Password:  "secret",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	for i := 1; i <= orders; i++ {
		d.orders = append(d.orders, order{
			ID:       1000 + i,
			Customer: fmt.Sprintf("User %03d", (i%users)+1),
			Items:    i%5 + 1,
			Total:    float64(i%7+1) * 12.5,
			Status:   statuses[i%len(statuses)],
		})
	}
	return d
}

func (d *dataset) listUsers(q pageQuery) export.Paged {
	start, end := q.bounds(len(d.users))
	return export.Paged{
		Items: d.users[start:end],
		Count: int64(len(d.users)),
		Limit: q.Limit,
		Page:  q.Page,
	}
}

func (d *dataset) listOrders(q pageQuery) export.PagedWithFooter {
	start, end := q.bounds(len(d.orders))
	page := d.orders[start:end]

	totals := order{Customer: "Total"}
	for _, o := range page {
		totals.Items += o.Items
		totals.Total += o.Total
	}
	return export.PagedWithFooter{
		Paged: export.Paged{
			Items: page,
			Count: int64(len(d.orders)),
			Limit: q.Limit,
			Page:  q.Page,
		},
		FooterItems: []order{totals},
	}
}

func (d *dataset) listRoles() []role {
	return d.roles
}
