package main

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-export-xlsx/adapters/exportapi"
	exportrouter "github.com/goliatone/go-export-xlsx/adapters/router"
	"github.com/goliatone/go-export-xlsx/export"
	exportqry "github.com/goliatone/go-export-xlsx/query"
	"github.com/goliatone/go-router"
)

func (a *app) fiberServer() router.Server[*fiber.App] {
	srv := router.NewFiberAdapter(func(*fiber.App) *fiber.App {
		return fiber.New(fiber.Config{
			AppName:               "export-demo",
			DisableStartupMessage: true,
		})
	})

	r := srv.Router()
	a.mountRouter(r, "users", "/api/users/list", a.routerListUsers)
	a.mountRouter(r, "orders", "/api/orders/list", a.routerListOrders)
	a.mountRouter(r, "roles", "/api/roles/list", a.routerListRoles)
	r.Get("/api/exports/activity", a.routerActivity)
	return srv
}

func (a *app) mountRouter(r router.Router[*fiber.App], key, path string, handler router.HandlerFunc) {
	h := handler
	if mw, err := exportrouter.Endpoint(a.pipelines, key); err == nil {
		h = mw(handler)
	} else {
		a.logger.Warn("endpoint mounted without export", "endpoint", key, "error", err)
	}
	r.Post(path, h)
}

func (a *app) routerListUsers(c router.Context) error {
	q, err := parsePageQuery(exportrouter.Body(c))
	if err != nil {
		return routerError(c, err)
	}
	return exportrouter.Respond(c, http.StatusOK, a.data.listUsers(q))
}

func (a *app) routerListOrders(c router.Context) error {
	q, err := parsePageQuery(exportrouter.Body(c))
	if err != nil {
		return routerError(c, err)
	}
	return exportrouter.Respond(c, http.StatusOK, a.data.listOrders(q))
}

func (a *app) routerListRoles(c router.Context) error {
	return exportrouter.Respond(c, http.StatusOK, a.data.listRoles())
}

func (a *app) routerActivity(c router.Context) error {
	filter := export.ActivityFilter{
		Template: c.Query("template"),
		State:    export.ActivityState(c.Query("state")),
		Limit:    c.QueryInt("limit", 0),
	}
	records, err := dispatcher.Query[exportqry.ActivityHistory, []export.ActivityRecord](
		c.Context(), exportqry.ActivityHistory{Filter: filter},
	)
	if err != nil {
		return routerError(c, err)
	}
	return c.JSON(http.StatusOK, records)
}

func routerError(c router.Context, err error) error {
	status, payload := exportapi.ErrorPayload(err)
	return c.JSON(status, payload)
}
