package main

import (
	"io"
	"net/http"
	"strconv"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-export-xlsx/adapters/exportapi"
	exporthttp "github.com/goliatone/go-export-xlsx/adapters/http"
	exportcmd "github.com/goliatone/go-export-xlsx/command"
	"github.com/goliatone/go-export-xlsx/export"
	exportqry "github.com/goliatone/go-export-xlsx/query"
	"github.com/gorilla/mux"
)

func (a *app) httpHandler() http.Handler {
	r := mux.NewRouter()
	r.Handle("/metrics", a.metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	a.mountHTTP(api, "users", "/users/list", a.httpListUsers)
	a.mountHTTP(api, "orders", "/orders/list", a.httpListOrders)
	a.mountHTTP(api, "roles", "/roles/list", a.httpListRoles)
	api.HandleFunc("/exports/activity", a.httpActivity).Methods(http.MethodGet)
	api.HandleFunc("/exports/templates/evict", a.httpEvictTemplates).Methods(http.MethodPost)
	return r
}

// mountHTTP registers a list endpoint behind the export middleware for key. Endpoints
// without export config are served as plain JSON.
func (a *app) mountHTTP(r *mux.Router, key, path string, handler http.HandlerFunc) {
	var h http.Handler = handler
	if mw, err := exporthttp.Endpoint(a.pipelines, key); err == nil {
		h = mw(handler)
	} else {
		a.logger.Warn("endpoint mounted without export", "endpoint", key, "error", err)
	}
	r.Handle(path, h).Methods(http.MethodPost)
}

func (a *app) httpListUsers(w http.ResponseWriter, r *http.Request) {
	q, ok := a.httpPageQuery(w, r)
	if !ok {
		return
	}
	_ = exporthttp.Respond(w, r, http.StatusOK, a.data.listUsers(q))
}

func (a *app) httpListOrders(w http.ResponseWriter, r *http.Request) {
	q, ok := a.httpPageQuery(w, r)
	if !ok {
		return
	}
	_ = exporthttp.Respond(w, r, http.StatusOK, a.data.listOrders(q))
}

func (a *app) httpListRoles(w http.ResponseWriter, r *http.Request) {
	_ = exporthttp.Respond(w, r, http.StatusOK, a.data.listRoles())
}

func (a *app) httpActivity(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	filter := export.ActivityFilter{
		Template: values.Get("template"),
		State:    export.ActivityState(values.Get("state")),
	}
	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			httpError(w, r, export.NewError(export.KindValidation, "limit must be a number", err))
			return
		}
		filter.Limit = limit
	}

	records, err := dispatcher.Query[exportqry.ActivityHistory, []export.ActivityRecord](
		r.Context(), exportqry.ActivityHistory{Filter: filter},
	)
	if err != nil {
		httpError(w, r, err)
		return
	}
	_ = exporthttp.Respond(w, r, http.StatusOK, records)
}

func (a *app) httpEvictTemplates(w http.ResponseWriter, r *http.Request) {
	msg := exportcmd.EvictTemplates{Name: r.URL.Query().Get("name")}
	if err := dispatcher.Dispatch(r.Context(), msg); err != nil {
		httpError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *app) httpPageQuery(w http.ResponseWriter, r *http.Request) (pageQuery, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		httpError(w, r, export.NewError(export.KindMalformedBody, "read request body", err))
		return pageQuery{}, false
	}
	q, err := parsePageQuery(body)
	if err != nil {
		httpError(w, r, err)
		return pageQuery{}, false
	}
	return q, true
}

func httpError(w http.ResponseWriter, r *http.Request, err error) {
	status, payload := exportapi.ErrorPayload(err)
	_ = exporthttp.Respond(w, r, status, payload)
}
