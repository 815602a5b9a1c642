package exporthttp

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/goliatone/go-export-xlsx/export"
)

type resultKey struct{}

type resultSlot struct {
	mu    sync.Mutex
	value any
	set   bool
}

func (s *resultSlot) store(value any) {
	s.mu.Lock()
	s.value = value
	s.set = true
	s.mu.Unlock()
}

func (s *resultSlot) get() (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.set
}

func slotFrom(r *http.Request) *resultSlot {
	if r == nil {
		return nil
	}
	slot, _ := r.Context().Value(resultKey{}).(*resultSlot)
	return slot
}

// Exporting reports whether r is being served by the export middleware.
func Exporting(r *http.Request) bool {
	return slotFrom(r) != nil
}

// SetResult hands value to the export middleware. It returns false when the request is
// not being exported.
func SetResult(r *http.Request, value any) bool {
	slot := slotFrom(r)
	if slot == nil {
		return false
	}
	slot.store(value)
	return true
}

// Respond writes value as JSON, or hands it to the export middleware when the request
// is being exported and status is a success.
func Respond(w http.ResponseWriter, r *http.Request, status int, value any) error {
	if status >= 200 && status < 300 && SetResult(r, value) {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(value)
}

// Requested reports whether r carries the export header.
func Requested(r *http.Request) bool {
	return r != nil && export.Requested(r.Header.Get(export.HeaderExport))
}
