package export

import (
	"context"
	"testing"
	"time"
)

func seedActivity(t *testing.T, log ActivityLog, records ...ActivityRecord) {
	t.Helper()
	for _, record := range records {
		if err := log.Record(context.Background(), record); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
}

func TestMemoryActivityLog_List(t *testing.T) {
	log := NewMemoryActivityLog()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seedActivity(t, log,
		ActivityRecord{ID: "a", Template: "users.xlsx", State: ActivityCompleted, CreatedAt: base},
		ActivityRecord{ID: "b", Template: "users.xlsx", State: ActivityFailed, CreatedAt: base.Add(time.Hour)},
		ActivityRecord{ID: "c", Template: "orders.xlsx", State: ActivityCompleted, CreatedAt: base.Add(2 * time.Hour)},
	)

	all, err := log.List(context.Background(), ActivityFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].ID != "c" || all[2].ID != "a" {
		t.Fatalf("expected newest first, got %+v", all)
	}

	cases := []struct {
		name   string
		filter ActivityFilter
		ids    []string
	}{
		{"template", ActivityFilter{Template: "users.xlsx"}, []string{"b", "a"}},
		{"state", ActivityFilter{State: ActivityCompleted}, []string{"c", "a"}},
		{"since", ActivityFilter{Since: base.Add(time.Hour)}, []string{"c", "b"}},
		{"until", ActivityFilter{Until: base}, []string{"a"}},
		{"limit", ActivityFilter{Limit: 1}, []string{"c"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := log.List(context.Background(), tc.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got) != len(tc.ids) {
				t.Fatalf("expected %v, got %+v", tc.ids, got)
			}
			for i, id := range tc.ids {
				if got[i].ID != id {
					t.Fatalf("expected %v, got %+v", tc.ids, got)
				}
			}
		})
	}
}

func TestMemoryActivityLog_AssignsIDs(t *testing.T) {
	log := NewMemoryActivityLog()
	seedActivity(t, log, ActivityRecord{Template: "users.xlsx"}, ActivityRecord{Template: "users.xlsx"})

	first, err := log.Get(context.Background(), "act-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if first.CreatedAt.IsZero() {
		t.Fatalf("expected created at to be set")
	}
	if _, err := log.Get(context.Background(), "act-2"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := log.Get(context.Background(), "act-3"); KindFromError(err) != KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryActivityLog_Prune(t *testing.T) {
	log := NewMemoryActivityLog()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seedActivity(t, log,
		ActivityRecord{ID: "old", Template: "users.xlsx", State: ActivityCompleted, CreatedAt: base},
		ActivityRecord{ID: "old-failed", Template: "users.xlsx", State: ActivityFailed, CreatedAt: base},
		ActivityRecord{ID: "new", Template: "users.xlsx", State: ActivityCompleted, CreatedAt: base.Add(48 * time.Hour)},
	)

	removed, err := log.Prune(context.Background(), ActivityFilter{State: ActivityCompleted, Until: base.Add(time.Hour)})
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, err := log.Get(context.Background(), "old-failed"); err != nil {
		t.Fatalf("expected failed record to remain: %v", err)
	}
	if _, err := log.Prune(context.Background(), ActivityFilter{}); KindFromError(err) != KindValidation {
		t.Fatalf("expected cutoff validation, got %v", err)
	}
}

func TestRetentionRules_TTL(t *testing.T) {
	rules := RetentionRules{
		DefaultTTL: 24 * time.Hour,
		ByState:    map[ActivityState]time.Duration{ActivityFailed: 72 * time.Hour},
		Rules: []RetentionRule{
			{Template: "audit.xlsx", TTL: 0},
			{Template: "users.xlsx", State: ActivityCompleted, TTL: time.Hour},
			{State: ActivityCanceled, TTL: 30 * time.Minute},
		},
	}

	cases := []struct {
		template string
		state    ActivityState
		want     time.Duration
	}{
		{"orders.xlsx", ActivityCompleted, 24 * time.Hour},
		{"orders.xlsx", ActivityFailed, 72 * time.Hour},
		{"orders.xlsx", ActivityCanceled, 30 * time.Minute},
		{"users.xlsx", ActivityCompleted, time.Hour},
		{"users.xlsx", ActivityFailed, 72 * time.Hour},
		{"audit.xlsx", ActivityFailed, 0},
	}
	for _, tc := range cases {
		if got := rules.TTL(tc.template, tc.state); got != tc.want {
			t.Fatalf("TTL(%s, %s) = %s, want %s", tc.template, tc.state, got, tc.want)
		}
	}
}

func TestRetentionRules_Sweep(t *testing.T) {
	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	old := now.Add(-48 * time.Hour)

	log := NewMemoryActivityLog()
	seedActivity(t, log,
		ActivityRecord{ID: "orders-old", Template: "orders.xlsx", State: ActivityCompleted, CreatedAt: old},
		ActivityRecord{ID: "orders-failed", Template: "orders.xlsx", State: ActivityFailed, CreatedAt: old},
		ActivityRecord{ID: "orders-new", Template: "orders.xlsx", State: ActivityCompleted, CreatedAt: now.Add(-time.Hour)},
		ActivityRecord{ID: "audit-old", Template: "audit.xlsx", State: ActivityCompleted, CreatedAt: old},
		ActivityRecord{ID: "users-recent", Template: "users.xlsx", State: ActivityCompleted, CreatedAt: now.Add(-2 * time.Hour)},
	)

	rules := RetentionRules{
		DefaultTTL: 24 * time.Hour,
		ByState:    map[ActivityState]time.Duration{ActivityFailed: 72 * time.Hour},
		Rules: []RetentionRule{
			{Template: "audit.xlsx", TTL: 0},
			{Template: "users.xlsx", State: ActivityCompleted, TTL: time.Hour},
		},
	}

	removed, err := rules.Sweep(context.Background(), log, now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}

	remaining, err := log.List(context.Background(), ActivityFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	ids := map[string]bool{}
	for _, record := range remaining {
		ids[record.ID] = true
	}
	for _, id := range []string{"orders-failed", "orders-new", "audit-old"} {
		if !ids[id] {
			t.Fatalf("expected %s to be kept, got %v", id, ids)
		}
	}
	if ids["orders-old"] || ids["users-recent"] {
		t.Fatalf("expected expired records to be pruned, got %v", ids)
	}
}

func TestRetentionRules_SweepWithoutRules(t *testing.T) {
	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	log := NewMemoryActivityLog()
	seedActivity(t, log,
		ActivityRecord{ID: "a", Template: "users.xlsx", State: ActivityCompleted, CreatedAt: now.Add(-2 * time.Hour)},
		ActivityRecord{ID: "b", Template: "users.xlsx", State: ActivityCanceled, CreatedAt: now.Add(-2 * time.Hour)},
	)

	removed, err := RetentionRules{DefaultTTL: time.Hour}.Sweep(context.Background(), log, now)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if removed, _ := (RetentionRules{}).Sweep(context.Background(), log, now); removed != 0 {
		t.Fatalf("expected zero TTL to keep everything")
	}
	if _, err := (RetentionRules{}).Sweep(context.Background(), nil, now); KindFromError(err) != KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
