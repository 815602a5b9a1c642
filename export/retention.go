package export

import (
	"context"
	"sort"
	"time"
)

// RetentionRule overrides the activity TTL for matching records.
type RetentionRule struct {
	Template string
	State    ActivityState
	TTL      time.Duration
}

// RetentionRules configures how long export activity is kept. A zero TTL keeps records
// forever.
type RetentionRules struct {
	DefaultTTL time.Duration
	ByState    map[ActivityState]time.Duration
	Rules      []RetentionRule
}

// TTL returns the retention for a template/state pair. Template rules win over state
// rules, which win over per-state overrides and the default.
func (r RetentionRules) TTL(template string, state ActivityState) time.Duration {
	if ttl, ok := matchRetentionRules(r.Rules, template, state); ok {
		return ttl
	}
	if ttl, ok := r.ByState[state]; ok {
		return ttl
	}
	return r.DefaultTTL
}

// Sweep prunes expired activity from log. Template scoped rules are pruned first; the
// remaining records of each state are pruned with the state TTL.
func (r RetentionRules) Sweep(ctx context.Context, log ActivityLog, now time.Time) (int64, error) {
	if log == nil {
		return 0, NewError(KindValidation, "activity log is required", nil)
	}

	var removed int64
	scoped := make(map[string]struct{})
	for _, rule := range r.Rules {
		if rule.Template == "" {
			continue
		}
		scoped[rule.Template] = struct{}{}
	}

	templates := make([]string, 0, len(scoped))
	for template := range scoped {
		templates = append(templates, template)
	}
	sort.Strings(templates)

	states := []ActivityState{ActivityCompleted, ActivityFailed, ActivityCanceled}
	for _, template := range templates {
		for _, state := range states {
			n, err := prune(ctx, log, template, state, r.TTL(template, state), now)
			if err != nil {
				return removed, err
			}
			removed += n
		}
	}

	// an unscoped prune would reach records of scoped templates, so prune the rest per template
	if len(templates) > 0 {
		records, err := log.List(ctx, ActivityFilter{})
		if err != nil {
			return removed, err
		}
		seen := make(map[string]struct{})
		for _, record := range records {
			if _, ok := scoped[record.Template]; ok {
				continue
			}
			if _, ok := seen[record.Template]; ok {
				continue
			}
			seen[record.Template] = struct{}{}
			for _, state := range states {
				n, err := prune(ctx, log, record.Template, state, r.TTL(record.Template, state), now)
				if err != nil {
					return removed, err
				}
				removed += n
			}
		}
		return removed, nil
	}

	for _, state := range states {
		n, err := prune(ctx, log, "", state, r.TTL("", state), now)
		if err != nil {
			return removed, err
		}
		removed += n
	}
	return removed, nil
}

func prune(ctx context.Context, log ActivityLog, template string, state ActivityState, ttl time.Duration, now time.Time) (int64, error) {
	if ttl <= 0 {
		return 0, nil
	}
	return log.Prune(ctx, ActivityFilter{
		Template: template,
		State:    state,
		Until:    now.Add(-ttl),
	})
}

func matchRetentionRules(rules []RetentionRule, template string, state ActivityState) (time.Duration, bool) {
	type match struct {
		ttl   time.Duration
		score int
		index int
	}
	var matches []match
	for idx, rule := range rules {
		if rule.Template != "" && rule.Template != template {
			continue
		}
		if rule.State != "" && rule.State != state {
			continue
		}
		score := 0
		if rule.Template != "" {
			score += 2
		}
		if rule.State != "" {
			score++
		}
		matches = append(matches, match{ttl: rule.TTL, score: score, index: idx})
	}
	if len(matches) == 0 {
		return 0, false
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score == matches[j].score {
			return matches[i].index < matches[j].index
		}
		return matches[i].score > matches[j].score
	})
	return matches[0].ttl, true
}
