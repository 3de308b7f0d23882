package orders

import (
	"context"
	"sort"
	"time"

	"github.com/cafemuji/cafemuji-backend/pkg/db/models"
	"github.com/cafemuji/cafemuji-backend/pkg/enums"
	pkgerrors "github.com/cafemuji/cafemuji-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

const pudding = "pudding"

// Statistics summarizes the station's day in the configured location.
func (s *service) Statistics(ctx context.Context, kind enums.ItemKind, now time.Time) (*Statistics, error) {
	if _, err := s.policies.For(kind); err != nil {
		return nil, err
	}

	local := now.In(s.loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc).UTC()

	today, err := s.repo.ListItems(ctx, ListFilter{Kind: kind, CreatedFrom: &dayStart, Limit: maxListLimit})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load today's items")
	}
	open := false
	pending, err := s.repo.ListItems(ctx, ListFilter{Kind: kind, IsCompleted: &open, Limit: maxListLimit})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pending items")
	}

	stats := summarize(today, s.popularTop)
	stats.Kind = kind
	stats.Day = local.Format(time.DateOnly)
	stats.Pending = len(pending)
	return stats, nil
}

func summarize(items []models.OrderItem, top int) *Statistics {
	stats := &Statistics{
		TotalToday:     len(items),
		CompletionRate: decimal.Zero,
		AvgPrepSeconds: decimal.Zero,
		Popular:        []PopularEntry{},
	}

	prep := decimal.Zero
	counts := make(map[string]int)
	for _, item := range items {
		if item.IsCompleted && item.CompletedAt != nil {
			stats.CompletedToday++
			prep = prep.Add(decimal.NewFromFloat(item.CompletedAt.Sub(item.CreatedAt).Seconds()))
		}
		for _, name := range popularNames(item) {
			counts[name] += item.Units()
		}
	}

	if stats.TotalToday > 0 {
		stats.CompletionRate = decimal.NewFromInt(int64(stats.CompletedToday)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(stats.TotalToday))).
			Round(1)
	}
	if stats.CompletedToday > 0 {
		stats.AvgPrepSeconds = prep.Div(decimal.NewFromInt(int64(stats.CompletedToday))).Round(1)
	}

	for name, count := range counts {
		stats.Popular = append(stats.Popular, PopularEntry{Name: name, Count: count})
	}
	sort.Slice(stats.Popular, func(i, j int) bool {
		if stats.Popular[i].Count != stats.Popular[j].Count {
			return stats.Popular[i].Count > stats.Popular[j].Count
		}
		return stats.Popular[i].Name < stats.Popular[j].Name
	})
	if top > 0 && len(stats.Popular) > top {
		stats.Popular = stats.Popular[:top]
	}
	return stats
}

// popularNames is what an item counts toward in the popularity ranking: the
// menu for food, each scoop flavor for ice, the syrup for shaved ice.
func popularNames(item models.OrderItem) []string {
	switch item.Kind {
	case enums.ItemKindFood:
		if item.Menu != nil {
			return []string{*item.Menu}
		}
	case enums.ItemKindIce:
		if item.IsPudding {
			return []string{pudding}
		}
		var names []string
		if item.Flavor1 != nil {
			names = append(names, item.Flavor1.String())
		}
		if item.Flavor2 != nil {
			names = append(names, item.Flavor2.String())
		}
		return names
	case enums.ItemKindShavedIce:
		if item.Flavor != nil {
			return []string{item.Flavor.String()}
		}
	}
	return nil
}
