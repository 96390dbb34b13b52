package saju

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// GenerateAlmanac builds formula-predicted almanac rows for every day of
// [fromYear, toYear], one goroutine per year. Rows come back in date order.
func GenerateAlmanac(ctx context.Context, fromYear, toYear int) ([]AlmanacEntry, error) {
	if fromYear > toYear || fromYear < MinYear || toYear > MaxYear {
		return nil, fmt.Errorf("%w: almanac range %d-%d (supported %d-%d)",
			ErrInvalidInput, fromYear, toYear, MinYear, MaxYear)
	}

	years := make([][]AlmanacEntry, toYear-fromYear+1)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i := range years {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			years[i] = generateYear(fromYear + i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []AlmanacEntry
	for _, rows := range years {
		out = append(out, rows...)
	}
	return out, nil
}

func generateYear(year int) []AlmanacEntry {
	var rows []AlmanacEntry
	for d := time.Date(year, time.January, 1, 0, 0, 0, 0, KST); d.Year() == year; d = d.AddDate(0, 0, 1) {
		rows = append(rows, EntryFor(d.Year(), int(d.Month()), d.Day()))
	}
	return rows
}
