package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/warp/saju-engine/api"
	"github.com/warp/saju-engine/saju"
)

// =============================================================================
// BIRTH MOMENT FLAGS
// =============================================================================

type momentFlags struct {
	date      string
	clock     string
	lunar     bool
	leap      bool
	location  string
	longitude float64
	noCorrect bool
	noNightZi bool
}

func (f *momentFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.date, "date", "d", "", "birth date YYYY-MM-DD (required)")
	fs.StringVarP(&f.clock, "time", "t", "00:00", "birth time HH:MM (KST)")
	fs.BoolVar(&f.lunar, "lunar", false, "date is lunar (needs --db)")
	fs.BoolVar(&f.leap, "leap", false, "lunar leap month")
	fs.StringVarP(&f.location, "location", "l", "", "named birth place for true solar time, e.g. 서울")
	fs.Float64Var(&f.longitude, "longitude", 0, "birth longitude in degrees east for true solar time")
	fs.BoolVar(&f.noCorrect, "no-correct", false, "disable the configured true solar time correction")
	fs.BoolVar(&f.noNightZi, "no-night-zi", false, "keep the day pillar for births from 23:00")
}

// moment parses the flags. Range checks are left to the engine.
func (f *momentFlags) moment() (saju.BirthMoment, []saju.Option, error) {
	var m saju.BirthMoment
	if f.date == "" {
		return m, nil, fmt.Errorf("%w: --date is required", saju.ErrInvalidInput)
	}
	if _, err := fmt.Sscanf(f.date, "%d-%d-%d", &m.Year, &m.Month, &m.Day); err != nil {
		return m, nil, fmt.Errorf("%w: date %q", saju.ErrInvalidInput, f.date)
	}
	if _, err := fmt.Sscanf(f.clock, "%d:%d", &m.Hour, &m.Minute); err != nil {
		return m, nil, fmt.Errorf("%w: time %q", saju.ErrInvalidInput, f.clock)
	}
	m.IsSolar = !f.lunar
	m.IsLeapMonth = f.leap

	var opts []saju.Option
	switch {
	case f.location != "":
		off, err := saju.LocationOffset(f.location)
		if err != nil {
			return m, nil, err
		}
		opts = append(opts, saju.WithSolarTimeOffset(off))
	case f.longitude != 0:
		opts = append(opts, saju.WithSolarTimeOffset(saju.SolarTimeOffset(f.longitude)))
	case f.noCorrect:
		opts = append(opts, saju.WithSolarTimeOffset(0))
	}
	if f.noNightZi {
		opts = append(opts, saju.WithNightZi(false))
	}
	return m, opts, nil
}

// =============================================================================
// COMMANDS
// =============================================================================

func pillarsCmd(a *app) *cobra.Command {
	var mf momentFlags
	var analysis bool

	c := &cobra.Command{
		Use:   "pillars",
		Short: "Compute the four pillars of a birth moment",
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			defer closeInto(a, &err)

			m, opts, err := mf.moment()
			if err != nil {
				return err
			}
			eng, err := a.engine(opts...)
			if err != nil {
				return err
			}
			r, err := eng.Compute(cmd.Context(), m)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printReading(out, r)
			if analysis {
				printAnalysis(out, saju.Analyze(r.Pillars))
			}
			return nil
		},
	}
	mf.register(c.Flags())
	c.Flags().BoolVarP(&analysis, "analysis", "a", false, "also print ten stars, life stages, sinsal and element balance")
	return c
}

func daeunCmd(a *app) *cobra.Command {
	var mf momentFlags
	var gender string
	var maxAge, age int

	c := &cobra.Command{
		Use:   "daeun",
		Short: "List the decade luck periods",
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			defer closeInto(a, &err)

			m, opts, err := mf.moment()
			if err != nil {
				return err
			}
			g, err := saju.ParseGender(gender)
			if err != nil {
				return err
			}
			eng, err := a.engine(opts...)
			if err != nil {
				return err
			}
			list, err := eng.Daeun(cmd.Context(), m, g)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			dir := "forward"
			if !list.Forward {
				dir = "backward"
			}
			fmt.Fprintf(out, "direction  %s\n", dir)
			fmt.Fprintf(out, "start age  %d\n", list.StartAge)
			if d := list.Distance; d != nil {
				fmt.Fprintf(out, "distance   %s days to %s %s (%s)\n",
					d.Days.StringFixed(2), d.Term, d.At.In(saju.KST).Format("2006-01-02 15:04"), d.Source)
			} else {
				fmt.Fprintln(out, "distance   unknown, fallback start age")
			}
			for _, p := range list.Until(maxAge) {
				fmt.Fprintf(out, "%3d-%3d  %d-%d  %s %s\n",
					p.StartAge, p.EndAge, p.StartYear, p.EndYear, p.Pillar.Hanja(), p.Pillar.Korean())
			}
			if age > 0 {
				if cur, ok := list.At(age); ok {
					fmt.Fprintf(out, "age %d: %s, year %d of 10\n", age, cur.Period.Pillar.Hanja(), cur.YearsIn)
				}
			}
			return nil
		},
	}
	mf.register(c.Flags())
	c.Flags().StringVarP(&gender, "gender", "g", "", "male or female (required)")
	c.Flags().IntVar(&maxAge, "max-age", 0, "only list periods starting at or before this age")
	c.Flags().IntVar(&age, "age", 0, "show the period containing this age")
	_ = c.MarkFlagRequired("gender")
	return c
}

func saeunCmd(a *app) *cobra.Command {
	var year, from, to, birthYear int

	c := &cobra.Command{
		Use:   "saeun",
		Short: "List annual luck pillars",
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			defer closeInto(a, &err)

			if year != 0 {
				from, to = year, year
			}
			if from == 0 {
				from = time.Now().In(saju.KST).Year()
			}
			if to == 0 {
				to = from + 9
			}
			list, err := saju.SaeunRange(from, to, birthYear)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, s := range list {
				if s.Age > 0 {
					fmt.Fprintf(out, "%d  %s %s  age %d\n", s.Year, s.Pillar.Hanja(), s.Pillar.Korean(), s.Age)
				} else {
					fmt.Fprintf(out, "%d  %s %s\n", s.Year, s.Pillar.Hanja(), s.Pillar.Korean())
				}
			}
			return nil
		},
	}
	c.Flags().IntVar(&year, "year", 0, "a single year")
	c.Flags().IntVar(&from, "from", 0, "first year (default: this year)")
	c.Flags().IntVar(&to, "to", 0, "last year (default: from+9)")
	c.Flags().IntVar(&birthYear, "birth-year", 0, "birth year, adds Korean count age")
	return c
}

func termsCmd(a *app) *cobra.Command {
	var year int
	var at string

	c := &cobra.Command{
		Use:   "terms",
		Short: "List the 24 solar terms of a year, or the term in effect at --at",
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			defer closeInto(a, &err)
			out := cmd.OutOrStdout()

			if at != "" {
				t, err := time.ParseInLocation("2006-01-02 15:04", at, saju.KST)
				if err != nil {
					if t, err = time.ParseInLocation("2006-01-02", at, saju.KST); err != nil {
						return fmt.Errorf("%w: --at %q", saju.ErrInvalidInput, at)
					}
				}
				if y := t.Year(); y < saju.MinYear || y > saju.MaxYear {
					return &saju.InputError{Field: "year", Value: y, Min: saju.MinYear, Max: saju.MaxYear}
				}
				pos := saju.CurrentSolarTerm(t)
				fmt.Fprintf(out, "current  %s (+%d days)\n", pos.Current, pos.DaysSinceStart)
				fmt.Fprintf(out, "next     %s (in %d days)\n", pos.Next, pos.DaysUntilNext)
				return nil
			}

			if year == 0 {
				year = time.Now().In(saju.KST).Year()
			}
			if year < saju.MinYear || year > saju.MaxYear {
				return &saju.InputError{Field: "year", Value: year, Min: saju.MinYear, Max: saju.MaxYear}
			}
			for _, t := range saju.SolarTermsForYear(year) {
				fmt.Fprintf(out, "%2d  %s\n", t.Index, t)
			}
			return nil
		},
	}
	c.Flags().IntVarP(&year, "year", "y", 0, "year (default: this year)")
	c.Flags().StringVar(&at, "at", "", "instant 'YYYY-MM-DD HH:MM' or date (KST)")
	return c
}

func seedCmd(a *app) *cobra.Command {
	var from, to int
	var reset bool

	c := &cobra.Command{
		Use:   "seed",
		Short: "Generate almanac rows for a year range into the SQLite store",
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			defer closeInto(a, &err)

			s, err := a.openStore()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if reset {
				if err := s.Reset(ctx); err != nil {
					return err
				}
			}

			start := time.Now()
			n, err := api.Seed(ctx, s, from, to)
			if err != nil {
				return err
			}
			a.logger.Debug("seed finished", zap.Int("rows", n), zap.Duration("elapsed", time.Since(start)))
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d rows for %d-%d\n", n, from, to)
			return nil
		},
	}
	c.Flags().IntVar(&from, "from", saju.MinYear, "first year")
	c.Flags().IntVar(&to, "to", saju.MaxYear, "last year")
	c.Flags().BoolVar(&reset, "reset", false, "delete existing rows first")
	return c
}

// =============================================================================
// OUTPUT
// =============================================================================

func printReading(out io.Writer, r saju.Reading) {
	fp := r.Pillars
	fmt.Fprintf(out, "moment     %s\n", r.Moment)
	if r.OffsetMinutes != 0 {
		fmt.Fprintf(out, "effective  %s (%+d min)\n", r.Effective, r.OffsetMinutes)
	}
	if r.NightZi {
		fmt.Fprintln(out, "night-zi   day pillar taken from the next day")
	}
	fmt.Fprintf(out, "         時   日   月   年\n")
	fmt.Fprintf(out, "hanja    %s %s %s %s\n", fp.Hour.Hanja(), fp.Day.Hanja(), fp.Month.Hanja(), fp.Year.Hanja())
	fmt.Fprintf(out, "korean   %s %s %s %s\n", fp.Hour.Korean(), fp.Day.Korean(), fp.Month.Korean(), fp.Year.Korean())
	fmt.Fprintf(out, "stems    %s\n", fp.StemsKorean())
	fmt.Fprintf(out, "branches %s\n", fp.BranchesKorean())
	if e := r.Almanac; e != nil && e.SolarTermKorean != "" {
		fmt.Fprintf(out, "term     %s %s\n", e.SolarTermKorean, e.SolarTermTime)
	}
}

func printAnalysis(out io.Writer, an saju.Analysis) {
	ts := an.TenStars
	fmt.Fprintf(out, "day master  %s (%s)\n", an.DayMaster.Hanja(), an.DayMaster.Element().Korean())
	fmt.Fprintf(out, "ten stars   stems %s %s %s / branches %s %s %s %s\n",
		ts.HourStem, ts.MonthStem, ts.YearStem, ts.HourBranch, ts.DayBranch, ts.MonthBranch, ts.YearBranch)
	ls := an.LifeStages
	fmt.Fprintf(out, "life stages %s %s %s %s\n", ls.Hour, ls.Day, ls.Month, ls.Year)
	ss := an.Sinsal.ByYear
	fmt.Fprintf(out, "sinsal      %s %s %s %s\n", ss.Hour, ss.Day, ss.Month, ss.Year)
	fmt.Fprintf(out, "elements   ")
	for e := saju.Wood; e <= saju.Water; e++ {
		fmt.Fprintf(out, " %s %d", e.Korean(), an.Elements.Of(e))
	}
	fmt.Fprintf(out, "\nstrength    %s\n", an.Strength)
}

func closeInto(a *app, err *error) {
	if cerr := a.close(); cerr != nil && *err == nil {
		*err = cerr
	}
}
