package dates

// Period is a named date range. Since is inclusive, Until exclusive: the
// last day covered by the period is Until minus one day.
type Period struct {
	Since Day
	Until Day
	Label string
}

// ResolvePeriod maps command-line period tokens to a concrete date range
// relative to the supplied current day. Recognized tokens, in priority
// order: today, year, quarter, month; anything else means week. The "last"
// token selects the previous instance of the chosen unit, except for
// "today" which always yields a single-day window.
func ResolvePeriod(tokens []string, today Day) Period {
	has := func(token string) bool {
		for _, t := range tokens {
			if t == token {
				return true
			}
		}
		return false
	}
	last := has("last")

	switch {
	case has("today"):
		return Period{today, today.Add(1), "today"}
	case has("year"):
		if last {
			since, until := LastYear(today)
			return Period{since, until, "the last fiscal year"}
		}
		since, until := ThisYear(today)
		return Period{since, until, "this fiscal year"}
	case has("quarter"):
		if last {
			since, until := LastQuarter(today)
			return Period{since, until, "the last quarter"}
		}
		since, until := ThisQuarter(today)
		return Period{since, until, "this quarter"}
	case has("month"):
		if last {
			since, until := LastMonth(today)
			return Period{since, until, "the last month"}
		}
		since, until := ThisMonth(today)
		return Period{since, until, "this month"}
	default:
		if last {
			since, until := LastWeek(today)
			return Period{since, until, "the last week"}
		}
		since, until := ThisWeek(today)
		return Period{since, until, "this week"}
	}
}
