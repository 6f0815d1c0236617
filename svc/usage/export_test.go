package usage

var (
	DayKey        = dayKey
	UntilMidnight = untilMidnight
)
