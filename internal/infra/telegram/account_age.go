package telegram

import (
	"sort"
	"time"
)

// Telegram does not expose account creation time, so the transport
// estimates it from the user ID. IDs are allocated roughly
// monotonically; the anchors below map known ID ranges to registration
// periods and creation time is interpolated between them. Coarse, but
// good enough for day-granularity age thresholds.
type idAnchor struct {
	id        int64
	createdAt time.Time
}

var idAnchors = []idAnchor{
	{1000000, date(2013, 8)},
	{2768409, date(2013, 11)},
	{7679610, date(2014, 2)},
	{24088957, date(2014, 9)},
	{58300000, date(2015, 6)},
	{100000000, date(2016, 3)},
	{150000000, date(2016, 10)},
	{200000000, date(2017, 4)},
	{300000000, date(2017, 11)},
	{400000000, date(2018, 6)},
	{500000000, date(2018, 12)},
	{600000000, date(2019, 6)},
	{700000000, date(2019, 11)},
	{800000000, date(2020, 3)},
	{900000000, date(2020, 8)},
	{1000000000, date(2020, 11)},
	{1200000000, date(2021, 2)},
	{1400000000, date(2021, 6)},
	{1700000000, date(2021, 10)},
	{2000000000, date(2022, 3)},
	{3000000000, date(2022, 10)},
	{4000000000, date(2023, 3)},
	{5000000000, date(2023, 9)},
	{6000000000, date(2024, 2)},
	{7000000000, date(2024, 7)},
}

func date(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// EstimateCreationTime maps a user ID to an approximate registration
// time. IDs below the first anchor clamp to the first date; IDs above
// the last anchor extrapolate along the slope of the last segment,
// capped at the current time, so accounts newer than the table are not
// all pinned to the last anchor date.
func EstimateCreationTime(userID int64) time.Time {
	if userID <= idAnchors[0].id {
		return idAnchors[0].createdAt
	}
	last := idAnchors[len(idAnchors)-1]
	if userID >= last.id {
		prev := idAnchors[len(idAnchors)-2]
		span := last.createdAt.Sub(prev.createdAt)
		fraction := float64(userID-last.id) / float64(last.id-prev.id)
		estimated := last.createdAt.Add(time.Duration(fraction * float64(span)))
		if now := time.Now().UTC(); estimated.After(now) {
			return now
		}
		return estimated
	}

	idx := sort.Search(len(idAnchors), func(i int) bool {
		return idAnchors[i].id >= userID
	})
	lo, hi := idAnchors[idx-1], idAnchors[idx]

	span := hi.createdAt.Sub(lo.createdAt)
	fraction := float64(userID-lo.id) / float64(hi.id-lo.id)
	return lo.createdAt.Add(time.Duration(fraction * float64(span)))
}
