package analytics

import (
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/chainsub/chainsub-go/events"
)

// Bucket selects the calendar grouping for a time series. Buckets are
// computed from block timestamps in UTC; weeks follow ISO-8601 (Monday
// start, first week contains the year's first Thursday).
type Bucket string

const (
	BucketDay     Bucket = "day"
	BucketISOWeek Bucket = "isoweek"
	BucketMonth   Bucket = "month"
)

// Stamped pairs a typed event with its block timestamp.
type Stamped struct {
	Event events.Typed
	At    time.Time
}

// TrendPoint is one bucket of a revenue series.
type TrendPoint struct {
	Bucket   string
	Revenue  *big.Int
	Volume   *big.Int
	Payments int
}

// GrowthPoint is one bucket of a subscriber growth series.
type GrowthPoint struct {
	Bucket     string
	New        int
	Cumulative int
}

// BucketLabel formats a timestamp into its bucket key. Labels are chosen so
// lexicographic order equals chronological order within one bucket kind.
func BucketLabel(t time.Time, bucket Bucket) (string, error) {
	t = t.UTC()
	switch bucket {
	case BucketDay:
		return t.Format("2006-01-02"), nil
	case BucketISOWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week), nil
	case BucketMonth:
		return t.Format("2006-01"), nil
	default:
		return "", fmt.Errorf("unknown bucket %q", bucket)
	}
}

// BucketRevenue groups payment events into a revenue time series. Revenue
// is net of platform fee per payment; Volume is gross.
func BucketRevenue(payments []Stamped, bucket Bucket) ([]TrendPoint, error) {
	points := make(map[string]*TrendPoint)

	for _, s := range payments {
		payment, ok := s.Event.Payload.(events.PaymentReceived)
		if !ok {
			return nil, fmt.Errorf("payment slice contains %T", s.Event.Payload)
		}
		label, err := BucketLabel(s.At, bucket)
		if err != nil {
			return nil, err
		}
		point, ok := points[label]
		if !ok {
			point = &TrendPoint{Bucket: label, Revenue: new(big.Int), Volume: new(big.Int)}
			points[label] = point
		}
		point.Revenue.Add(point.Revenue, new(big.Int).Sub(payment.Amount, payment.Fee))
		point.Volume.Add(point.Volume, payment.Amount)
		point.Payments++
	}

	return sortedTrend(points), nil
}

// BucketGrowth groups mint events into a subscriber growth series. New
// counts first-time subscribers per bucket; Cumulative is the running
// distinct-subscriber total across the input range.
func BucketGrowth(mints []Stamped, bucket Bucket) ([]GrowthPoint, error) {
	ordered := append([]Stamped{}, mints...)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Event.BlockNumber != ordered[j].Event.BlockNumber {
			return ordered[i].Event.BlockNumber < ordered[j].Event.BlockNumber
		}
		return ordered[i].Event.LogIndex < ordered[j].Event.LogIndex
	})

	seen := make(map[common.Address]struct{})
	labels := make([]string, 0)
	newPerBucket := make(map[string]int)

	for _, s := range ordered {
		mint, ok := s.Event.Payload.(events.SubscriptionMinted)
		if !ok {
			return nil, fmt.Errorf("mint slice contains %T", s.Event.Payload)
		}
		label, err := BucketLabel(s.At, bucket)
		if err != nil {
			return nil, err
		}
		if _, exists := newPerBucket[label]; !exists {
			labels = append(labels, label)
			newPerBucket[label] = 0
		}
		if _, dup := seen[mint.Subscriber]; dup {
			continue
		}
		seen[mint.Subscriber] = struct{}{}
		newPerBucket[label]++
	}

	sort.Strings(labels)
	series := make([]GrowthPoint, 0, len(labels))
	cumulative := 0
	for _, label := range labels {
		cumulative += newPerBucket[label]
		series = append(series, GrowthPoint{Bucket: label, New: newPerBucket[label], Cumulative: cumulative})
	}
	return series, nil
}

func sortedTrend(points map[string]*TrendPoint) []TrendPoint {
	series := make([]TrendPoint, 0, len(points))
	for _, point := range points {
		series = append(series, *point)
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Bucket < series[j].Bucket })
	return series
}
