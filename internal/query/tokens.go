package query

import (
	"time"

	ierr "github.com/lexcore/lexcore/internal/errors"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
)

// Relative-date tokens accepted on date fields
const (
	TokenOverdue  = "overdue"
	TokenToday    = "today"
	TokenWeek     = "week"
	TokenNextWeek = "next_week"
	TokenMonth    = "month"
)

// Assignment tokens accepted on array-valued fields
const (
	TokenAssigned   = "assigned"
	TokenUnassigned = "unassigned"
)

// RelativeDateCondition expands a relative-date token into a date range
// condition anchored at now (server-local time). "overdue" is an open range
// strictly before now; the calendar tokens are half-open [start, end)
// ranges. Weeks start on Monday.
func RelativeDateCondition(token string, now time.Time) (bson.M, error) {
	switch token {
	case TokenOverdue:
		return bson.M{"$lt": now}, nil
	case TokenToday:
		start := startOfDay(now)
		return bson.M{"$gte": start, "$lt": start.AddDate(0, 0, 1)}, nil
	case TokenWeek:
		start := startOfWeek(now)
		return bson.M{"$gte": start, "$lt": start.AddDate(0, 0, 7)}, nil
	case TokenNextWeek:
		start := startOfWeek(now).AddDate(0, 0, 7)
		return bson.M{"$gte": start, "$lt": start.AddDate(0, 0, 7)}, nil
	case TokenMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return bson.M{"$gte": start, "$lt": start.AddDate(0, 1, 0)}, nil
	default:
		return nil, ierr.NewError("unknown relative date token").
			WithHint("Use one of: overdue, today, week, next_week, month").
			WithReportableDetails(map[string]any{
				"token": token,
			}).
			Mark(ierr.ErrInvalidFilterValue)
	}
}

// AssignmentCondition expands an assignment token into an array-size test
func AssignmentCondition(token string) (bson.M, error) {
	switch token {
	case TokenUnassigned:
		return bson.M{"$size": 0}, nil
	case TokenAssigned:
		return bson.M{"$exists": true, "$ne": bson.A{}}, nil
	default:
		return nil, ierr.NewError("unknown assignment token").
			WithHint("Use one of: assigned, unassigned").
			WithReportableDetails(map[string]any{
				"token": token,
			}).
			Mark(ierr.ErrInvalidFilterValue)
	}
}

// DateTokenExpander returns a FieldExpander that applies relative-date token
// expansion to the named fields. Non-token values on those fields (and all
// other fields) fall through to the generic rules.
func DateTokenExpander(now time.Time, fields ...string) FieldExpander {
	return func(field string, value any) (any, bool, error) {
		if !lo.Contains(fields, field) {
			return nil, false, nil
		}
		token, ok := value.(string)
		if !ok {
			return nil, false, nil
		}
		cond, err := RelativeDateCondition(token, now)
		if err != nil {
			return nil, false, err
		}
		return cond, true, nil
	}
}

// AssignmentExpander returns a FieldExpander that applies assignment token
// expansion to the named array-valued fields
func AssignmentExpander(fields ...string) FieldExpander {
	return func(field string, value any) (any, bool, error) {
		if !lo.Contains(fields, field) {
			return nil, false, nil
		}
		token, ok := value.(string)
		if !ok || (token != TokenAssigned && token != TokenUnassigned) {
			return nil, false, nil
		}
		cond, err := AssignmentCondition(token)
		if err != nil {
			return nil, false, err
		}
		return cond, true, nil
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func startOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return day.AddDate(0, 0, 1-weekday)
}
