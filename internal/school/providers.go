package school

import (
	"context"
	"strings"
	"time"

	"github.com/onnwee/school-dashboard/internal/circuitbreaker"
	"github.com/onnwee/school-dashboard/internal/dashboard"
	"github.com/onnwee/school-dashboard/internal/db"
)

// The dashboard data keys. TTLs are tuned per key: fast-moving counters like
// today's borrows refresh often, slow-moving ones like staff counts do not.
const (
	KeyActiveUsers     = "active_users_count"
	KeyTotalStudents   = "total_students_count"
	KeyTotalTeachers   = "total_teachers_count"
	KeyTotalBooks      = "total_books_count"
	KeyAvailableBooks  = "available_books_count"
	KeyBorrowedToday   = "books_borrowed_today"
	KeyBorrowedBooks   = "total_borrowed_books_count"
	KeyDueSoon         = "due_soon_count"
	KeyRecentActivity  = "recent_activities"
	KeyAvailableChairs = "available_chairs_count"
	KeyAvailableLocker = "available_lockers_count"
)

// activityFeedSize is the fixed number of rows the dashboard renders.
const activityFeedSize = 5

// Sanity ceilings: counts above these are logged as suspicious but served.
// Active users are bounded by the school's population; student and book
// records can legitimately run much higher.
const (
	activeUserCeiling = 10000
	recordCeiling     = 50000
)

// Service registers the school data providers against a dashboard manager.
// All providers share one circuit breaker so a dead database trips fast
// instead of timing out eleven times per refresh cycle.
type Service struct {
	queries *db.Queries
	breaker *circuitbreaker.Breaker
}

// NewService creates a provider service backed by the school database.
func NewService(queries *db.Queries) *Service {
	return &Service{
		queries: queries,
		breaker: circuitbreaker.New(circuitbreaker.Config{
			Name:             "school-db",
			FailureThreshold: 5,
			Timeout:          30 * time.Second,
		}),
	}
}

// counter adapts a count query into a dashboard provider, routed through the
// shared breaker.
func (s *Service) counter(fn func(ctx context.Context) (int64, error)) dashboard.ProviderFunc {
	return func(ctx context.Context) (dashboard.Value, error) {
		var n int64
		err := s.breaker.Call(func() error {
			var err error
			n, err = fn(ctx)
			return err
		})
		if err != nil {
			return nil, err
		}
		return dashboard.CounterValue(n), nil
	}
}

// RegisterAll registers every dashboard data key with its provider, TTL, and
// validation rule.
func (s *Service) RegisterAll(m *dashboard.Manager) {
	q := s.queries

	m.Register(KeyActiveUsers, s.counter(q.CountActiveUsers), 300*time.Second, "users active in the last 30 days")
	m.Register(KeyTotalStudents, s.counter(q.CountStudents), 600*time.Second, "enrolled students")
	m.Register(KeyTotalTeachers, s.counter(q.CountTeachers), 600*time.Second, "active teaching staff")
	m.Register(KeyTotalBooks, s.counter(q.CountBooks), 300*time.Second, "total library copies")
	m.Register(KeyAvailableBooks, s.counter(q.CountAvailableBooks), 180*time.Second, "copies on the shelf")
	m.Register(KeyBorrowedToday, s.counter(q.CountBorrowedToday), 60*time.Second, "borrows opened today")
	m.Register(KeyBorrowedBooks, s.counter(q.CountBorrowedBooks), 180*time.Second, "open borrow records")
	m.Register(KeyDueSoon, s.counter(q.CountDueSoon), 300*time.Second, "borrows due within 3 days")
	m.Register(KeyRecentActivity, s.recentActivities, 120*time.Second, "latest activity feed")
	m.Register(KeyAvailableChairs, s.furnitureCounter("chair"), 600*time.Second, "unassigned chairs")
	m.Register(KeyAvailableLocker, s.furnitureCounter("locker"), 600*time.Second, "unassigned lockers")

	for _, key := range []string{
		KeyTotalTeachers, KeyBorrowedToday,
		KeyDueSoon, KeyAvailableChairs, KeyAvailableLocker,
	} {
		m.SetRule(key, dashboard.Rule{Kind: dashboard.RuleCounter})
	}
	m.SetRule(KeyActiveUsers, dashboard.Rule{Kind: dashboard.RuleCounter, SoftCeiling: activeUserCeiling})
	m.SetRule(KeyTotalStudents, dashboard.Rule{Kind: dashboard.RuleCounter, SoftCeiling: recordCeiling})
	m.SetRule(KeyTotalBooks, dashboard.Rule{Kind: dashboard.RuleCounter, SoftCeiling: recordCeiling})
	m.SetRule(KeyAvailableBooks, dashboard.Rule{
		Kind: dashboard.RuleCounter,
		// Available may briefly exceed total while copies are being
		// re-counted, hence the tolerance band.
		CrossChecks: []dashboard.CrossCheck{{OtherKey: KeyTotalBooks, Tolerance: 1.1}},
	})
	m.SetRule(KeyBorrowedBooks, dashboard.Rule{
		Kind:        dashboard.RuleCounter,
		CrossChecks: []dashboard.CrossCheck{{OtherKey: KeyTotalBooks, Tolerance: 1.0}},
	})
	m.SetRule(KeyRecentActivity, dashboard.Rule{Kind: dashboard.RuleActivityList, MaxRecords: activityFeedSize})
}

func (s *Service) furnitureCounter(kind string) dashboard.ProviderFunc {
	return s.counter(func(ctx context.Context) (int64, error) {
		return s.queries.CountUnassignedFurniture(ctx, kind)
	})
}

func (s *Service) recentActivities(ctx context.Context) (dashboard.Value, error) {
	var records []db.ActivityRecord
	err := s.breaker.Call(func() error {
		var err error
		records, err = s.queries.RecentActivities(ctx, activityFeedSize)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toActivityList(records, time.Now()), nil
}

// toActivityList converts log rows into the feed value, padding short feeds
// so the dashboard always renders a full list.
func toActivityList(records []db.ActivityRecord, now time.Time) dashboard.ActivityListValue {
	list := make(dashboard.ActivityListValue, 0, activityFeedSize)
	for _, rec := range records {
		if len(list) == activityFeedSize {
			break
		}
		text := rec.Action
		if rec.Detail != "" {
			text = rec.Action + ": " + rec.Detail
		}
		list = append(list, dashboard.Activity{
			Text: text,
			When: rec.CreatedAt,
			Icon: iconFor(rec.Action),
		})
	}
	for len(list) < activityFeedSize {
		list = append(list, dashboard.Activity{
			Text: "No recent activity",
			When: now,
			Icon: "info",
		})
	}
	return list
}

// iconFor maps an activity action to the icon name the frontend renders.
func iconFor(action string) string {
	a := strings.ToLower(action)
	switch {
	case strings.Contains(a, "borrow"):
		return "book"
	case strings.Contains(a, "return"):
		return "book-check"
	case strings.Contains(a, "student"):
		return "user"
	case strings.Contains(a, "teacher") || strings.Contains(a, "staff"):
		return "briefcase"
	case strings.Contains(a, "chair") || strings.Contains(a, "locker") || strings.Contains(a, "furniture"):
		return "archive"
	case strings.Contains(a, "login") || strings.Contains(a, "user"):
		return "log-in"
	default:
		return "activity"
	}
}
