package school

import (
	"testing"
	"time"

	"github.com/onnwee/school-dashboard/internal/dashboard"
	"github.com/onnwee/school-dashboard/internal/db"
)

func TestRegisterAllCeilings(t *testing.T) {
	m := dashboard.NewManager(dashboard.Options{SweepInterval: -1})
	defer m.Shutdown()
	// Providers are registered as method values and never invoked here, so
	// no database is needed.
	NewService(nil).RegisterAll(m)

	tests := []struct {
		key     string
		ceiling int64
	}{
		{KeyActiveUsers, activeUserCeiling},
		{KeyTotalStudents, recordCeiling},
		{KeyTotalBooks, recordCeiling},
		{KeyTotalTeachers, 0},
		{KeyBorrowedToday, 0},
	}
	for _, tt := range tests {
		rule, ok := m.RuleFor(tt.key)
		if !ok {
			t.Errorf("%s: no rule registered", tt.key)
			continue
		}
		if rule.Kind != dashboard.RuleCounter {
			t.Errorf("%s: rule kind = %v, want counter", tt.key, rule.Kind)
		}
		if rule.SoftCeiling != tt.ceiling {
			t.Errorf("%s: soft ceiling = %d, want %d", tt.key, rule.SoftCeiling, tt.ceiling)
		}
	}

	if rule, ok := m.RuleFor(KeyRecentActivity); !ok || rule.Kind != dashboard.RuleActivityList || rule.MaxRecords != activityFeedSize {
		t.Errorf("%s: rule = %+v, %v", KeyRecentActivity, rule, ok)
	}
}

func TestToActivityListPadsToFullFeed(t *testing.T) {
	now := time.Now()
	records := []db.ActivityRecord{
		{Action: "Book borrowed", Detail: "The Go Programming Language", CreatedAt: now},
		{Action: "Student enrolled", CreatedAt: now.Add(-time.Hour)},
	}

	list := toActivityList(records, now)
	if len(list) != activityFeedSize {
		t.Fatalf("feed length = %d, want %d", len(list), activityFeedSize)
	}
	if list[0].Text != "Book borrowed: The Go Programming Language" {
		t.Errorf("text = %q", list[0].Text)
	}
	if list[0].Icon != "book" {
		t.Errorf("icon = %q", list[0].Icon)
	}
	if list[1].Text != "Student enrolled" {
		t.Errorf("detail-less row text = %q", list[1].Text)
	}
	for _, pad := range list[2:] {
		if pad.Text != "No recent activity" || pad.Icon != "info" {
			t.Errorf("padding row = %+v", pad)
		}
		if pad.When.IsZero() {
			t.Error("padding row has zero timestamp")
		}
	}
}

func TestToActivityListTruncatesOverfullFeed(t *testing.T) {
	now := time.Now()
	records := make([]db.ActivityRecord, 9)
	for i := range records {
		records[i] = db.ActivityRecord{Action: "Book returned", CreatedAt: now}
	}

	list := toActivityList(records, now)
	if len(list) != activityFeedSize {
		t.Errorf("feed length = %d, want %d", len(list), activityFeedSize)
	}
}

func TestIconFor(t *testing.T) {
	cases := map[string]string{
		"Book borrowed":    "book",
		"Book returned":    "book-check",
		"Student enrolled": "user",
		"Teacher added":    "briefcase",
		"Locker assigned":  "archive",
		"User login":       "log-in",
		"Settings changed": "activity",
	}
	for action, want := range cases {
		if got := iconFor(action); got != want {
			t.Errorf("iconFor(%q) = %q, want %q", action, got, want)
		}
	}
}
