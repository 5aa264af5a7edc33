package db

import (
	"context"
	"time"

	"github.com/sqlc-dev/pqtype"
)

// ActivityRecord is one row of the activity feed.
type ActivityRecord struct {
	ID        int64
	Action    string
	Detail    string
	CreatedAt time.Time
	Metadata  pqtype.NullRawMessage
}

func (q *Queries) countRow(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := q.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// CountActiveUsers counts user accounts that are enabled and have signed in
// within the last 30 days.
func (q *Queries) CountActiveUsers(ctx context.Context) (int64, error) {
	return q.countRow(ctx, `
		SELECT COUNT(*) FROM users
		WHERE is_active = TRUE
		  AND last_login >= NOW() - INTERVAL '30 days'`)
}

// CountStudents counts enrolled students.
func (q *Queries) CountStudents(ctx context.Context) (int64, error) {
	return q.countRow(ctx, `SELECT COUNT(*) FROM students WHERE status = 'enrolled'`)
}

// CountTeachers counts active teaching staff.
func (q *Queries) CountTeachers(ctx context.Context) (int64, error) {
	return q.countRow(ctx, `SELECT COUNT(*) FROM teachers WHERE status = 'active'`)
}

// CountBooks sums the total copies across all library titles.
func (q *Queries) CountBooks(ctx context.Context) (int64, error) {
	return q.countRow(ctx, `SELECT COALESCE(SUM(total_copies), 0) FROM books`)
}

// CountAvailableBooks sums the copies currently on the shelf.
func (q *Queries) CountAvailableBooks(ctx context.Context) (int64, error) {
	return q.countRow(ctx, `SELECT COALESCE(SUM(available_copies), 0) FROM books`)
}

// CountBorrowedBooks counts open borrow records.
func (q *Queries) CountBorrowedBooks(ctx context.Context) (int64, error) {
	return q.countRow(ctx, `SELECT COUNT(*) FROM borrow_records WHERE returned_at IS NULL`)
}

// CountBorrowedToday counts borrow records opened today.
func (q *Queries) CountBorrowedToday(ctx context.Context) (int64, error) {
	return q.countRow(ctx, `
		SELECT COUNT(*) FROM borrow_records
		WHERE borrowed_at::date = CURRENT_DATE`)
}

// CountDueSoon counts open borrows due within the next 3 days, overdue
// included.
func (q *Queries) CountDueSoon(ctx context.Context) (int64, error) {
	return q.countRow(ctx, `
		SELECT COUNT(*) FROM borrow_records
		WHERE returned_at IS NULL
		  AND due_date <= CURRENT_DATE + INTERVAL '3 days'`)
}

// CountUnassignedFurniture counts furniture items of the given kind
// ('chair', 'locker') not assigned to any student.
func (q *Queries) CountUnassignedFurniture(ctx context.Context, kind string) (int64, error) {
	return q.countRow(ctx, `
		SELECT COUNT(*) FROM furniture
		WHERE kind = $1 AND assigned_student_id IS NULL`, kind)
}

// RecentActivities returns the newest limit rows of the activity log.
func (q *Queries) RecentActivities(ctx context.Context, limit int) ([]ActivityRecord, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, action, COALESCE(detail, ''), created_at, metadata
		FROM activity_log
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ActivityRecord
	for rows.Next() {
		var rec ActivityRecord
		if err := rows.Scan(&rec.ID, &rec.Action, &rec.Detail, &rec.CreatedAt, &rec.Metadata); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
