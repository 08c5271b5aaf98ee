package storage

import (
	"context"
	"strconv"
	"strings"

	"github.com/goold/roomsched/libs/domain"
)

type LogFilter struct {
	UserID int64
	Module domain.LogModule
	Page   int
	Limit  int
}

func itoa(n int) string { return strconv.Itoa(n) }

func (r *Repository) RecordLog(ctx context.Context, userID int64, module domain.LogModule, activity string) (domain.Log, error) {
	var l domain.Log
	err := r.pool.QueryRow(ctx, `
		INSERT INTO activity_logs (user_id, module, activity_type, activity_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, module, activity_type, activity_date, created_at, updated_at
	`, userID, module, activity, r.now().UTC()).Scan(
		&l.ID, &l.UserID, &l.Module, &l.ActivityType, &l.ActivityDate, &l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

func (r *Repository) ListLogs(ctx context.Context, f LogFilter) ([]domain.Log, int, error) {
	where := []string{"TRUE"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + itoa(len(args))
	}
	if f.UserID != 0 {
		where = append(where, "l.user_id = "+arg(f.UserID))
	}
	if f.Module != "" {
		where = append(where, "l.module = "+arg(f.Module))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM activity_logs l WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT l.id, l.user_id, l.module, l.activity_type, l.activity_date, l.created_at, l.updated_at,
			u.id, u.first_name, u.last_name, u.email, u.account_type
		FROM activity_logs l
		JOIN users u ON u.id = l.user_id
		WHERE ` + cond + `
		ORDER BY l.activity_date DESC, l.id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ` + arg(f.Limit) + ` OFFSET ` + arg(offset(f.Page, f.Limit))
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	logs := []domain.Log{}
	for rows.Next() {
		var l domain.Log
		var u domain.ScheduleUser
		if err := rows.Scan(
			&l.ID, &l.UserID, &l.Module, &l.ActivityType, &l.ActivityDate, &l.CreatedAt, &l.UpdatedAt,
			&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.AccountType,
		); err != nil {
			return nil, 0, err
		}
		l.User = &u
		logs = append(logs, l)
	}
	return logs, total, rows.Err()
}
