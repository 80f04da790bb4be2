package repository

import (
	"context"
	"fmt"

	"github.com/bigkaa/insania/biology-module/internal/domain/model"
)

// LogRepository — запись журнала вызовов API.
type LogRepository interface {
	// Create сохраняет запись и заполняет entry.ID.
	Create(ctx context.Context, entry *model.LogAPI) error
}

type logRepo struct {
	db DBTX
}

// NewLogRepository создаёт репозиторий журнала вызовов API.
func NewLogRepository(db DBTX) LogRepository {
	return &logRepo{db: db}
}

func (r *logRepo) Create(ctx context.Context, entry *model.LogAPI) error {
	query := `INSERT INTO insania_logs_api_biology.r_logs_api_biology
		(username_create, username_update, is_system, method, type, success,
		 date_start, date_end, data_in, data_out)
		VALUES ($1, $1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		entry.Username, entry.IsSystem, entry.Method, entry.Type, entry.Success,
		entry.DateStart, entry.DateEnd, jsonArg(entry.DataIn), jsonArg(entry.DataOut),
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("ошибка записи журнала вызова %s: %w", entry.Method, err)
	}
	return nil
}

// jsonArg передаёт пустой JSON как NULL.
func jsonArg(data []byte) any {
	if len(data) == 0 {
		return nil
	}
	return string(data)
}
