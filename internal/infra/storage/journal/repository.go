package journal

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/pkg/psqlbuilder"
)

const tableName = "rental_events"

const schema = `CREATE TABLE IF NOT EXISTS rental_events (
	id          BIGSERIAL PRIMARY KEY,
	car_address TEXT        NOT NULL,
	car_port    INTEGER     NOT NULL,
	user_id     INTEGER     NOT NULL,
	event       TEXT        NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS rental_events_car_idx ON rental_events (car_address, car_port, id DESC);`

// Repository журнал событий аренды в PostgreSQL.
// Только аудит: реестр машин из журнала не восстанавливается.
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория журнала
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// EnsureSchema создает таблицу журнала, если её нет
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: EnsureSchema: %v", ErrExecQuery, err)
	}
	return nil
}

// Append записывает событие и возвращает его с присвоенными id и created_at
func (r *Repository) Append(ctx context.Context, event domain.RentalEvent) (*domain.RentalEvent, error) {
	query, args, err := buildInsertQuery(event).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Append - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt sql.NullTime
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&event.ID, &createdAt); err != nil {
		return nil, fmt.Errorf("%w: Append - execute insert: %v", ErrExecQuery, err)
	}
	event.CreatedAt = createdAt.Time

	return &event, nil
}

// ListByCar возвращает последние события машины, новые первыми
func (r *Repository) ListByCar(ctx context.Context, car domain.CarIdentity, limit uint64) ([]domain.RentalEvent, error) {
	query, args, err := buildListByCarQuery(car, limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByCar - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByCar - execute select: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	events := make([]domain.RentalEvent, 0)
	for rows.Next() {
		var (
			event   domain.RentalEvent
			port    int
			userID  int
			evtType string
		)
		if err := rows.Scan(&event.ID, &event.Car.Address, &port, &userID, &evtType, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: ListByCar: %v", ErrScanRow, err)
		}
		event.Car.Port = uint16(port)
		event.UserID = uint16(userID)
		event.Type = domain.RentalEventType(evtType)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListByCar - iterate rows: %v", ErrScanRow, err)
	}

	return events, nil
}

func buildInsertQuery(event domain.RentalEvent) squirrel.InsertBuilder {
	return psqlbuilder.Insert(tableName).
		Columns("car_address", "car_port", "user_id", "event").
		Values(event.Car.Address, int(event.Car.Port), int(event.UserID), string(event.Type)).
		Suffix("RETURNING id, created_at")
}

func buildListByCarQuery(car domain.CarIdentity, limit uint64) squirrel.SelectBuilder {
	q := psqlbuilder.Select("id", "car_address", "car_port", "user_id", "event", "created_at").
		From(tableName).
		Where(squirrel.Eq{"car_address": car.Address, "car_port": int(car.Port)}).
		OrderBy("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return q
}
