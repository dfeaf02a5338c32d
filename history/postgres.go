package history

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"voyager.com/ofc/logging"
)

var pgLogger = logging.GetZeroLogger("history::postgres", nil)

const schema = `
CREATE TABLE IF NOT EXISTS ofc_hand_results (
	id BIGSERIAL PRIMARY KEY,
	hand_id TEXT NOT NULL,
	table_id TEXT NOT NULL,
	game INT NOT NULL,
	spot INT NOT NULL,
	user_id TEXT NOT NULL,
	back_cards INT[] NOT NULL,
	middle_cards INT[] NOT NULL,
	front_cards INT[] NOT NULL,
	game_score INT NOT NULL,
	round_score INT NOT NULL,
	settled_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS ofc_hand_results_table_idx ON ofc_hand_results (table_id, settled_at);
`

const insertResult = `
INSERT INTO ofc_hand_results
	(hand_id, table_id, game, spot, user_id, back_cards, middle_cards, front_cards, game_score, round_score, settled_at)
VALUES
	(:hand_id, :table_id, :game, :spot, :user_id, :back_cards, :middle_cards, :front_cards, :game_score, :round_score, :settled_at)
`

const selectTableResults = `
SELECT hand_id, table_id, game, spot, user_id, back_cards, middle_cards, front_cards, game_score, round_score, settled_at
FROM ofc_hand_results
WHERE table_id = $1
ORDER BY settled_at ASC, id ASC
`

type resultRow struct {
	HandID     string        `db:"hand_id"`
	TableID    string        `db:"table_id"`
	Game       int           `db:"game"`
	Spot       int           `db:"spot"`
	User       string        `db:"user_id"`
	Back       pq.Int64Array `db:"back_cards"`
	Middle     pq.Int64Array `db:"middle_cards"`
	Front      pq.Int64Array `db:"front_cards"`
	GameScore  int           `db:"game_score"`
	RoundScore int           `db:"round_score"`
	SettledAt  time.Time     `db:"settled_at"`
}

// PostgresRecorder writes one row per seat into ofc_hand_results.
type PostgresRecorder struct {
	db *sqlx.DB
}

// NewPostgresRecorder connects to postgres and creates the results table
// when it is missing.
func NewPostgresRecorder(ctx context.Context, connStr string) (*PostgresRecorder, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", connStr)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to connect to postgres")
	}
	r := NewPostgresRecorderWithDB(db)
	if err := r.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func NewPostgresRecorderWithDB(db *sqlx.DB) *PostgresRecorder {
	return &PostgresRecorder{db: db}
}

func (r *PostgresRecorder) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return errors.Wrap(err, "Unable to create ofc_hand_results")
	}
	return nil
}

func (r *PostgresRecorder) RecordHand(ctx context.Context, record HandRecord) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "Unable to begin transaction")
	}
	for _, row := range recordRows(record) {
		if _, err := tx.NamedExecContext(ctx, insertResult, row); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "Unable to insert result for table %s game %d spot %d", record.TableID, record.Game, row.Spot)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "Unable to commit hand results")
	}
	pgLogger.Debug().
		Str(logging.TableIDKey, record.TableID).
		Int(logging.HandNumKey, record.Game).
		Msg("Recorded hand")
	return nil
}

func (r *PostgresRecorder) TableHands(ctx context.Context, tableID string) ([]HandRecord, error) {
	var rows []resultRow
	err := r.db.SelectContext(ctx, &rows, selectTableResults, tableID)
	if err != nil {
		return nil, errors.Wrapf(err, "Error from sqlx. Query: [%s]", selectTableResults)
	}
	return rowsToRecords(rows), nil
}

func (r *PostgresRecorder) Close() error {
	return r.db.Close()
}

func recordRows(record HandRecord) []resultRow {
	rows := make([]resultRow, len(record.Seats))
	for i, seat := range record.Seats {
		rows[i] = resultRow{
			HandID:     record.HandID,
			TableID:    record.TableID,
			Game:       record.Game,
			Spot:       seat.Spot,
			User:       seat.User,
			Back:       toInt64s(seat.Back),
			Middle:     toInt64s(seat.Middle),
			Front:      toInt64s(seat.Front),
			GameScore:  seat.GameScore,
			RoundScore: seat.RoundScore,
			SettledAt:  record.SettledAt,
		}
	}
	return rows
}

// rowsToRecords groups consecutive rows of the same hand.
func rowsToRecords(rows []resultRow) []HandRecord {
	var records []HandRecord
	for _, row := range rows {
		if len(records) == 0 || records[len(records)-1].HandID != row.HandID {
			records = append(records, HandRecord{
				HandID:    row.HandID,
				TableID:   row.TableID,
				Game:      row.Game,
				SettledAt: row.SettledAt,
			})
		}
		last := &records[len(records)-1]
		last.Seats = append(last.Seats, SeatResult{
			Spot:       row.Spot,
			User:       row.User,
			Back:       toInts(row.Back),
			Middle:     toInts(row.Middle),
			Front:      toInts(row.Front),
			GameScore:  row.GameScore,
			RoundScore: row.RoundScore,
		})
	}
	return records
}

func toInt64s(v []int) pq.Int64Array {
	out := make(pq.Int64Array, len(v))
	for i, c := range v {
		out[i] = int64(c)
	}
	return out
}

func toInts(v pq.Int64Array) []int {
	out := make([]int, len(v))
	for i, c := range v {
		out[i] = int(c)
	}
	return out
}
