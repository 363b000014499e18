package ledger

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

var log = logrus.WithField("component", "ledger")

// Ledger journals every scheduled fund transfer to SQLite. Delivery of
// native currency is the host platform's concern; the journal is the
// marketplace's durable record of what it released and to whom.
type Ledger struct {
	db *sql.DB
}

func Open(dbPath string) (*Ledger, error) {
	if dbPath == "" {
		return nil, errors.New("ledger: db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, errors.Wrap(err, "ledger: mkdir db dir")
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "ledger: open sqlite")
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	l := &Ledger{db: db}
	if err := l.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

func (l *Ledger) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS transfers (
	id         TEXT PRIMARY KEY,
	recipient  TEXT NOT NULL,
	amount     TEXT NOT NULL,
	memo       TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transfers_recipient ON transfers(recipient);`
	if _, err := l.db.Exec(schema); err != nil {
		return errors.Wrap(err, "ledger: migrate")
	}
	return nil
}

func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Transfer journals one outbound fund movement.
func (l *Ledger) Transfer(ctx context.Context, recipient string, amount decimal.Decimal, memo string) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO transfers (id, recipient, amount, memo, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), recipient, amount.String(), memo, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return errors.Wrap(err, "ledger: insert transfer")
	}
	log.WithFields(map[string]interface{}{
		"recipient": recipient,
		"amount":    amount.String(),
		"memo":      memo,
	}).Info("fund transfer journaled")
	return nil
}

// TotalFor sums every transfer journaled for recipient.
func (l *Ledger) TotalFor(ctx context.Context, recipient string) (decimal.Decimal, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT amount FROM transfers WHERE recipient = ?`, recipient)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "ledger: query transfers")
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, errors.Wrap(err, "ledger: scan amount")
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, errors.Wrap(err, "ledger: decode amount")
		}
		total = total.Add(amount)
	}
	return total, rows.Err()
}
