package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/lib/pq"
)

const (
	txMaxAttempts   = 3
	txBaseBackoff   = 25 * time.Millisecond
	txBackoffJitter = 25 * time.Millisecond
)

// TxRunner исполняет функцию внутри транзакции уровня SERIALIZABLE.
// Конфликты сериализации (40001), deadlock (40P01) и гонка за получателя
// (ErrSantaRecipientTaken) считаются временными и повторяются с backoff:
// повторная попытка перечитывает пул и выбирает другого кандидата.
// Доменные ошибки сервисного слоя не повторяются.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(exec SQLExecutor) error) error
}

type sqlTxRunner struct {
	db *sql.DB
}

func NewSQLTxRunner(db *sql.DB) TxRunner {
	return &sqlTxRunner{db: db}
}

func (r *sqlTxRunner) WithinTx(ctx context.Context, fn func(exec SQLExecutor) error) error {
	var lastErr error
	for attempt := 1; attempt <= txMaxAttempts; attempt++ {
		lastErr = r.runOnce(ctx, fn)
		if lastErr == nil || !isRetryableTxError(lastErr) {
			return lastErr
		}
		if attempt < txMaxAttempts {
			backoff := time.Duration(attempt)*txBaseBackoff + time.Duration(rand.Int63n(int64(txBackoffJitter)))
			log.Printf("Transaction conflict (attempt %d/%d), retrying in %v: %v", attempt, txMaxAttempts, backoff, lastErr)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("transaction failed after %d attempts: %w", txMaxAttempts, lastErr)
}

func (r *sqlTxRunner) runOnce(ctx context.Context, fn func(exec SQLExecutor) error) (txErr error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				log.Printf("Error during rollback: %v. Original error: %v", rbErr, txErr)
			}
		} else {
			if cErr := tx.Commit(); cErr != nil {
				txErr = fmt.Errorf("failed to commit transaction: %w", cErr)
			}
		}
	}()

	txErr = fn(tx)
	return txErr
}

func isRetryableTxError(err error) bool {
	// Проигрыш гонки за получателя: пул был прочитан до чужого commit,
	// свежая попытка увидит актуальный пул.
	if errors.Is(err, ErrSantaRecipientTaken) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return true
		}
	}
	return false
}
