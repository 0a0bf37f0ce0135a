package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/corpfest/secret-santa/models"
	"github.com/lib/pq"
)

var (
	ErrSantaParticipantNotFound = errors.New("santa participant not found")
	// Конфликт по UNIQUE(recipient_id): получателя уже кто-то выбрал.
	ErrSantaRecipientTaken = errors.New("recipient already taken by another giver")
	// Нарушение chk_status_recipient / повторное назначение.
	ErrSantaAlreadyAssigned   = errors.New("participant already has a recipient assigned")
	ErrSantaUserInvalid       = errors.New("santa participant user conflict or invalid")
	ErrSantaSelfGiftViolation = errors.New("participant cannot be their own recipient")
)

type ParticipantRepository interface {
	// Upsert создаёт участника или обновляет wishlist/reminder_note.
	// Статус, получатель и его метки времени не затрагиваются.
	Upsert(ctx context.Context, p *models.Participant) error
	FindByUserID(ctx context.Context, userID int) (*models.Participant, error)
	ListAll(ctx context.Context, includeUsers bool) ([]*models.Participant, error)
	UpdateReminder(ctx context.Context, userID int, note *string) error

	// Транзакционные методы: вызываются только внутри TxRunner.WithinTx.
	FindByUserIDForUpdate(ctx context.Context, exec SQLExecutor, userID int) (*models.Participant, error)
	// ListAvailableRecipientIDs блокирует и возвращает id участников,
	// которых ещё никто не выбрал получателем, исключая самого дарителя.
	ListAvailableRecipientIDs(ctx context.Context, exec SQLExecutor, excludeUserID int) ([]int, error)
	// ListAllForUpdate блокирует и возвращает все строки участников.
	// Массовая жеребьёвка берёт снимок всей таблицы, поэтому она взаимно
	// исключена с одиночными жеребьёвками на время транзакции.
	ListAllForUpdate(ctx context.Context, exec SQLExecutor) ([]*models.Participant, error)
	// AssignRecipient выполняет переход waiting -> matched одной командой.
	AssignRecipient(ctx context.Context, exec SQLExecutor, giverID, recipientID int, matchedAt time.Time) error
	MarkGifted(ctx context.Context, exec SQLExecutor, userID int, giftedAt time.Time) error
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

const participantColumns = `user_id, wishlist, reminder_note, status, recipient_id, matched_at, gifted_at, created_at, updated_at`

func (r *postgresParticipantRepository) Upsert(ctx context.Context, p *models.Participant) error {
	query := `
		INSERT INTO santa_participants (user_id, wishlist, reminder_note, status)
		VALUES ($1, $2, $3, 'waiting')
		ON CONFLICT (user_id) DO UPDATE
			SET wishlist = EXCLUDED.wishlist,
			    reminder_note = EXCLUDED.reminder_note,
			    updated_at = now()
		RETURNING ` + participantColumns

	row := r.db.QueryRowContext(ctx, query, p.UserID, p.Wishlist, p.ReminderNote)
	if err := r.scanParticipant(row, p); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" { // foreign_key_violation
			return ErrSantaUserInvalid
		}
		return fmt.Errorf("failed to upsert santa participant: %w", err)
	}
	return nil
}

func (r *postgresParticipantRepository) scanParticipant(rowScanner interface {
	Scan(dest ...interface{}) error
}, p *models.Participant) error {
	return rowScanner.Scan(
		&p.UserID,
		&p.Wishlist,
		&p.ReminderNote,
		&p.Status,
		&p.RecipientID,
		&p.MatchedAt,
		&p.GiftedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

func (r *postgresParticipantRepository) findOne(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (*models.Participant, error) {
	p := &models.Participant{}
	row := exec.QueryRowContext(ctx, query, args...)
	if err := r.scanParticipant(row, p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSantaParticipantNotFound
		}
		return nil, fmt.Errorf("failed to find santa participant: %w", err)
	}
	return p, nil
}

func (r *postgresParticipantRepository) FindByUserID(ctx context.Context, userID int) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM santa_participants WHERE user_id = $1`
	return r.findOne(ctx, r.db, query, userID)
}

func (r *postgresParticipantRepository) FindByUserIDForUpdate(ctx context.Context, exec SQLExecutor, userID int) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM santa_participants WHERE user_id = $1 FOR UPDATE`
	return r.findOne(ctx, exec, query, userID)
}

func (r *postgresParticipantRepository) ListAll(ctx context.Context, includeUsers bool) ([]*models.Participant, error) {
	query := `
		SELECT
			p.user_id, p.wishlist, p.reminder_note, p.status, p.recipient_id,
			p.matched_at, p.gifted_at, p.created_at, p.updated_at` +
		selectParticipantUserFieldsSQL(includeUsers) + `
		FROM santa_participants p`
	if includeUsers {
		query += joinParticipantUserSQL()
	}
	query += ` ORDER BY p.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list santa participants: %w", err)
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		var u models.User
		scanDest := []interface{}{
			&p.UserID, &p.Wishlist, &p.ReminderNote, &p.Status, &p.RecipientID,
			&p.MatchedAt, &p.GiftedAt, &p.CreatedAt, &p.UpdatedAt,
		}
		if includeUsers {
			scanDest = append(scanDest, &u.ID, &u.FirstName, &u.LastName, &u.Department, &u.Role)
		}
		if err := rows.Scan(scanDest...); err != nil {
			return nil, fmt.Errorf("failed to scan santa participant row: %w", err)
		}
		if includeUsers && u.ID > 0 {
			p.User = &u
		}
		participants = append(participants, &p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating santa participant rows: %w", err)
	}
	return participants, nil
}

func (r *postgresParticipantRepository) UpdateReminder(ctx context.Context, userID int, note *string) error {
	query := `UPDATE santa_participants SET reminder_note = $1, updated_at = now() WHERE user_id = $2`
	result, err := r.db.ExecContext(ctx, query, note, userID)
	if err != nil {
		return fmt.Errorf("failed to update reminder note: %w", err)
	}
	return checkAffectedRows(result, ErrSantaParticipantNotFound)
}

func (r *postgresParticipantRepository) ListAvailableRecipientIDs(ctx context.Context, exec SQLExecutor, excludeUserID int) ([]int, error) {
	// Кандидат — любой участник, которого ещё никто не выбрал получателем,
	// кроме самого дарителя. FOR UPDATE сериализует конкурирующие жеребьёвки,
	// рассматривающие одних и тех же кандидатов.
	query := `
		SELECT p.user_id
		FROM santa_participants p
		WHERE p.user_id <> $1
		  AND NOT EXISTS (
			SELECT 1 FROM santa_participants g WHERE g.recipient_id = p.user_id
		  )
		ORDER BY p.user_id
		FOR UPDATE`

	rows, err := exec.QueryContext(ctx, query, excludeUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list available recipients: %w", err)
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan available recipient id: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating available recipient rows: %w", err)
	}
	return ids, nil
}

func (r *postgresParticipantRepository) ListAllForUpdate(ctx context.Context, exec SQLExecutor) ([]*models.Participant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM santa_participants
		ORDER BY created_at ASC
		FOR UPDATE`

	rows, err := exec.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to lock santa participants: %w", err)
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		if err := r.scanParticipant(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan locked participant row: %w", err)
		}
		participants = append(participants, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating locked participant rows: %w", err)
	}
	return participants, nil
}

func (r *postgresParticipantRepository) AssignRecipient(ctx context.Context, exec SQLExecutor, giverID, recipientID int, matchedAt time.Time) error {
	// recipient_id IS NULL в WHERE повторно проверяет, что даритель всё ещё
	// в статусе waiting, даже если строка изменилась после чтения.
	query := `
		UPDATE santa_participants
		SET recipient_id = $2, status = 'matched', matched_at = $3, updated_at = now()
		WHERE user_id = $1 AND recipient_id IS NULL`

	result, err := exec.ExecContext(ctx, query, giverID, recipientID, matchedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "santa_participants_recipient_id_key" {
					return ErrSantaRecipientTaken
				}
			case "23514": // check_violation
				if pqErr.Constraint == "chk_no_self_gift" {
					return ErrSantaSelfGiftViolation
				}
			}
		}
		return fmt.Errorf("failed to assign recipient: %w", err)
	}
	return checkAffectedRows(result, ErrSantaAlreadyAssigned)
}

func (r *postgresParticipantRepository) MarkGifted(ctx context.Context, exec SQLExecutor, userID int, giftedAt time.Time) error {
	query := `
		UPDATE santa_participants
		SET status = 'gifted', gifted_at = $2, updated_at = now()
		WHERE user_id = $1 AND status = 'matched'`

	result, err := exec.ExecContext(ctx, query, userID, giftedAt)
	if err != nil {
		return fmt.Errorf("failed to mark participant gifted: %w", err)
	}
	return checkAffectedRows(result, ErrSantaParticipantNotFound)
}

func selectParticipantUserFieldsSQL(includeUsers bool) string {
	if !includeUsers {
		return ""
	}
	return `,
		COALESCE(u.id, 0) as user_db_id, COALESCE(u.first_name, '') as user_first_name,
		COALESCE(u.last_name, '') as user_last_name, COALESCE(u.department, '') as user_department,
		COALESCE(u.role, 'employee') as user_role`
}

func joinParticipantUserSQL() string {
	return `
		LEFT JOIN users u ON p.user_id = u.id`
}
