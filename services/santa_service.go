package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/corpfest/secret-santa/models"
	"github.com/corpfest/secret-santa/repositories"
	"github.com/corpfest/secret-santa/santa"
	"golang.org/x/sync/errgroup"
)

// PublicEntry — строка публичного списка. Получатель здесь не раскрывается
// никому: кто кому дарит, видят только сам даритель и администраторы.
type PublicEntry struct {
	UserID     int               `json:"user_id"`
	Name       string            `json:"name"`
	Department string            `json:"department"`
	Wishlist   string            `json:"wishlist"`
	Status     models.GiftStatus `json:"status"`
}

// RecipientView — данные получателя, доступные его дарителю.
type RecipientView struct {
	UserID     int    `json:"user_id"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Wishlist   string `json:"wishlist"`
}

// SelfView — собственная запись запрашивающего участника.
type SelfView struct {
	UserID       int               `json:"user_id"`
	Wishlist     string            `json:"wishlist"`
	ReminderNote *string           `json:"reminder_note,omitempty"`
	Status       models.GiftStatus `json:"status"`
	MatchedAt    *time.Time        `json:"matched_at,omitempty"`
	GiftedAt     *time.Time        `json:"gifted_at,omitempty"`
	Recipient    *RecipientView    `json:"recipient,omitempty"`
}

// ExchangeState возвращается каждой операцией целиком, чтобы вызывающей
// стороне не требовался повторный запрос состояния.
type ExchangeState struct {
	Participants []PublicEntry `json:"participants"`
	Self         *SelfView     `json:"self,omitempty"`
}

type ExchangeStats struct {
	Total   int `json:"total"`
	Waiting int `json:"waiting"`
	Matched int `json:"matched"`
	Gifted  int `json:"gifted"`
}

// AdminEntry — строка административного представления: полная запись
// участника плюс разрешённые данные его получателя.
type AdminEntry struct {
	Participant *models.Participant `json:"participant"`
	Recipient   *RecipientView      `json:"recipient,omitempty"`
}

type AdminState struct {
	Participants []AdminEntry  `json:"participants"`
	Stats        ExchangeStats `json:"stats"`
}

// ExchangeService инкапсулирует бизнес-логику обмена подарками:
// регистрацию, обе жеребьёвки, подтверждение вручения и представления.
type ExchangeService struct {
	txRunner        repositories.TxRunner
	participantRepo repositories.ParticipantRepository
	userRepo        repositories.UserRepository
	hub             *santa.Hub
	logger          *slog.Logger
	intn            santa.IntN
	now             func() time.Time
}

func NewExchangeService(
	txRunner repositories.TxRunner,
	participantRepo repositories.ParticipantRepository,
	userRepo repositories.UserRepository,
	hub *santa.Hub,
	logger *slog.Logger,
) *ExchangeService {
	return &ExchangeService{
		txRunner:        txRunner,
		participantRepo: participantRepo,
		userRepo:        userRepo,
		hub:             hub,
		logger:          logger,
		intn:            santa.DefaultIntN,
		now:             time.Now,
	}
}

// Register создаёт участника или обновляет его wishlist/напоминание.
// Повторная регистрация не трогает статус и получателя.
func (s *ExchangeService) Register(ctx context.Context, userID int, wishlist string, reminderNote *string) (*ExchangeState, error) {
	if strings.TrimSpace(wishlist) == "" {
		return nil, ErrWishlistRequired
	}

	p := &models.Participant{
		UserID:       userID,
		Wishlist:     wishlist,
		ReminderNote: reminderNote,
	}
	if err := s.participantRepo.Upsert(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to register santa participant: %w", err)
	}

	s.logger.Info("santa participant registered", slog.Int("user_id", userID))
	s.broadcastStats(ctx, santa.EventParticipantRegistered)
	return s.GetState(ctx, userID)
}

// UpdateReminder обновляет заметку-напоминание участника. Заметка не
// связана с машиной состояний и доступна в любом статусе.
func (s *ExchangeService) UpdateReminder(ctx context.Context, userID int, note *string) (*ExchangeState, error) {
	if err := s.participantRepo.UpdateReminder(ctx, userID, note); err != nil {
		if errors.Is(err, repositories.ErrSantaParticipantNotFound) {
			return nil, ErrNotRegistered
		}
		return nil, fmt.Errorf("failed to update reminder note: %w", err)
	}
	return s.GetState(ctx, userID)
}

// Draw проводит одиночную жеребьёвку для участника: под блокировкой строк
// выбирает равномерно случайного кандидата из пула ещё не разобранных
// получателей и атомарно фиксирует назначение.
//
// Известное структурное ограничение поштучной жеребьёвки: последний
// тянущий может обнаружить, что единственный свободный получатель — он
// сам, и получить ErrNoCandidates, хотя полная жеребьёвка всей группы
// была возможна. Для всей группы сразу предпочтительнее DrawAll.
func (s *ExchangeService) Draw(ctx context.Context, userID int) (*ExchangeState, error) {
	var recipientID int
	err := s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		p, err := s.participantRepo.FindByUserIDForUpdate(ctx, exec, userID)
		if err != nil {
			if errors.Is(err, repositories.ErrSantaParticipantNotFound) {
				return ErrNotRegistered
			}
			return err
		}
		if p.HasRecipient() {
			return ErrAlreadyMatched
		}

		pool, err := s.participantRepo.ListAvailableRecipientIDs(ctx, exec, userID)
		if err != nil {
			return err
		}
		if len(pool) == 0 {
			return ErrNoCandidates
		}

		recipientID = santa.Pick(pool, s.intn)
		return s.participantRepo.AssignRecipient(ctx, exec, userID, recipientID, s.now())
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("santa draw completed", slog.Int("giver_id", userID))
	s.broadcastStats(ctx, santa.EventParticipantMatched)
	return s.GetState(ctx, userID)
}

// DrawAll проводит жеребьёвку для всех ожидающих участников одной
// транзакцией: либо вся группа получает получателей, либо никто.
func (s *ExchangeService) DrawAll(ctx context.Context) (*AdminState, error) {
	var assigned int
	err := s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		all, err := s.participantRepo.ListAllForUpdate(ctx, exec)
		if err != nil {
			return err
		}

		waiting := make([]int, 0, len(all))
		recipientOf := make(map[int]int)
		for _, p := range all {
			if p.HasRecipient() {
				recipientOf[p.UserID] = *p.RecipientID
			} else {
				waiting = append(waiting, p.UserID)
			}
		}
		if len(waiting) < 2 {
			return ErrInsufficientParticipants
		}

		assignment, err := santa.CycleCompletion(waiting, recipientOf, s.intn)
		if err != nil {
			return err
		}

		matchedAt := s.now()
		for _, giverID := range waiting {
			if err := s.participantRepo.AssignRecipient(ctx, exec, giverID, assignment[giverID], matchedAt); err != nil {
				return err
			}
		}
		assigned = len(waiting)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("santa bulk draw completed", slog.Int("assigned", assigned))
	s.broadcastStats(ctx, santa.EventDrawCompleted)
	return s.GetAdminState(ctx)
}

// ConfirmGifted выполняет переход matched -> gifted для дарителя.
// Повторное подтверждение идемпотентно: состояние не меняется.
func (s *ExchangeService) ConfirmGifted(ctx context.Context, userID int) (*ExchangeState, error) {
	var confirmed bool
	err := s.txRunner.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		p, err := s.participantRepo.FindByUserIDForUpdate(ctx, exec, userID)
		if err != nil {
			if errors.Is(err, repositories.ErrSantaParticipantNotFound) {
				return ErrNotRegistered
			}
			return err
		}
		if p.Status == models.StatusGifted {
			return nil // уже подтверждено, gifted_at не трогаем
		}
		if !models.ValidGiftStatusTransition(p.Status, models.StatusGifted) {
			return ErrNoMatch
		}
		confirmed = true
		return s.participantRepo.MarkGifted(ctx, exec, userID, s.now())
	})
	if err != nil {
		return nil, err
	}

	if confirmed {
		s.logger.Info("gift confirmed", slog.Int("giver_id", userID))
		s.broadcastStats(ctx, santa.EventGiftConfirmed)
	}
	return s.GetState(ctx, userID)
}

// GetState строит публичный список и собственное представление участника.
// Данные пользователей подтягиваются отдельным запросом и соединяются в
// памяти: проектор не держит собственного состояния.
func (s *ExchangeService) GetState(ctx context.Context, callerID int) (*ExchangeState, error) {
	var (
		participants []*models.Participant
		users        map[int]*models.User
		self         *models.Participant
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		participants, err = s.participantRepo.ListAll(gCtx, false)
		if err != nil {
			return err
		}
		ids := make([]int, 0, len(participants))
		for _, p := range participants {
			ids = append(ids, p.UserID)
		}
		users, err = s.userRepo.ListByIDs(gCtx, ids)
		return err
	})
	if callerID > 0 {
		g.Go(func() error {
			p, err := s.participantRepo.FindByUserID(gCtx, callerID)
			if err != nil {
				if errors.Is(err, repositories.ErrSantaParticipantNotFound) {
					return nil // не зарегистрирован — self-view отсутствует
				}
				return err
			}
			self = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load exchange state: %w", err)
	}

	byID := make(map[int]*models.Participant, len(participants))
	entries := make([]PublicEntry, 0, len(participants))
	for _, p := range participants {
		byID[p.UserID] = p
		u := users[p.UserID]
		entries = append(entries, PublicEntry{
			UserID:     p.UserID,
			Name:       u.DisplayName(),
			Department: userDepartment(u),
			Wishlist:   p.Wishlist,
			Status:     p.Status,
		})
	}

	state := &ExchangeState{Participants: entries}
	if self != nil {
		view := &SelfView{
			UserID:       self.UserID,
			Wishlist:     self.Wishlist,
			ReminderNote: self.ReminderNote,
			Status:       self.Status,
			MatchedAt:    self.MatchedAt,
			GiftedAt:     self.GiftedAt,
		}
		if self.HasRecipient() {
			// Единственное место, где даритель видит wishlist получателя.
			view.Recipient = buildRecipientView(byID[*self.RecipientID], users[*self.RecipientID])
		}
		state.Self = view
	}
	return state, nil
}

// GetAdminState строит полное представление с разрешёнными получателями
// и агрегатными счётчиками.
func (s *ExchangeService) GetAdminState(ctx context.Context) (*AdminState, error) {
	participants, err := s.participantRepo.ListAll(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load admin exchange state: %w", err)
	}

	byID := make(map[int]*models.Participant, len(participants))
	for _, p := range participants {
		byID[p.UserID] = p
	}

	state := &AdminState{Participants: make([]AdminEntry, 0, len(participants))}
	for _, p := range participants {
		entry := AdminEntry{Participant: p}
		if p.HasRecipient() {
			if recipient, ok := byID[*p.RecipientID]; ok {
				entry.Recipient = buildRecipientView(recipient, recipient.User)
			}
		}
		state.Participants = append(state.Participants, entry)

		state.Stats.Total++
		switch p.Status {
		case models.StatusWaiting:
			state.Stats.Waiting++
		case models.StatusMatched:
			state.Stats.Matched++
		case models.StatusGifted:
			state.Stats.Gifted++
		}
	}
	return state, nil
}

func (s *ExchangeService) broadcastStats(ctx context.Context, eventType string) {
	if s.hub == nil {
		return
	}
	admin, err := s.GetAdminState(ctx)
	if err != nil {
		s.logger.Error("failed to build stats for broadcast", slog.Any("error", err))
		return
	}
	s.hub.BroadcastEvent(santa.ExchangeEvent{Type: eventType, Payload: admin.Stats})
}

func buildRecipientView(p *models.Participant, u *models.User) *RecipientView {
	if p == nil {
		return nil
	}
	return &RecipientView{
		UserID:     p.UserID,
		Name:       u.DisplayName(),
		Department: userDepartment(u),
		Wishlist:   p.Wishlist,
	}
}

func userDepartment(u *models.User) string {
	if u == nil {
		return ""
	}
	return u.Department
}
