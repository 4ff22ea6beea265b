package ledger

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/inventory-backend/pkg/db/models"
	"github.com/angelmondragon/inventory-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/inventory-backend/pkg/errors"
	"github.com/angelmondragon/inventory-backend/pkg/pagination"
)

// MaxReasonLength bounds the free-text reason stored with a movement.
const MaxReasonLength = 200

// Service records stock movements and serves their history.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.InventoryTransaction, error)
	History(ctx context.Context, itemID uuid.UUID, params pagination.Params) (*pagination.Page[EntryDTO], error)
}

type service struct {
	repo Repository
}

// RecordInput captures the immutable data a ledger entry requires. Delta is
// the signed change applied to the item; BalanceAfter is the resulting stock.
type RecordInput struct {
	ItemID       uuid.UUID
	Type         enums.TransactionType
	Delta        int
	BalanceAfter int
	Reason       string
	UserID       *uuid.UUID
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

// NewEntry validates the input and builds the row to persist.
func NewEntry(input RecordInput) (*models.InventoryTransaction, error) {
	if input.ItemID == uuid.Nil {
		return nil, fmt.Errorf("item id is required")
	}
	if !input.Type.IsValid() {
		return nil, fmt.Errorf("invalid transaction type %q", input.Type)
	}
	switch input.Type {
	case enums.TransactionTypeIn:
		if input.Delta <= 0 {
			return nil, fmt.Errorf("stock in requires a positive delta, got %d", input.Delta)
		}
	case enums.TransactionTypeOut:
		if input.Delta >= 0 {
			return nil, fmt.Errorf("stock out requires a negative delta, got %d", input.Delta)
		}
	}
	if input.BalanceAfter < 0 {
		return nil, fmt.Errorf("balance after cannot be negative, got %d", input.BalanceAfter)
	}
	if utf8.RuneCountInString(input.Reason) > MaxReasonLength {
		return nil, fmt.Errorf("reason exceeds %d characters", MaxReasonLength)
	}

	return &models.InventoryTransaction{
		ItemID:          input.ItemID,
		TransactionType: input.Type,
		Quantity:        abs(input.Delta),
		Delta:           input.Delta,
		BalanceAfter:    input.BalanceAfter,
		Reason:          input.Reason,
		UserID:          input.UserID,
	}, nil
}

// Record persists an entry on tx, which should be the transaction that also
// mutated the item.
func (s *service) Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.InventoryTransaction, error) {
	entry, err := NewEntry(input)
	if err != nil {
		return nil, err
	}
	if err := s.repo.WithTx(tx).Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) History(ctx context.Context, itemID uuid.UUID, params pagination.Params) (*pagination.Page[EntryDTO], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListByItem(ctx, itemID, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}
	rows, next := pagination.Trim(rows, params.Limit, func(row models.InventoryTransaction) pagination.Cursor {
		return pagination.Cursor{Key: pagination.TimeKey(row.CreatedAt), ID: row.ID}
	})
	return &pagination.Page[EntryDTO]{Items: EntriesFromModels(rows), NextCursor: next}, nil
}

// MonthWindow is one bucket of the movement trend.
type MonthWindow struct {
	Start time.Time
	End   time.Time
	Label string
}

// TrendWindows splits the last months*30 days before now into consecutive
// 30 day windows, oldest first, each labelled with the month it starts in.
func TrendWindows(now time.Time, months int) []MonthWindow {
	const window = 30 * 24 * time.Hour
	start := now.Add(-time.Duration(months) * window)
	windows := make([]MonthWindow, 0, months)
	for i := 0; i < months; i++ {
		from := start.Add(time.Duration(i) * window)
		windows = append(windows, MonthWindow{
			Start: from,
			End:   from.Add(window),
			Label: from.Format("Jan 2006"),
		})
	}
	return windows
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
