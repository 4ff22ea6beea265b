package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/inventory-backend/pkg/db/models"
	"github.com/angelmondragon/inventory-backend/pkg/enums"
	"github.com/angelmondragon/inventory-backend/pkg/pagination"
)

type fakeRepository struct {
	createFn func(ctx context.Context, entry *models.InventoryTransaction) error
	created  []*models.InventoryTransaction
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, entry *models.InventoryTransaction) error {
	if f.createFn != nil {
		if err := f.createFn(ctx, entry); err != nil {
			return err
		}
	}
	f.created = append(f.created, entry)
	return nil
}

func (f *fakeRepository) ListByItem(context.Context, uuid.UUID, int, *pagination.Cursor) ([]models.InventoryTransaction, error) {
	return nil, nil
}

func (f *fakeRepository) ListRecent(context.Context, int) ([]models.InventoryTransaction, error) {
	return nil, nil
}

func (f *fakeRepository) CountBetween(context.Context, time.Time, time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeRepository) DeleteByItem(context.Context, uuid.UUID) (int64, error) {
	return 0, nil
}

func TestService_RecordStoresMagnitudeAndSignedDelta(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	userID := uuid.New()
	input := RecordInput{
		ItemID:       uuid.New(),
		Type:         enums.TransactionTypeAdjust,
		Delta:        -4,
		BalanceAfter: 6,
		Reason:       "cycle count",
		UserID:       &userID,
	}

	got, err := svc.Record(context.Background(), nil, input)
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}
	if len(repo.created) != 1 || repo.created[0] != got {
		t.Fatalf("expected entry to be persisted once")
	}
	if got.Quantity != 4 || got.Delta != -4 || got.BalanceAfter != 6 {
		t.Fatalf("unexpected amounts: %+v", got)
	}
	if got.UserID == nil || *got.UserID != userID {
		t.Fatalf("expected user attribution, got %v", got.UserID)
	}
}

func TestNewEntryValidation(t *testing.T) {
	long := make([]rune, MaxReasonLength+1)
	for i := range long {
		long[i] = 'x'
	}
	tests := []struct {
		name  string
		input RecordInput
	}{
		{name: "missing item", input: RecordInput{Type: enums.TransactionTypeIn, Delta: 1, BalanceAfter: 1}},
		{name: "invalid type", input: RecordInput{ItemID: uuid.New(), Type: "TRANSFER", Delta: 1, BalanceAfter: 1}},
		{name: "in with negative delta", input: RecordInput{ItemID: uuid.New(), Type: enums.TransactionTypeIn, Delta: -1}},
		{name: "out with positive delta", input: RecordInput{ItemID: uuid.New(), Type: enums.TransactionTypeOut, Delta: 2, BalanceAfter: 2}},
		{name: "negative balance", input: RecordInput{ItemID: uuid.New(), Type: enums.TransactionTypeOut, Delta: -2, BalanceAfter: -1}},
		{name: "reason too long", input: RecordInput{ItemID: uuid.New(), Type: enums.TransactionTypeIn, Delta: 1, BalanceAfter: 1, Reason: string(long)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewEntry(tc.input); err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
		})
	}
}

func TestNewEntryAllowsZeroAdjustment(t *testing.T) {
	entry, err := NewEntry(RecordInput{ItemID: uuid.New(), Type: enums.TransactionTypeAdjust, Delta: 0, BalanceAfter: 7})
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}
	if entry.Quantity != 0 || entry.BalanceAfter != 7 {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestService_RecordRepoError(t *testing.T) {
	expectedErr := errors.New("boom")
	repo := &fakeRepository{createFn: func(context.Context, *models.InventoryTransaction) error {
		return expectedErr
	}}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	if _, err := svc.Record(context.Background(), nil, RecordInput{
		ItemID:       uuid.New(),
		Type:         enums.TransactionTypeIn,
		Delta:        3,
		BalanceAfter: 3,
	}); !errors.Is(err, expectedErr) {
		t.Fatalf("expected repo error to bubble up, got %v", err)
	}
}

func TestTrendWindowsCoversSixConsecutiveMonths(t *testing.T) {
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	windows := TrendWindows(now, 6)
	if len(windows) != 6 {
		t.Fatalf("expected 6 windows, got %d", len(windows))
	}
	if !windows[0].Start.Equal(now.Add(-180 * 24 * time.Hour)) {
		t.Fatalf("unexpected first start %s", windows[0].Start)
	}
	if !windows[5].End.Equal(now) {
		t.Fatalf("expected last window to end now, got %s", windows[5].End)
	}
	for i := 1; i < len(windows); i++ {
		if !windows[i].Start.Equal(windows[i-1].End) {
			t.Fatalf("window %d does not start where the previous one ended", i)
		}
	}
	if windows[0].Label != "Jan 2026" {
		t.Fatalf("unexpected label %q", windows[0].Label)
	}
}
