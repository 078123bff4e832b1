package service

import (
	"context"
	"testing"

	"ai-mediagen-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLedgerFixture(t *testing.T, balance int) (ICreditLedgerService, *memStore, uuid.UUID) {
	t.Helper()
	store := newMemStore()
	userId := uuid.New()
	store.seedAccount(userId, balance)
	return NewCreditLedgerService(&fakeFactory{store: store}), store, userId
}

func TestReserveDebitsBalance(t *testing.T) {
	svc, store, userId := newLedgerFixture(t, 100)
	referenceId := uuid.New()

	balance, err := svc.Reserve(context.Background(), userId, 40, referenceId, "image generation")
	require.NoError(t, err)
	assert.Equal(t, 60, balance)
	assert.Equal(t, 60, store.balanceOf(userId))
	assert.Equal(t, []entity.LedgerKind{entity.LedgerKindReserve}, store.ledgerKinds(referenceId))
}

func TestReserveInsufficientCredits(t *testing.T) {
	svc, store, userId := newLedgerFixture(t, 30)
	referenceId := uuid.New()

	balance, err := svc.Reserve(context.Background(), userId, 40, referenceId, "image generation")
	assert.ErrorIs(t, err, ErrInsufficientCredits)
	assert.Equal(t, 30, balance)
	assert.Equal(t, 30, store.balanceOf(userId))
	assert.Empty(t, store.ledgerKinds(referenceId))
}

func TestReserveCreatesAccountOnFirstTouch(t *testing.T) {
	store := newMemStore()
	svc := NewCreditLedgerService(&fakeFactory{store: store})
	userId := uuid.New()

	_, err := svc.Reserve(context.Background(), userId, 10, uuid.New(), "first generation")
	assert.ErrorIs(t, err, ErrInsufficientCredits)

	// The empty account now exists and can be topped up.
	balance, err := svc.Topup(context.Background(), userId, 50, nil)
	require.NoError(t, err)
	assert.Equal(t, 50, balance)
}

func TestCommitFinalizesReservation(t *testing.T) {
	svc, store, userId := newLedgerFixture(t, 100)
	referenceId := uuid.New()

	_, err := svc.Reserve(context.Background(), userId, 40, referenceId, "video generation")
	require.NoError(t, err)

	require.NoError(t, svc.Commit(context.Background(), referenceId))

	// Balance stays where the reserve left it; the charge is final.
	assert.Equal(t, 60, store.balanceOf(userId))
	assert.Equal(t,
		[]entity.LedgerKind{entity.LedgerKindReserve, entity.LedgerKindCommit},
		store.ledgerKinds(referenceId))

	settlement := store.settlements[referenceId]
	require.NotNil(t, settlement)
	assert.Equal(t, entity.SettlementCommitted, settlement.Outcome)
	assert.Equal(t, 40, settlement.Amount)
}

func TestCommitIsIdempotent(t *testing.T) {
	svc, store, userId := newLedgerFixture(t, 100)
	referenceId := uuid.New()

	_, err := svc.Reserve(context.Background(), userId, 40, referenceId, "video generation")
	require.NoError(t, err)

	require.NoError(t, svc.Commit(context.Background(), referenceId))
	require.NoError(t, svc.Commit(context.Background(), referenceId))

	assert.Equal(t,
		[]entity.LedgerKind{entity.LedgerKindReserve, entity.LedgerKindCommit},
		store.ledgerKinds(referenceId))
}

func TestCommitWithoutReservationFails(t *testing.T) {
	svc, _, _ := newLedgerFixture(t, 100)
	assert.Error(t, svc.Commit(context.Background(), uuid.New()))
}

func TestRefundRestoresBalance(t *testing.T) {
	svc, store, userId := newLedgerFixture(t, 100)
	referenceId := uuid.New()

	_, err := svc.Reserve(context.Background(), userId, 40, referenceId, "video generation")
	require.NoError(t, err)

	balance, err := svc.Refund(context.Background(), userId, 40, referenceId, "PROVIDER_TRANSIENT_FAILURE")
	require.NoError(t, err)
	assert.Equal(t, 100, balance)
	assert.Equal(t, 100, store.balanceOf(userId))

	settlement := store.settlements[referenceId]
	require.NotNil(t, settlement)
	assert.Equal(t, entity.SettlementRefunded, settlement.Outcome)
}

func TestRefundExactlyOnce(t *testing.T) {
	svc, store, userId := newLedgerFixture(t, 100)
	referenceId := uuid.New()

	_, err := svc.Reserve(context.Background(), userId, 40, referenceId, "video generation")
	require.NoError(t, err)

	first, err := svc.Refund(context.Background(), userId, 40, referenceId, "TIMED_OUT")
	require.NoError(t, err)
	assert.Equal(t, 100, first)

	// A second refund for the same attempt must not credit again.
	second, err := svc.Refund(context.Background(), userId, 40, referenceId, "TIMED_OUT")
	require.NoError(t, err)
	assert.Equal(t, 100, second)
	assert.Equal(t, 100, store.balanceOf(userId))
	assert.Equal(t,
		[]entity.LedgerKind{entity.LedgerKindReserve, entity.LedgerKindRefund},
		store.ledgerKinds(referenceId))
}

func TestRefundAfterCommitIsNoOp(t *testing.T) {
	svc, store, userId := newLedgerFixture(t, 100)
	referenceId := uuid.New()

	_, err := svc.Reserve(context.Background(), userId, 40, referenceId, "video generation")
	require.NoError(t, err)
	require.NoError(t, svc.Commit(context.Background(), referenceId))

	balance, err := svc.Refund(context.Background(), userId, 40, referenceId, "late failure")
	require.NoError(t, err)
	assert.Equal(t, 60, balance)
	assert.Equal(t, 60, store.balanceOf(userId))
}

func TestTopupAndLedgerListing(t *testing.T) {
	svc, _, userId := newLedgerFixture(t, 0)

	reason := "promo credits"
	balance, err := svc.Topup(context.Background(), userId, 25, &reason)
	require.NoError(t, err)
	assert.Equal(t, 25, balance)

	balance, err = svc.GetBalance(context.Background(), userId)
	require.NoError(t, err)
	assert.Equal(t, 25, balance)

	entries, err := svc.GetLedger(context.Background(), userId, 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.LedgerKindTopup, entries[0].Kind)
	assert.Equal(t, 25, entries[0].Delta)
}

func TestTopupRejectsNonPositiveAmount(t *testing.T) {
	svc, _, userId := newLedgerFixture(t, 0)
	_, err := svc.Topup(context.Background(), userId, 0, nil)
	assert.Error(t, err)
	_, err = svc.Topup(context.Background(), userId, -5, nil)
	assert.Error(t, err)
}
