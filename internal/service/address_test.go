package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/anchorhub/backoffice/internal/domain"
	apperrors "github.com/anchorhub/backoffice/pkg/errors"
)

func newTestAddressBook(repo *fakeAddressRepo, events *mockEvents) *AddressBook {
	book := NewAddressBook(repo, events, discardLogger())
	book.now = tick()
	return book
}

func addressInput(line string, primary bool) *CreateAddressInput {
	return &CreateAddressInput{
		AddressLine: line,
		City:        "Bandung",
		State:       "Jawa Barat",
		PostalCode:  "40115",
		PhoneNumber: "+62812000000",
		IsPrimary:   primary,
	}
}

func primaries(t *testing.T, repo *fakeAddressRepo, userID string) []string {
	t.Helper()
	addrs, err := repo.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	var ids []string
	for _, a := range addrs {
		if a.IsPrimary {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

func TestCreateAddress_FirstIsForcedPrimary(t *testing.T) {
	repo := newFakeAddressRepo()
	events := newMockEvents()
	book := newTestAddressBook(repo, events)

	addr, err := book.CreateAddress(context.Background(), "user-1", addressInput("Jl. Braga 1", false))
	require.NoError(t, err)

	assert.True(t, addr.IsPrimary)
	assert.Equal(t, domain.DefaultCountry, addr.Country)
	assert.Equal(t, domain.AddressTypeHome, addr.AddressType)
	assert.Equal(t, []string{addr.ID}, primaries(t, repo, "user-1"))
	events.AssertCalled(t, "PublishPrimaryChanged", mock.Anything, mock.Anything, "")
}

func TestCreateAddress_NonPrimaryKeepsExisting(t *testing.T) {
	repo := newFakeAddressRepo()
	events := newMockEvents()
	book := newTestAddressBook(repo, events)
	ctx := context.Background()

	first, err := book.CreateAddress(ctx, "user-1", addressInput("A", false))
	require.NoError(t, err)
	second, err := book.CreateAddress(ctx, "user-1", addressInput("B", false))
	require.NoError(t, err)

	assert.False(t, second.IsPrimary)
	assert.Equal(t, []string{first.ID}, primaries(t, repo, "user-1"))
	events.AssertNumberOfCalls(t, "PublishPrimaryChanged", 1)
}

func TestCreateAddress_PrimaryDemotesSiblings(t *testing.T) {
	repo := newFakeAddressRepo()
	events := newMockEvents()
	book := newTestAddressBook(repo, events)
	ctx := context.Background()

	first, err := book.CreateAddress(ctx, "user-1", addressInput("A", true))
	require.NoError(t, err)
	second, err := book.CreateAddress(ctx, "user-1", addressInput("B", true))
	require.NoError(t, err)

	assert.Equal(t, []string{second.ID}, primaries(t, repo, "user-1"))
	events.AssertCalled(t, "PublishPrimaryChanged", mock.Anything, mock.Anything, first.ID)
}

func TestCreateAddress_Validation(t *testing.T) {
	book := newTestAddressBook(newFakeAddressRepo(), newMockEvents())

	tests := []struct {
		name   string
		mutate func(in *CreateAddressInput)
	}{
		{"missing address line", func(in *CreateAddressInput) { in.AddressLine = "" }},
		{"blank city", func(in *CreateAddressInput) { in.City = "   " }},
		{"missing phone", func(in *CreateAddressInput) { in.PhoneNumber = "" }},
		{"bad type", func(in *CreateAddressInput) { in.AddressType = "Warehouse" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := addressInput("A", false)
			tt.mutate(in)
			_, err := book.CreateAddress(context.Background(), "user-1", in)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

func TestSetPrimary_MovesFlag(t *testing.T) {
	repo := newFakeAddressRepo()
	events := newMockEvents()
	book := newTestAddressBook(repo, events)
	ctx := context.Background()

	a, err := book.CreateAddress(ctx, "user-1", addressInput("A", true))
	require.NoError(t, err)
	b, err := book.CreateAddress(ctx, "user-1", addressInput("B", false))
	require.NoError(t, err)
	_, err = book.CreateAddress(ctx, "user-1", addressInput("C", false))
	require.NoError(t, err)

	got, err := book.SetPrimary(ctx, "user-1", b.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPrimary)
	assert.Equal(t, []string{b.ID}, primaries(t, repo, "user-1"))
	events.AssertCalled(t, "PublishPrimaryChanged", mock.Anything, mock.Anything, a.ID)
}

func TestSetPrimary_AlreadyPrimaryPublishesNothing(t *testing.T) {
	repo := newFakeAddressRepo()
	events := newMockEvents()
	book := newTestAddressBook(repo, events)
	ctx := context.Background()

	a, err := book.CreateAddress(ctx, "user-1", addressInput("A", true))
	require.NoError(t, err)

	_, err = book.SetPrimary(ctx, "user-1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, primaries(t, repo, "user-1"))
	events.AssertNumberOfCalls(t, "PublishPrimaryChanged", 1)
}

func TestSetPrimary_OtherUsersAddressNotFound(t *testing.T) {
	repo := newFakeAddressRepo()
	book := newTestAddressBook(repo, newMockEvents())
	ctx := context.Background()

	mine, err := book.CreateAddress(ctx, "user-1", addressInput("A", true))
	require.NoError(t, err)
	theirs, err := book.CreateAddress(ctx, "user-2", addressInput("B", true))
	require.NoError(t, err)

	_, err = book.SetPrimary(ctx, "user-1", theirs.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.Equal(t, []string{mine.ID}, primaries(t, repo, "user-1"))
	assert.Equal(t, []string{theirs.ID}, primaries(t, repo, "user-2"))
}

func TestUpdateAddress_PromoteAndIgnoreDemote(t *testing.T) {
	repo := newFakeAddressRepo()
	book := newTestAddressBook(repo, newMockEvents())
	ctx := context.Background()

	a, err := book.CreateAddress(ctx, "user-1", addressInput("A", true))
	require.NoError(t, err)
	b, err := book.CreateAddress(ctx, "user-1", addressInput("B", false))
	require.NoError(t, err)

	yes := true
	city := "Surabaya"
	updated, err := book.UpdateAddress(ctx, "user-1", b.ID, &UpdateAddressInput{IsPrimary: &yes, City: &city})
	require.NoError(t, err)
	assert.True(t, updated.IsPrimary)
	assert.Equal(t, "Surabaya", updated.City)
	assert.Equal(t, []string{b.ID}, primaries(t, repo, "user-1"))

	no := false
	line := "B2"
	updated, err = book.UpdateAddress(ctx, "user-1", b.ID, &UpdateAddressInput{IsPrimary: &no, AddressLine: &line})
	require.NoError(t, err)
	assert.True(t, updated.IsPrimary, "demoting the primary is ignored")
	assert.Equal(t, "B2", updated.AddressLine)
	assert.Equal(t, []string{b.ID}, primaries(t, repo, "user-1"))

	got, err := book.GetAddress(ctx, "user-1", a.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPrimary)
}

func TestUpdateAddress_EmptyFieldRejected(t *testing.T) {
	repo := newFakeAddressRepo()
	book := newTestAddressBook(repo, newMockEvents())
	ctx := context.Background()

	a, err := book.CreateAddress(ctx, "user-1", addressInput("A", true))
	require.NoError(t, err)

	empty := ""
	_, err = book.UpdateAddress(ctx, "user-1", a.ID, &UpdateAddressInput{PostalCode: &empty})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestDeleteAddress_PrimaryPromotesOldestRemaining(t *testing.T) {
	repo := newFakeAddressRepo()
	events := newMockEvents()
	book := newTestAddressBook(repo, events)
	ctx := context.Background()

	a, err := book.CreateAddress(ctx, "user-1", addressInput("A", true))
	require.NoError(t, err)
	b, err := book.CreateAddress(ctx, "user-1", addressInput("B", false))
	require.NoError(t, err)
	_, err = book.CreateAddress(ctx, "user-1", addressInput("C", false))
	require.NoError(t, err)

	require.NoError(t, book.DeleteAddress(ctx, "user-1", a.ID))

	assert.Equal(t, []string{b.ID}, primaries(t, repo, "user-1"))
	events.AssertCalled(t, "PublishPrimaryChanged", mock.Anything, mock.Anything, a.ID)
}

func TestDeleteAddress_NonPrimaryKeepsPrimary(t *testing.T) {
	repo := newFakeAddressRepo()
	book := newTestAddressBook(repo, newMockEvents())
	ctx := context.Background()

	a, err := book.CreateAddress(ctx, "user-1", addressInput("A", true))
	require.NoError(t, err)
	b, err := book.CreateAddress(ctx, "user-1", addressInput("B", false))
	require.NoError(t, err)

	require.NoError(t, book.DeleteAddress(ctx, "user-1", b.ID))
	assert.Equal(t, []string{a.ID}, primaries(t, repo, "user-1"))
}

func TestDeleteAddress_OnlyAddress(t *testing.T) {
	repo := newFakeAddressRepo()
	book := newTestAddressBook(repo, newMockEvents())
	ctx := context.Background()

	a, err := book.CreateAddress(ctx, "user-1", addressInput("A", false))
	require.NoError(t, err)

	require.NoError(t, book.DeleteAddress(ctx, "user-1", a.ID))
	addrs, err := book.ListAddresses(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, addrs)
}

func TestDeleteAddress_NotFound(t *testing.T) {
	book := newTestAddressBook(newFakeAddressRepo(), newMockEvents())
	err := book.DeleteAddress(context.Background(), "user-1", "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAddressMutation_InvariantViolationRollsBack(t *testing.T) {
	repo := newFakeAddressRepo()
	book := newTestAddressBook(repo, newMockEvents())
	ctx := context.Background()

	a, err := book.CreateAddress(ctx, "user-1", addressInput("A", true))
	require.NoError(t, err)

	repo.breakCount = true
	_, err = book.CreateAddress(ctx, "user-1", addressInput("B", true))
	assert.ErrorIs(t, err, apperrors.ErrInvariantViolation)

	addrs, err := book.ListAddresses(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, addrs, 1)
	assert.Equal(t, a.ID, addrs[0].ID)
	assert.True(t, addrs[0].IsPrimary)
}

func TestAddressBook_ExactlyOnePrimaryAcrossSequence(t *testing.T) {
	repo := newFakeAddressRepo()
	book := newTestAddressBook(repo, newMockEvents())
	ctx := context.Background()

	var ids []string
	for i, primary := range []bool{false, false, true, false, true} {
		a, err := book.CreateAddress(ctx, "user-1", addressInput(string(rune('A'+i)), primary))
		require.NoError(t, err)
		ids = append(ids, a.ID)
		assert.Len(t, primaries(t, repo, "user-1"), 1)
	}

	_, err := book.SetPrimary(ctx, "user-1", ids[1])
	require.NoError(t, err)
	assert.Len(t, primaries(t, repo, "user-1"), 1)

	for _, id := range []string{ids[1], ids[0], ids[4], ids[2]} {
		require.NoError(t, book.DeleteAddress(ctx, "user-1", id))
		assert.Len(t, primaries(t, repo, "user-1"), 1)
	}

	require.NoError(t, book.DeleteAddress(ctx, "user-1", ids[3]))
	assert.Empty(t, primaries(t, repo, "user-1"))
}

func TestListAddresses_PrimaryFirst(t *testing.T) {
	repo := newFakeAddressRepo()
	book := newTestAddressBook(repo, newMockEvents())
	ctx := context.Background()

	_, err := book.CreateAddress(ctx, "user-1", addressInput("A", false))
	require.NoError(t, err)
	b, err := book.CreateAddress(ctx, "user-1", addressInput("B", true))
	require.NoError(t, err)

	addrs, err := book.ListAddresses(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, addrs, 2)
	assert.Equal(t, b.ID, addrs[0].ID)
}
