package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/straye-as/procurement-api/internal/domain"
	"github.com/straye-as/procurement-api/internal/service"
	"github.com/straye-as/procurement-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type awardScenario struct {
	pkg   *domain.BidPackage
	alpha uint // bid ids
	beta  uint
	draft uint
}

func newAwardScenario(t *testing.T, f *fixture) awardScenario {
	t.Helper()
	pkg := f.newPackage(t, domain.GeneralPricingDelivery)
	item := testutil.CreateTestSpecItem(t, f.db, pkg.ID, "CH-1", "3")

	alpha := f.submitPriced(t, f.invite(t, pkg.ID, "Alpha").Token, map[uint]string{item.ID: "100.333"})
	beta := f.submitPriced(t, f.invite(t, pkg.ID, "Beta").Token, map[uint]string{item.ID: "120"})

	draft, err := f.bids.Open(context.Background(), f.invite(t, pkg.ID, "Gamma").Token)
	require.NoError(t, err)

	return awardScenario{pkg: pkg, alpha: alpha.BidID, beta: beta.BidID, draft: draft.ID}
}

func requireAwardError(t *testing.T, err error, key service.AwardErrorKey) {
	t.Helper()
	var awardErr *service.AwardError
	require.True(t, errors.As(err, &awardErr), "expected award error %s, got %v", key, err)
	assert.Equal(t, key, awardErr.Key)
}

func selectionStatuses(t *testing.T, f *fixture, packageID uint) map[uint]domain.SelectionStatus {
	t.Helper()
	var bids []domain.Bid
	require.NoError(t, f.db.Where("bid_package_id = ?", packageID).Find(&bids).Error)
	out := make(map[uint]domain.SelectionStatus, len(bids))
	for _, b := range bids {
		out[b.ID] = b.SelectionStatus
	}
	return out
}

func TestAwardService_AwardReawardClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := newAwardScenario(t, f)

	awarded, err := f.awards.Award(ctx, s.pkg.ID, &domain.AwardRequest{BidID: s.alpha, AwardedBy: "pm@example.com", Note: "lowest"})
	require.NoError(t, err)
	require.NotNil(t, awarded.Package.AwardedBidID)
	assert.Equal(t, s.alpha, *awarded.Package.AwardedBidID)
	assert.NotNil(t, awarded.Package.AwardedAt)
	assert.Equal(t, domain.AwardEventAward, awarded.Event.EventType)
	assert.Nil(t, awarded.Event.FromBidID)
	assert.Equal(t, s.alpha, awarded.Event.ToBidID)
	// 3 * 100.333 = 300.999
	requireDecimal(t, "301", awarded.Event.AwardedAmountSnapshot)
	assert.Equal(t, map[uint]domain.SelectionStatus{
		s.alpha: domain.SelectionAwarded,
		s.beta:  domain.SelectionNotSelected,
		s.draft: domain.SelectionNotSelected,
	}, selectionStatuses(t, f, s.pkg.ID))

	_, err = f.awards.Award(ctx, s.pkg.ID, &domain.AwardRequest{BidID: s.beta, AwardedBy: "pm"})
	requireAwardError(t, err, service.AwardErrAlreadyAwarded)

	reawarded, err := f.awards.Reaward(ctx, s.pkg.ID, &domain.AwardRequest{BidID: s.beta, AwardedBy: "pm"})
	require.NoError(t, err)
	assert.Equal(t, s.beta, *reawarded.Package.AwardedBidID)
	require.NotNil(t, reawarded.Event.FromBidID)
	assert.Equal(t, s.alpha, *reawarded.Event.FromBidID)
	requireDecimal(t, "360", reawarded.Event.AwardedAmountSnapshot)
	assert.Equal(t, domain.SelectionAwarded, selectionStatuses(t, f, s.pkg.ID)[s.beta])
	assert.Equal(t, domain.SelectionNotSelected, selectionStatuses(t, f, s.pkg.ID)[s.alpha])

	cleared, err := f.awards.ClearAward(ctx, s.pkg.ID, &domain.AwardRequest{AwardedBy: "pm"})
	require.NoError(t, err)
	assert.Nil(t, cleared.Package.AwardedBidID)
	assert.Nil(t, cleared.Package.AwardedAt)
	assert.Equal(t, domain.AwardEventUnaward, cleared.Event.EventType)
	require.NotNil(t, cleared.Event.FromBidID)
	assert.Equal(t, s.beta, *cleared.Event.FromBidID)
	assert.Equal(t, s.beta, cleared.Event.ToBidID)
	for id, status := range selectionStatuses(t, f, s.pkg.ID) {
		assert.Equal(t, domain.SelectionPending, status, "bid %d", id)
	}

	_, err = f.awards.ClearAward(ctx, s.pkg.ID, &domain.AwardRequest{AwardedBy: "pm"})
	requireAwardError(t, err, service.AwardErrNoExisting)

	events, err := f.awards.Events(ctx, s.pkg.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, domain.AwardEventUnaward, events[0].EventType)
	assert.Equal(t, domain.AwardEventReaward, events[1].EventType)
	assert.Equal(t, domain.AwardEventAward, events[2].EventType)
	assert.Equal(t, "lowest", events[2].Note)
}

func TestAwardService_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := newAwardScenario(t, f)
	elsewhere := newAwardScenario(t, f)

	_, err := f.awards.Reaward(ctx, s.pkg.ID, &domain.AwardRequest{BidID: s.alpha, AwardedBy: "pm"})
	requireAwardError(t, err, service.AwardErrNoExisting)

	_, err = f.awards.Award(ctx, s.pkg.ID, &domain.AwardRequest{BidID: elsewhere.alpha, AwardedBy: "pm"})
	requireAwardError(t, err, service.AwardErrInvalidBid)

	_, err = f.awards.Award(ctx, s.pkg.ID, &domain.AwardRequest{BidID: 9999, AwardedBy: "pm"})
	requireAwardError(t, err, service.AwardErrInvalidBid)

	_, err = f.awards.Award(ctx, s.pkg.ID, &domain.AwardRequest{BidID: s.draft, AwardedBy: "pm"})
	requireAwardError(t, err, service.AwardErrInvalidBidState)

	_, err = f.awards.Award(ctx, s.pkg.ID, &domain.AwardRequest{BidID: s.alpha})
	requireAwardError(t, err, service.AwardErrInvalidRecord)

	_, err = f.awards.Award(ctx, s.pkg.ID, &domain.AwardRequest{BidID: s.alpha, AwardedBy: "pm"})
	require.NoError(t, err)

	_, err = f.awards.Reaward(ctx, s.pkg.ID, &domain.AwardRequest{BidID: s.alpha, AwardedBy: "pm"})
	requireAwardError(t, err, service.AwardErrSameBid)

	_, err = f.awards.Award(ctx, s.pkg.ID, &domain.AwardRequest{BidID: s.alpha, AwardedBy: "pm"})
	requireAwardError(t, err, service.AwardErrSameBid)

	_, err = f.awards.Award(ctx, 4242, &domain.AwardRequest{BidID: s.alpha, AwardedBy: "pm"})
	assert.ErrorIs(t, err, service.ErrPackageNotFound)

	events, err := f.awards.Events(ctx, s.pkg.ID)
	require.NoError(t, err)
	assert.Len(t, events, 1, "rejected transitions leave no event")
}

func TestAwardService_AmountOverrideAndSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := newAwardScenario(t, f)

	outcome, err := f.awards.Award(ctx, s.pkg.ID, &domain.AwardRequest{
		BidID:                  s.beta,
		AwardedBy:              "pm",
		AwardedAmountOverride:  decPtr("1234.565"),
		ExcludedSpecItemIDs:    json.RawMessage(`[3, "2", 3, -1, "x"]`),
		CellPriceModeOverrides: json.RawMessage(`{"7": {"12": "substitution", "13": "bogus"}}`),
	})
	require.NoError(t, err)

	requireDecimal(t, "1234.57", outcome.Event.AwardedAmountSnapshot)

	var snapshot struct {
		ExcludedSpecItemIDs    []uint                       `json:"excludedSpecItemIds"`
		CellPriceModeOverrides map[string]map[string]string `json:"cellPriceModeOverrides"`
	}
	require.NoError(t, json.Unmarshal(outcome.Event.ComparisonSnapshot, &snapshot))
	assert.Equal(t, []uint{2, 3}, snapshot.ExcludedSpecItemIDs)
	assert.Equal(t, map[string]map[string]string{"7": {"12": "substitution"}}, snapshot.CellPriceModeOverrides)
}

func TestAwardService_MalformedComparisonContextIsTolerated(t *testing.T) {
	f := newFixture(t)
	s := newAwardScenario(t, f)

	outcome, err := f.awards.Award(context.Background(), s.pkg.ID, &domain.AwardRequest{
		BidID:                  s.alpha,
		AwardedBy:              "pm",
		ExcludedSpecItemIDs:    json.RawMessage(`"not a list"`),
		CellPriceModeOverrides: json.RawMessage(`[1,2]`),
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{"excludedSpecItemIds":[],"cellPriceModeOverrides":{}}`, string(outcome.Event.ComparisonSnapshot))
}
