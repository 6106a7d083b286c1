package service_test

import (
	"context"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/straye-as/procurement-api/internal/config"
	"github.com/straye-as/procurement-api/internal/domain"
	"github.com/straye-as/procurement-api/internal/repository"
	"github.com/straye-as/procurement-api/internal/service"
	"github.com/straye-as/procurement-api/internal/storage"
	"github.com/straye-as/procurement-api/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fixture struct {
	db          *gorm.DB
	store       *storage.LocalStorage
	imports     *service.ImportService
	packages    *service.PackageService
	specItems   *service.SpecItemService
	invites     *service.InviteService
	bids        *service.BidService
	comparisons *service.ComparisonService
	awards      *service.AwardService
	project     *domain.Project
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	projectRepo := repository.NewProjectRepository(db)
	packageRepo := repository.NewBidPackageRepository(db)
	specItemRepo := repository.NewSpecItemRepository(db)
	batchRepo := repository.NewImportBatchRepository(db)
	inviteRepo := repository.NewInviteRepository(db)
	bidRepo := repository.NewBidRepository(db)
	lineRepo := repository.NewBidLineItemRepository(db)
	versionRepo := repository.NewSubmissionVersionRepository(db)
	eventRepo := repository.NewAwardEventRepository(db)
	comparisonRepo := repository.NewComparisonRepository(db)

	importCfg := config.ImportConfig{MaxUploadSizeMB: 1, ArchiveSources: true}

	return &fixture{
		db:          db,
		store:       store,
		imports:     service.NewImportService(projectRepo, packageRepo, specItemRepo, batchRepo, store, importCfg, logger, db),
		packages:    service.NewPackageService(packageRepo, logger),
		specItems:   service.NewSpecItemService(packageRepo, specItemRepo, logger, db),
		invites:     service.NewInviteService(packageRepo, inviteRepo, logger).WithBcryptCost(bcrypt.MinCost),
		bids:        service.NewBidService(packageRepo, inviteRepo, bidRepo, lineRepo, specItemRepo, versionRepo, logger, db),
		comparisons: service.NewComparisonService(packageRepo, comparisonRepo, logger),
		awards:      service.NewAwardService(packageRepo, bidRepo, lineRepo, versionRepo, eventRepo, logger, db),
		project:     testutil.CreateTestProject(t, db, "Head Office"),
	}
}

func (f *fixture) newPackage(t *testing.T, fields ...domain.GeneralPricingField) *domain.BidPackage {
	t.Helper()
	return testutil.CreateTestPackage(t, f.db, f.project.ID, fields...)
}

func (f *fixture) invite(t *testing.T, packageID uint, dealer string) *domain.InviteDTO {
	t.Helper()
	invite, err := f.invites.Create(context.Background(), packageID, &domain.CreateInviteRequest{
		DealerName: dealer,
		Password:   "secret-pass",
	})
	require.NoError(t, err)
	return invite
}

// submitPriced saves one basis line per item at the given list price and submits
func (f *fixture) submitPriced(t *testing.T, token string, prices map[uint]string) *domain.SubmissionVersionDTO {
	t.Helper()
	ctx := context.Background()

	req := &domain.SaveBidRequest{}
	for itemID, price := range prices {
		p := decimal.RequireFromString(price)
		req.LineItems = append(req.LineItems, domain.SaveBidLineRequest{SpecItemID: itemID, UnitPrice: &p})
	}
	_, err := f.bids.SaveDraft(ctx, token, req)
	require.NoError(t, err)

	version, err := f.bids.Submit(ctx, token)
	require.NoError(t, err)
	return version
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got), "expected %s, got %s", want, got)
}

func uintText(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
