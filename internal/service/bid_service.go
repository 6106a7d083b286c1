package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/straye-as/procurement-api/internal/domain"
	"github.com/straye-as/procurement-api/internal/mapper"
	"github.com/straye-as/procurement-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

// BidService manages a dealer's bid: the draft ledger, submission versions and reopen
type BidService struct {
	packageRepo  *repository.BidPackageRepository
	inviteRepo   *repository.InviteRepository
	bidRepo      *repository.BidRepository
	lineRepo     *repository.BidLineItemRepository
	specItemRepo *repository.SpecItemRepository
	versionRepo  *repository.SubmissionVersionRepository
	logger       *zap.Logger
	db           *gorm.DB
}

func NewBidService(
	packageRepo *repository.BidPackageRepository,
	inviteRepo *repository.InviteRepository,
	bidRepo *repository.BidRepository,
	lineRepo *repository.BidLineItemRepository,
	specItemRepo *repository.SpecItemRepository,
	versionRepo *repository.SubmissionVersionRepository,
	logger *zap.Logger,
	db *gorm.DB,
) *BidService {
	return &BidService{
		packageRepo:  packageRepo,
		inviteRepo:   inviteRepo,
		bidRepo:      bidRepo,
		lineRepo:     lineRepo,
		specItemRepo: specItemRepo,
		versionRepo:  versionRepo,
		logger:       logger,
		db:           db,
	}
}

// Open returns the dealer's bid for an access token, creating an empty draft on first access
func (s *BidService) Open(ctx context.Context, token string) (*domain.BidDTO, error) {
	invite, err := s.resolveInvite(ctx, token)
	if err != nil {
		return nil, err
	}
	bid, err := s.findOrCreateBid(ctx, invite)
	if err != nil {
		return nil, err
	}
	return s.toDTO(ctx, bid, invite.BidPackage.ActiveGeneralFields)
}

// Get returns a bid by id
func (s *BidService) Get(ctx context.Context, bidID uint) (*domain.BidDTO, error) {
	bid, err := s.getBid(ctx, bidID)
	if err != nil {
		return nil, err
	}
	pkg, err := s.packageRepo.GetByID(ctx, bid.BidPackageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get package: %w", err)
	}
	return s.toDTO(ctx, bid, pkg.ActiveGeneralFields)
}

// List returns every bid of a package, including drafts
func (s *BidService) List(ctx context.Context, packageID uint) ([]domain.BidDTO, error) {
	pkg, err := s.packageRepo.GetByID(ctx, packageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, fmt.Errorf("failed to get package: %w", err)
	}

	bids, err := s.bidRepo.ListByPackage(ctx, packageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}

	dtos := make([]domain.BidDTO, 0, len(bids))
	for i := range bids {
		dto, err := s.toDTO(ctx, &bids[i], pkg.ActiveGeneralFields)
		if err != nil {
			return nil, err
		}
		dtos = append(dtos, *dto)
	}
	return dtos, nil
}

// SaveDraft replaces the draft ledger with the payload. Lines missing from the
// payload are deleted. A submitted bid is rejected before any write.
func (s *BidService) SaveDraft(ctx context.Context, token string, req *domain.SaveBidRequest) (*domain.BidDTO, error) {
	invite, err := s.resolveInvite(ctx, token)
	if err != nil {
		return nil, err
	}
	bid, err := s.findOrCreateBid(ctx, invite)
	if err != nil {
		return nil, err
	}
	if bid.IsSubmitted() {
		return nil, ErrBidNotEditable
	}

	generalUpdates, messages := validateGeneralPricing(req.GeneralPricing)

	specItemIDs := make([]uint, 0, len(req.LineItems))
	for _, line := range req.LineItems {
		specItemIDs = append(specItemIDs, line.SpecItemID)
	}
	activeItems, err := s.specItemRepo.ActiveByIDs(ctx, bid.BidPackageID, specItemIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load spec items: %w", err)
	}
	messages = append(messages, validateLines(req.LineItems, activeItems)...)
	if len(messages) > 0 {
		return nil, NewValidationError(messages...)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.bidRepo.WithTx(tx).UpdateDraftFields(ctx, bid.ID, generalUpdates)
		if err != nil {
			return err
		}
		if !ok {
			return ErrBidNotEditable
		}

		lineRepo := s.lineRepo.WithTx(tx)
		keep := make([]uint, 0, len(req.LineItems))
		for _, l := range req.LineItems {
			line := &domain.BidLineItem{
				BidID:                   bid.ID,
				SpecItemID:              l.SpecItemID,
				IsSubstitution:          l.IsSubstitution,
				UnitPrice:               nullable(l.UnitPrice),
				DiscountPercent:         nullable(l.DiscountPercent),
				TariffPercent:           nullable(l.TariffPercent),
				LeadTime:                l.LeadTime,
				Notes:                   l.Notes,
				SubstitutionProductName: l.SubstitutionProductName,
				SubstitutionBrandName:   l.SubstitutionBrandName,
			}
			if err := lineRepo.Upsert(ctx, line); err != nil {
				return err
			}
			keep = append(keep, line.ID)
		}
		return lineRepo.DeleteExcept(ctx, bid.ID, keep)
	})
	if err != nil {
		if errors.Is(err, ErrBidNotEditable) {
			return nil, err
		}
		return nil, asValidationError(err, "Bid could not be saved")
	}

	s.logger.Debug("Bid draft saved",
		zap.Uint("bid_id", bid.ID),
		zap.Int("line_items", len(req.LineItems)),
	)

	bid, err = s.getBid(ctx, bid.ID)
	if err != nil {
		return nil, err
	}
	return s.toDTO(ctx, bid, invite.BidPackage.ActiveGeneralFields)
}

// Submit freezes the bid and records the next submission version in the same transaction
func (s *BidService) Submit(ctx context.Context, token string) (*domain.SubmissionVersionDTO, error) {
	invite, err := s.resolveInvite(ctx, token)
	if err != nil {
		return nil, err
	}
	bid, err := s.findOrCreateBid(ctx, invite)
	if err != nil {
		return nil, err
	}
	if bid.IsSubmitted() {
		return nil, ErrBidAlreadySubmitted
	}

	var version *domain.BidSubmissionVersion
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pkg, err := s.packageRepo.WithTx(tx).GetByID(ctx, bid.BidPackageID)
		if err != nil {
			return err
		}
		current, err := s.bidRepo.WithTx(tx).GetByID(ctx, bid.ID)
		if err != nil {
			return err
		}
		lines, err := s.lineRepo.WithTx(tx).ListByBid(ctx, bid.ID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		ok, err := s.bidRepo.WithTx(tx).MarkSubmitted(ctx, bid.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			return ErrBidAlreadySubmitted
		}

		versionRepo := s.versionRepo.WithTx(tx)
		latest, err := versionRepo.MaxVersion(ctx, bid.ID)
		if err != nil {
			return err
		}

		snapshot, err := json.Marshal(BuildSnapshot(lines))
		if err != nil {
			return err
		}

		version = &domain.BidSubmissionVersion{
			BidID:         bid.ID,
			VersionNumber: latest + 1,
			SubmittedAt:   now,
			TotalAmount:   ComputeTotal(lines, current, pkg.ActiveGeneralFields),
			LineItems:     datatypes.JSON(snapshot),
		}
		return versionRepo.Create(ctx, version)
	})
	if err != nil {
		if errors.Is(err, ErrBidAlreadySubmitted) {
			return nil, err
		}
		if isConstraintViolation(err) {
			return nil, fmt.Errorf("%w: concurrent submission of bid %d", ErrConflict, bid.ID)
		}
		return nil, fmt.Errorf("failed to submit bid: %w", err)
	}

	s.logger.Info("Bid submitted",
		zap.Uint("bid_id", bid.ID),
		zap.Uint("package_id", bid.BidPackageID),
		zap.Int("version", version.VersionNumber),
		zap.String("total_amount", version.TotalAmount.String()),
	)

	dto, err := mapper.ToSubmissionVersionDTO(version)
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

// Reopen moves a submitted bid back to draft so the dealer can revise and resubmit.
// The awarded bid cannot be reopened.
func (s *BidService) Reopen(ctx context.Context, bidID uint) (*domain.BidDTO, error) {
	bid, err := s.getBid(ctx, bidID)
	if err != nil {
		return nil, err
	}
	pkg, err := s.packageRepo.GetByID(ctx, bid.BidPackageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get package: %w", err)
	}
	if bid.SelectionStatus == domain.SelectionAwarded || (pkg.AwardedBidID != nil && *pkg.AwardedBidID == bid.ID) {
		return nil, ErrBidAwarded
	}

	ok, err := s.bidRepo.Reopen(ctx, bid.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reopen bid: %w", err)
	}
	if !ok {
		return nil, ErrBidNotSubmitted
	}

	s.logger.Info("Bid reopened", zap.Uint("bid_id", bid.ID))

	bid, err = s.getBid(ctx, bid.ID)
	if err != nil {
		return nil, err
	}
	return s.toDTO(ctx, bid, pkg.ActiveGeneralFields)
}

// Versions lists a bid's submission versions, newest first
func (s *BidService) Versions(ctx context.Context, bidID uint) ([]domain.SubmissionVersionDTO, error) {
	if _, err := s.getBid(ctx, bidID); err != nil {
		return nil, err
	}

	versions, err := s.versionRepo.ListByBid(ctx, bidID)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}

	dtos := make([]domain.SubmissionVersionDTO, 0, len(versions))
	for i := range versions {
		dto, err := mapper.ToSubmissionVersionDTO(&versions[i])
		if err != nil {
			return nil, fmt.Errorf("failed to decode version %d: %w", versions[i].VersionNumber, err)
		}
		dtos = append(dtos, dto)
	}
	return dtos, nil
}

// LatestTotalAmount returns the newest submitted total, or a live estimate for a never-submitted bid
func (s *BidService) LatestTotalAmount(ctx context.Context, bid *domain.Bid) (decimal.Decimal, error) {
	pkg, err := s.packageRepo.GetByID(ctx, bid.BidPackageID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get package: %w", err)
	}
	return latestTotalAmount(ctx, s.versionRepo, s.lineRepo, bid, pkg.ActiveGeneralFields)
}

func (s *BidService) resolveInvite(ctx context.Context, token string) (*domain.Invite, error) {
	invite, err := s.inviteRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("failed to get invite: %w", err)
	}
	if invite.Disabled {
		return nil, ErrInviteDisabled
	}
	if invite.BidPackage == nil {
		pkg, err := s.packageRepo.GetByID(ctx, invite.BidPackageID)
		if err != nil {
			return nil, fmt.Errorf("failed to get package: %w", err)
		}
		invite.BidPackage = pkg
	}
	return invite, nil
}

func (s *BidService) findOrCreateBid(ctx context.Context, invite *domain.Invite) (*domain.Bid, error) {
	bid, err := s.bidRepo.GetByInviteID(ctx, invite.ID)
	if err == nil {
		bid.Invite = invite
		return bid, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to get bid: %w", err)
	}

	bid = &domain.Bid{
		InviteID:        invite.ID,
		BidPackageID:    invite.BidPackageID,
		State:           domain.BidStateDraft,
		SelectionStatus: domain.SelectionPending,
	}
	if err := s.bidRepo.Create(ctx, bid); err != nil {
		if !isConstraintViolation(err) {
			return nil, fmt.Errorf("failed to create bid: %w", err)
		}
		// another request created it first
		bid, err = s.bidRepo.GetByInviteID(ctx, invite.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get bid: %w", err)
		}
	} else {
		s.logger.Info("Bid opened",
			zap.Uint("bid_id", bid.ID),
			zap.Uint("invite_id", invite.ID),
		)
	}
	bid.Invite = invite
	return bid, nil
}

func (s *BidService) getBid(ctx context.Context, bidID uint) (*domain.Bid, error) {
	bid, err := s.bidRepo.GetByID(ctx, bidID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBidNotFound
		}
		return nil, fmt.Errorf("failed to get bid: %w", err)
	}
	return bid, nil
}

func (s *BidService) toDTO(ctx context.Context, bid *domain.Bid, activeFields domain.GeneralPricingFields) (*domain.BidDTO, error) {
	lines, err := s.lineRepo.ListByBid(ctx, bid.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bid lines: %w", err)
	}
	total, err := latestTotalAmount(ctx, s.versionRepo, s.lineRepo, bid, activeFields)
	if err != nil {
		return nil, fmt.Errorf("failed to compute total: %w", err)
	}
	dto := mapper.ToBidDTO(bid, lines, activeFields, total)
	return &dto, nil
}

func nullable(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

// validateGeneralPricing turns the request map into column updates
func validateGeneralPricing(values map[string]decimal.NullDecimal) (map[string]interface{}, []string) {
	updates := make(map[string]interface{}, len(values))
	var messages []string
	for name, amount := range values {
		field := domain.GeneralPricingField(name)
		if !field.IsValid() {
			messages = append(messages, fmt.Sprintf("Unknown general pricing field: %s", name))
			continue
		}
		if amount.Valid && amount.Decimal.IsNegative() {
			messages = append(messages, fmt.Sprintf("General pricing %s must be >= 0", name))
			continue
		}
		updates[domain.GeneralAmountColumn(field)] = amount
	}
	return updates, messages
}

type lineKey struct {
	specItemID     uint
	isSubstitution bool
}

func validateLines(lines []domain.SaveBidLineRequest, activeItems map[uint]domain.SpecItem) []string {
	var messages []string
	seen := make(map[lineKey]bool, len(lines))
	for i, l := range lines {
		n := i + 1
		if _, ok := activeItems[l.SpecItemID]; !ok {
			messages = append(messages, fmt.Sprintf("Line %d: spec item %d is not an active item of this package", n, l.SpecItemID))
		}
		key := lineKey{specItemID: l.SpecItemID, isSubstitution: l.IsSubstitution}
		if seen[key] {
			kind := "basis"
			if l.IsSubstitution {
				kind = "substitution"
			}
			messages = append(messages, fmt.Sprintf("Line %d: duplicate %s line for spec item %d", n, kind, l.SpecItemID))
		}
		seen[key] = true

		if l.UnitPrice != nil && l.UnitPrice.IsNegative() {
			messages = append(messages, fmt.Sprintf("Line %d: unit price must be >= 0", n))
		}
		if l.DiscountPercent != nil && (l.DiscountPercent.IsNegative() || l.DiscountPercent.GreaterThan(hundred)) {
			messages = append(messages, fmt.Sprintf("Line %d: discount percent must be between 0 and 100", n))
		}
		if l.TariffPercent != nil && l.TariffPercent.IsNegative() {
			messages = append(messages, fmt.Sprintf("Line %d: tariff percent must be >= 0", n))
		}
	}
	return messages
}
