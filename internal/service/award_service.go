package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/straye-as/procurement-api/internal/comparison"
	"github.com/straye-as/procurement-api/internal/domain"
	"github.com/straye-as/procurement-api/internal/mapper"
	"github.com/straye-as/procurement-api/internal/pricing"
	"github.com/straye-as/procurement-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AwardService moves a package between unawarded and awarded states. Every
// transition and its audit event are written in one transaction.
type AwardService struct {
	packageRepo *repository.BidPackageRepository
	bidRepo     *repository.BidRepository
	lineRepo    *repository.BidLineItemRepository
	versionRepo *repository.SubmissionVersionRepository
	eventRepo   *repository.AwardEventRepository
	logger      *zap.Logger
	db          *gorm.DB
}

func NewAwardService(
	packageRepo *repository.BidPackageRepository,
	bidRepo *repository.BidRepository,
	lineRepo *repository.BidLineItemRepository,
	versionRepo *repository.SubmissionVersionRepository,
	eventRepo *repository.AwardEventRepository,
	logger *zap.Logger,
	db *gorm.DB,
) *AwardService {
	return &AwardService{
		packageRepo: packageRepo,
		bidRepo:     bidRepo,
		lineRepo:    lineRepo,
		versionRepo: versionRepo,
		eventRepo:   eventRepo,
		logger:      logger,
		db:          db,
	}
}

// Award awards an unawarded package to a submitted bid
func (s *AwardService) Award(ctx context.Context, packageID uint, req *domain.AwardRequest) (*domain.AwardOutcomeDTO, error) {
	return s.transition(ctx, packageID, domain.AwardEventAward, req)
}

// Reaward moves an existing award to a different submitted bid
func (s *AwardService) Reaward(ctx context.Context, packageID uint, req *domain.AwardRequest) (*domain.AwardOutcomeDTO, error) {
	return s.transition(ctx, packageID, domain.AwardEventReaward, req)
}

// ClearAward returns an awarded package to the unawarded state
func (s *AwardService) ClearAward(ctx context.Context, packageID uint, req *domain.AwardRequest) (*domain.AwardOutcomeDTO, error) {
	return s.transition(ctx, packageID, domain.AwardEventUnaward, req)
}

// Events returns the package's award trail, newest first
func (s *AwardService) Events(ctx context.Context, packageID uint) ([]domain.AwardEventDTO, error) {
	if _, err := s.packageRepo.GetByID(ctx, packageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, fmt.Errorf("failed to get package: %w", err)
	}

	events, err := s.eventRepo.ListByPackage(ctx, packageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list award events: %w", err)
	}
	return mapper.ToAwardEventDTOs(events), nil
}

func (s *AwardService) transition(ctx context.Context, packageID uint, eventType domain.AwardEventType, req *domain.AwardRequest) (*domain.AwardOutcomeDTO, error) {
	if req.AwardedBy == "" {
		return nil, newAwardError(AwardErrInvalidRecord, "awardedBy is required")
	}

	snapshot := comparison.NormalizeSnapshot(req.ExcludedSpecItemIDs, req.CellPriceModeOverrides)

	var pkg *domain.BidPackage
	var event *domain.BidAwardEvent
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		packageRepo := s.packageRepo.WithTx(tx)
		bidRepo := s.bidRepo.WithTx(tx)

		var err error
		pkg, err = packageRepo.GetByID(ctx, packageID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPackageNotFound
			}
			return err
		}

		var target *domain.Bid
		var fromBidID *uint
		switch eventType {
		case domain.AwardEventAward, domain.AwardEventReaward:
			target, err = s.checkTarget(ctx, bidRepo, pkg, eventType, req.BidID)
			if err != nil {
				return err
			}
			fromBidID = pkg.AwardedBidID
		case domain.AwardEventUnaward:
			if pkg.AwardedBidID == nil {
				return newAwardError(AwardErrNoExisting, "package has no awarded bid")
			}
			target, err = bidRepo.GetByID(ctx, *pkg.AwardedBidID)
			if err != nil {
				return err
			}
			fromBidID = pkg.AwardedBidID
		}

		amount, err := s.resolveAmount(ctx, tx, pkg, target, req.AwardedAmountOverride)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if eventType == domain.AwardEventUnaward {
			if err := bidRepo.SetSelectionStatusForPackage(ctx, pkg.ID, domain.SelectionPending); err != nil {
				return err
			}
			if err := packageRepo.SetAward(ctx, pkg.ID, nil, nil); err != nil {
				return err
			}
		} else {
			if err := bidRepo.SetSelectionStatusForPackage(ctx, pkg.ID, domain.SelectionNotSelected); err != nil {
				return err
			}
			if err := bidRepo.SetSelectionStatus(ctx, target.ID, domain.SelectionAwarded); err != nil {
				return err
			}
			if err := packageRepo.SetAward(ctx, pkg.ID, &target.ID, &now); err != nil {
				return err
			}
		}

		event = &domain.BidAwardEvent{
			BidPackageID:          pkg.ID,
			EventType:             eventType,
			FromBidID:             fromBidID,
			ToBidID:               target.ID,
			AwardedAmountSnapshot: amount,
			AwardedBy:             req.AwardedBy,
			Note:                  req.Note,
			AwardedAt:             now,
			ComparisonSnapshot:    datatypes.JSON(snapshot.JSON()),
		}
		if err := s.eventRepo.WithTx(tx).Create(ctx, event); err != nil {
			return err
		}

		pkg, err = packageRepo.GetByID(ctx, pkg.ID)
		return err
	})
	if err != nil {
		var awardErr *AwardError
		switch {
		case errors.As(err, &awardErr), errors.Is(err, ErrPackageNotFound):
			return nil, err
		case isConstraintViolation(err):
			return nil, newAwardError(AwardErrInvalidRecord, err.Error())
		default:
			return nil, fmt.Errorf("award transition failed: %w", err)
		}
	}

	s.logger.Info("Package award changed",
		zap.Uint("package_id", packageID),
		zap.String("event_type", string(eventType)),
		zap.Uint("to_bid_id", event.ToBidID),
		zap.String("amount", event.AwardedAmountSnapshot.String()),
		zap.String("awarded_by", event.AwardedBy),
	)

	return &domain.AwardOutcomeDTO{
		Package: mapper.ToBidPackageDTO(pkg),
		Event:   mapper.ToAwardEventDTO(event),
	}, nil
}

// checkTarget validates the bid an award or reaward points at
func (s *AwardService) checkTarget(ctx context.Context, bidRepo *repository.BidRepository, pkg *domain.BidPackage, eventType domain.AwardEventType, bidID uint) (*domain.Bid, error) {
	bid, err := bidRepo.GetByID(ctx, bidID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newAwardError(AwardErrInvalidBid, fmt.Sprintf("bid %d does not belong to this package", bidID))
		}
		return nil, err
	}
	if bid.BidPackageID != pkg.ID {
		return nil, newAwardError(AwardErrInvalidBid, fmt.Sprintf("bid %d does not belong to this package", bidID))
	}
	if !bid.IsSubmitted() {
		return nil, newAwardError(AwardErrInvalidBidState, fmt.Sprintf("bid %d has not been submitted", bidID))
	}

	current := pkg.AwardedBidID
	if current != nil && *current == bid.ID {
		return nil, newAwardError(AwardErrSameBid, fmt.Sprintf("bid %d is already awarded", bidID))
	}
	if eventType == domain.AwardEventAward && current != nil {
		return nil, newAwardError(AwardErrAlreadyAwarded, "package is already awarded; use reaward to change the awarded bid")
	}
	if eventType == domain.AwardEventReaward && current == nil {
		return nil, newAwardError(AwardErrNoExisting, "package has no awarded bid to replace")
	}
	return bid, nil
}

// resolveAmount uses the override when given, else the bid's latest total, rounded to cents
func (s *AwardService) resolveAmount(ctx context.Context, tx *gorm.DB, pkg *domain.BidPackage, bid *domain.Bid, override *decimal.Decimal) (decimal.Decimal, error) {
	if override != nil {
		return pricing.Round2(*override), nil
	}
	total, err := latestTotalAmount(ctx, s.versionRepo.WithTx(tx), s.lineRepo.WithTx(tx), bid, pkg.ActiveGeneralFields)
	if err != nil {
		return decimal.Zero, err
	}
	return pricing.Round2(total), nil
}
