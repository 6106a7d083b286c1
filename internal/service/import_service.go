package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/straye-as/procurement-api/internal/catalog"
	"github.com/straye-as/procurement-api/internal/config"
	"github.com/straye-as/procurement-api/internal/domain"
	"github.com/straye-as/procurement-api/internal/mapper"
	"github.com/straye-as/procurement-api/internal/repository"
	"github.com/straye-as/procurement-api/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultActiveGeneralFields are enabled on packages created by an import
var DefaultActiveGeneralFields = domain.GeneralPricingFields{
	domain.GeneralPricingDelivery,
	domain.GeneralPricingInstall,
	domain.GeneralPricingSalesTax,
}

// ImportService turns normalized CSV catalogs into packages and spec items
type ImportService struct {
	projectRepo  *repository.ProjectRepository
	packageRepo  *repository.BidPackageRepository
	specItemRepo *repository.SpecItemRepository
	batchRepo    *repository.ImportBatchRepository
	storage      storage.Storage
	cfg          config.ImportConfig
	logger       *zap.Logger
	db           *gorm.DB
}

// NewImportService creates an ImportService. store may be nil, which disables source archiving.
func NewImportService(
	projectRepo *repository.ProjectRepository,
	packageRepo *repository.BidPackageRepository,
	specItemRepo *repository.SpecItemRepository,
	batchRepo *repository.ImportBatchRepository,
	store storage.Storage,
	cfg config.ImportConfig,
	logger *zap.Logger,
	db *gorm.DB,
) *ImportService {
	return &ImportService{
		projectRepo:  projectRepo,
		packageRepo:  packageRepo,
		specItemRepo: specItemRepo,
		batchRepo:    batchRepo,
		storage:      store,
		cfg:          cfg,
		logger:       logger,
		db:           db,
	}
}

func (s *ImportService) profileHint(requested string) string {
	if strings.TrimSpace(requested) != "" {
		return requested
	}
	return s.cfg.DefaultProfile
}

// Preview normalizes content without writing anything
func (s *ImportService) Preview(req *domain.PreviewImportRequest) catalog.Result {
	return catalog.Normalize(req.Content, s.profileHint(req.Profile))
}

func (s *ImportService) normalizeForCommit(content, profile string) (catalog.Result, error) {
	result := catalog.Normalize(content, s.profileHint(profile))
	if result.HasErrors() {
		return result, NewValidationError(result.Errors...)
	}
	if len(result.Rows) == 0 {
		return result, NewValidationError("CSV file contains no spec items")
	}
	return result, nil
}

// Commit creates a new bid package in the project from a CSV catalog.
// Nothing is written when the file has any validation error. External ids
// repeated within the file are suffixed (-2, -3, ...).
func (s *ImportService) Commit(ctx context.Context, projectID uint, req *domain.CommitImportRequest) (*domain.ImportResultDTO, error) {
	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	result, err := s.normalizeForCommit(req.Content, req.Profile)
	if err != nil {
		return nil, err
	}

	visibility := req.Visibility
	if visibility == "" {
		visibility = domain.PackageVisibilityPrivate
	}
	pkg := &domain.BidPackage{
		ProjectID:           projectID,
		Name:                req.PackageName,
		Visibility:          visibility,
		ActiveGeneralFields: append(domain.GeneralPricingFields{}, DefaultActiveGeneralFields...),
	}

	renamed := disambiguate(&result, nil)

	var batch *domain.ImportBatch
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.packageRepo.WithTx(tx).Create(ctx, pkg); err != nil {
			return err
		}
		batch, err = s.insertRows(ctx, tx, pkg.ID, req.Filename, req.Content, result)
		return err
	})
	if err != nil {
		return nil, asValidationError(err, "Import failed")
	}

	s.logger.Info("Catalog imported into new package",
		zap.Uint("package_id", pkg.ID),
		zap.Uint("project_id", projectID),
		zap.String("profile", result.Profile),
		zap.Int("rows", len(result.Rows)),
		zap.Int("renamed", len(renamed)),
	)

	dto := &domain.ImportResultDTO{
		Package:       mapper.ToBidPackageDTO(pkg),
		ImportBatchID: batch.ID,
		Profile:       result.Profile,
		ImportedCount: len(result.Rows),
	}
	if len(renamed) > 0 {
		dto.RenamedIDs = renamed
	}
	return dto, nil
}

// Append adds a CSV catalog to an existing package. External ids already used
// in the package are suffixed (-2, -3, ...) instead of rejected.
func (s *ImportService) Append(ctx context.Context, packageID uint, req *domain.AppendImportRequest) (*domain.ImportResultDTO, error) {
	pkg, err := s.packageRepo.GetByID(ctx, packageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, fmt.Errorf("failed to load package: %w", err)
	}

	result, err := s.normalizeForCommit(req.Content, req.Profile)
	if err != nil {
		return nil, err
	}

	var renamed map[string]string
	var batch *domain.ImportBatch
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := s.specItemRepo.WithTx(tx).ExternalIDs(ctx, packageID)
		if err != nil {
			return err
		}

		renamed = disambiguate(&result, taken)

		batch, err = s.insertRows(ctx, tx, packageID, req.Filename, req.Content, result)
		return err
	})
	if err != nil {
		return nil, asValidationError(err, "Import failed")
	}

	s.logger.Info("Catalog appended to package",
		zap.Uint("package_id", packageID),
		zap.String("profile", result.Profile),
		zap.Int("rows", len(result.Rows)),
		zap.Int("renamed", len(renamed)),
	)

	dto := &domain.ImportResultDTO{
		Package:       mapper.ToBidPackageDTO(pkg),
		ImportBatchID: batch.ID,
		Profile:       result.Profile,
		ImportedCount: len(result.Rows),
	}
	if len(renamed) > 0 {
		dto.RenamedIDs = renamed
	}
	return dto, nil
}

// disambiguate suffixes external ids that are taken or repeated in the batch
// and returns the first rename of every original id.
func disambiguate(result *catalog.Result, taken map[string]bool) map[string]string {
	rows := catalog.Disambiguate(result.Rows, taken)
	renamed := map[string]string{}
	for i, row := range rows {
		original := result.Rows[i].SpecItemID
		if _, ok := renamed[original]; !ok && original != row.SpecItemID {
			renamed[original] = row.SpecItemID
		}
	}
	result.Rows = rows
	return renamed
}

// insertRows records the batch and its spec items inside tx. The raw source is
// archived first so the batch can point at it; the archive is removed again if
// the insert fails.
func (s *ImportService) insertRows(ctx context.Context, tx *gorm.DB, packageID uint, filename, content string, result catalog.Result) (*domain.ImportBatch, error) {
	storagePath := s.archive(ctx, packageID, filename, content)

	batch := &domain.ImportBatch{
		BidPackageID: packageID,
		Filename:     filename,
		Profile:      result.Profile,
		RowCount:     len(result.Rows),
		StoragePath:  storagePath,
	}
	if err := s.batchRepo.WithTx(tx).Create(ctx, batch); err != nil {
		s.discardArchive(ctx, storagePath)
		return nil, err
	}

	items := make([]domain.SpecItem, len(result.Rows))
	for i, row := range result.Rows {
		items[i] = domain.SpecItem{
			BidPackageID:  packageID,
			ImportBatchID: &batch.ID,
			ExternalID:    row.SpecItemID,
			Category:      row.Category,
			Manufacturer:  row.Manufacturer,
			ProductName:   row.ProductName,
			SKU:           row.SKU,
			Description:   row.Description,
			Quantity:      row.Quantity,
			UOM:           row.UOM,
			Active:        true,
		}
	}
	if err := s.specItemRepo.WithTx(tx).CreateBatch(ctx, items); err != nil {
		s.discardArchive(ctx, storagePath)
		return nil, err
	}
	return batch, nil
}

func (s *ImportService) archive(ctx context.Context, packageID uint, filename, content string) string {
	if s.storage == nil || !s.cfg.ArchiveSources {
		return ""
	}
	key := storage.ImportSourceKey(packageID, filename)
	if _, err := s.storage.Put(ctx, key, "text/csv", strings.NewReader(content)); err != nil {
		s.logger.Warn("Failed to archive import source",
			zap.Uint("package_id", packageID),
			zap.String("filename", filename),
			zap.Error(err),
		)
		return ""
	}
	return key
}

func (s *ImportService) discardArchive(ctx context.Context, key string) {
	if key == "" || s.storage == nil {
		return
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		s.logger.Warn("Failed to remove archived import source", zap.String("key", key), zap.Error(err))
	}
}

// History lists the import batches of a package
func (s *ImportService) History(ctx context.Context, packageID uint) ([]domain.ImportBatchDTO, error) {
	if _, err := s.packageRepo.GetByID(ctx, packageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, err
	}
	batches, err := s.batchRepo.ListByPackage(ctx, packageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list import batches: %w", err)
	}
	dtos := make([]domain.ImportBatchDTO, len(batches))
	for i := range batches {
		dtos[i] = mapper.ToImportBatchDTO(&batches[i])
	}
	return dtos, nil
}
