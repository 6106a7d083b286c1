// Package testutil provides an in-memory database and fixtures for package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/straye-as/procurement-api/internal/database"
	"github.com/straye-as/procurement-api/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a private in-memory SQLite database with the full schema.
// The pool is pinned to one connection so every query sees the same database.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err, "failed to open test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// CreateTestProject creates a project
func CreateTestProject(t *testing.T, db *gorm.DB, name string) *domain.Project {
	t.Helper()
	project := &domain.Project{Name: name}
	require.NoError(t, db.Omit(clause.Associations).Create(project).Error)
	return project
}

// CreateTestPackage creates a private bid package with the given active general fields
func CreateTestPackage(t *testing.T, db *gorm.DB, projectID uint, fields ...domain.GeneralPricingField) *domain.BidPackage {
	t.Helper()
	pkg := &domain.BidPackage{
		ProjectID:           projectID,
		Name:                "Furniture",
		Visibility:          domain.PackageVisibilityPrivate,
		ActiveGeneralFields: domain.GeneralPricingFields(fields),
	}
	require.NoError(t, db.Omit(clause.Associations).Create(pkg).Error)
	return pkg
}

// CreateTestSpecItem creates an active spec item
func CreateTestSpecItem(t *testing.T, db *gorm.DB, packageID uint, externalID, quantity string) *domain.SpecItem {
	t.Helper()
	item := &domain.SpecItem{
		BidPackageID: packageID,
		ExternalID:   externalID,
		Category:     "Seating",
		Manufacturer: "Herman Miller",
		ProductName:  "Chair " + externalID,
		SKU:          "SKU-" + externalID,
		Quantity:     decimal.RequireFromString(quantity),
		UOM:          "EA",
		Active:       true,
	}
	require.NoError(t, db.Omit(clause.Associations).Create(item).Error)
	return item
}

// CreateTestInvite creates an enabled invite. The digest is not a real bcrypt hash.
func CreateTestInvite(t *testing.T, db *gorm.DB, packageID uint, dealerName, token string) *domain.Invite {
	t.Helper()
	invite := &domain.Invite{
		BidPackageID:   packageID,
		DealerName:     dealerName,
		DealerEmail:    "dealer@example.com",
		PasswordDigest: "not-a-digest",
		Token:          token,
	}
	require.NoError(t, db.Omit(clause.Associations).Create(invite).Error)
	return invite
}

// CreateTestBid creates a bid for an invite in the given state
func CreateTestBid(t *testing.T, db *gorm.DB, invite *domain.Invite, state domain.BidState) *domain.Bid {
	t.Helper()
	bid := &domain.Bid{
		InviteID:        invite.ID,
		BidPackageID:    invite.BidPackageID,
		State:           state,
		SelectionStatus: domain.SelectionPending,
	}
	if state == domain.BidStateSubmitted {
		now := time.Now().UTC()
		bid.SubmittedAt = &now
	}
	require.NoError(t, db.Omit(clause.Associations).Create(bid).Error)
	return bid
}

// CreateTestLine creates a ledger line; an empty price leaves the unit price null
func CreateTestLine(t *testing.T, db *gorm.DB, bidID, specItemID uint, substitution bool, unitPrice string) *domain.BidLineItem {
	t.Helper()
	line := &domain.BidLineItem{
		BidID:          bidID,
		SpecItemID:     specItemID,
		IsSubstitution: substitution,
	}
	if unitPrice != "" {
		line.UnitPrice = decimal.NewNullDecimal(decimal.RequireFromString(unitPrice))
	}
	require.NoError(t, db.Omit(clause.Associations).Create(line).Error)
	return line
}
