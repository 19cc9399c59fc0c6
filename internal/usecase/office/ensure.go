package office

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/viewing-scheduler/internal/geo"
	"github.com/BruksfildServices01/viewing-scheduler/internal/httperr"
	"github.com/BruksfildServices01/viewing-scheduler/internal/models"
)

// EnsureOffice creates the named office, or moves it to a new postcode,
// resolving coordinates through the geo lookup. Running it again with the
// same input changes nothing.
type EnsureOffice struct {
	db  *gorm.DB
	geo geo.AddressResolver
	log *zap.Logger
}

func NewEnsureOffice(db *gorm.DB, resolver geo.AddressResolver, log *zap.Logger) *EnsureOffice {
	return &EnsureOffice{db: db, geo: resolver, log: log}
}

func (uc *EnsureOffice) Execute(ctx context.Context, name, postcode string) (*models.Office, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, httperr.Validation("invalid_office_name", "Office name is required.", nil)
	}
	if geo.NormalizePostcode(postcode) == "" {
		return nil, httperr.Validation("invalid_postcode", "Postcode is required.", nil)
	}

	var office models.Office
	err := uc.db.WithContext(ctx).Where("name = ?", name).Take(&office).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		office = models.Office{Name: name}
	case err != nil:
		return nil, httperr.Internal("office_lookup_failed", err)
	case geo.NormalizePostcode(office.Postcode) == geo.NormalizePostcode(postcode):
		return &office, nil
	}

	addr, err := uc.geo.ResolveAddress(ctx, postcode)
	if err != nil {
		return nil, err
	}

	office.Postcode = addr.Postcode
	office.Latitude = addr.Coordinates.Latitude
	office.Longitude = addr.Coordinates.Longitude

	if err := uc.db.WithContext(ctx).Save(&office).Error; err != nil {
		return nil, httperr.Internal("office_save_failed", err)
	}

	uc.log.Info("office saved",
		zap.String("name", office.Name),
		zap.String("postcode", office.Postcode),
		zap.Float64("latitude", office.Latitude),
		zap.Float64("longitude", office.Longitude),
	)
	return &office, nil
}
