package services

import (
	"context"
	"encoding/binary"
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"
	"gorm.io/gorm"

	"user_portal/internal/models"
)

// NewLocation is an address to attach to a user. A point may be given either
// as latitude/longitude or as a GeoJSON Point in Geometry.
type NewLocation struct {
	Country    string   `json:"country"`
	County     string   `json:"county"`
	Town       string   `json:"town"`
	PostalCode string   `json:"postal_code"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	Geometry   string   `json:"geometry"`
}

type LocationService struct {
	db *gorm.DB
}

func NewLocationService(db *gorm.DB) *LocationService {
	return &LocationService{db: db}
}

func (s *LocationService) Add(ctx context.Context, userID uint, in NewLocation) (*models.Location, error) {
	var location *models.Location
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.User{}, userID).Error; err != nil {
			return notFound(err, ErrUserNotFound)
		}
		var err error
		location, err = createLocation(tx, userID, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return location, nil
}

func (s *LocationService) List(ctx context.Context, userID uint) ([]models.Location, error) {
	var locations []models.Location
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&locations).Error
	return locations, err
}

// Delete removes a location owned by the actor; admins may remove any.
func (s *LocationService) Delete(ctx context.Context, actor Actor, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var location models.Location
		if err := tx.First(&location, id).Error; err != nil {
			return notFound(err, ErrLocationNotFound)
		}
		if location.UserID != actor.ID && !actor.IsAdmin() {
			return ErrForbidden
		}
		return tx.Delete(&location).Error
	})
}

func createLocation(tx *gorm.DB, userID uint, in NewLocation) (*models.Location, error) {
	country, err := requireText("country", "Country", in.Country)
	if err != nil {
		return nil, err
	}
	county, err := requireText("county", "County", in.County)
	if err != nil {
		return nil, err
	}
	town, err := requireText("town", "Town", in.Town)
	if err != nil {
		return nil, err
	}
	point, err := pointWKB(in)
	if err != nil {
		return nil, err
	}

	location := models.Location{
		UserID:     userID,
		Country:    country,
		County:     county,
		Town:       town,
		PostalCode: strings.TrimSpace(in.PostalCode),
		Geometry:   point,
	}
	if err := tx.Create(&location).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

// pointWKB encodes the optional point of in as little-endian WKB.
func pointWKB(in NewLocation) ([]byte, error) {
	var g geom.T
	switch {
	case strings.TrimSpace(in.Geometry) != "":
		if err := geojson.Unmarshal([]byte(in.Geometry), &g); err != nil {
			return nil, invalid("geometry", "Geometry must be valid GeoJSON")
		}
		if _, ok := g.(*geom.Point); !ok {
			return nil, invalid("geometry", "Geometry must be a GeoJSON Point")
		}
	case in.Latitude != nil && in.Longitude != nil:
		lat, lng := *in.Latitude, *in.Longitude
		if lat < -90 || lat > 90 {
			return nil, invalid("latitude", "Latitude must be between -90 and 90")
		}
		if lng < -180 || lng > 180 {
			return nil, invalid("longitude", "Longitude must be between -180 and 180")
		}
		g = geom.NewPointFlat(geom.XY, []float64{lng, lat}).SetSRID(4326)
	case in.Latitude != nil || in.Longitude != nil:
		return nil, invalid("latitude", "Latitude and longitude must be given together")
	default:
		return nil, nil
	}
	return wkb.Marshal(g, binary.LittleEndian)
}
