package models

import (
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"
	"gorm.io/gorm"
)

// Location is an address owned by a user, optionally pinned to a point.
type Location struct {
	gorm.Model
	UserID     uint   `gorm:"not null;index" json:"user_id"`
	Country    string `gorm:"size:100;not null" json:"country"`
	County     string `gorm:"size:100;not null" json:"county"`
	Town       string `gorm:"size:100;not null" json:"town"`
	PostalCode string `gorm:"size:20" json:"postal_code"`

	// Point (SRID 4326) encoded as WKB.
	Geometry []byte `json:"-"`
}

// GeoJSON decodes the stored WKB point. It returns "" when no point is set.
func (l Location) GeoJSON() (string, error) {
	if len(l.Geometry) == 0 {
		return "", nil
	}
	g, err := wkb.Unmarshal(l.Geometry)
	if err != nil {
		return "", err
	}
	b, err := geojson.Marshal(g)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
