package mapview

import (
	"fmt"
	"strconv"

	"foodfinder/internal/domain"
)

// GeoJSON fragments the thin client hands to the mapping SDK verbatim.

type PointGeometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"` // [lng, lat]
}

type LineGeometry struct {
	Type        string       `json:"type"`
	Coordinates [][2]float64 `json:"coordinates"`
}

type FeatureProps struct {
	Title            string   `json:"title"`
	Price            *string  `json:"price"`
	CategoryName     string   `json:"categoryName"`
	Address          string   `json:"address"`
	Neighborhood     string   `json:"neighborhood"`
	Street           string   `json:"street"`
	City             string   `json:"city"`
	State            string   `json:"state"`
	CountryCode      string   `json:"countryCode"`
	Phone            *string  `json:"phone"`
	PhoneUnformatted *string  `json:"phoneUnformatted"`
	PlusCode         string   `json:"plusCode"`
	TotalScore       *float64 `json:"totalScore"`
	ImageURL         string   `json:"imageUrl"`
}

type Feature struct {
	Type       string        `json:"type"`
	Geometry   PointGeometry `json:"geometry"`
	Properties FeatureProps  `json:"properties"`
}

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

func collectionFrom(recs []domain.RestaurantRecord) FeatureCollection {
	fc := FeatureCollection{Type: "FeatureCollection", Features: make([]Feature, 0, len(recs))}
	for _, r := range recs {
		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			Geometry: PointGeometry{
				Type:        "Point",
				Coordinates: [2]float64{r.Longitude, r.Latitude},
			},
			Properties: FeatureProps{
				Title:            r.Title,
				Price:            r.Price,
				CategoryName:     r.CategoryName,
				Address:          r.Address,
				Neighborhood:     r.Neighborhood,
				Street:           r.Street,
				City:             r.City,
				State:            r.State,
				CountryCode:      r.CountryCode,
				Phone:            r.Phone,
				PhoneUnformatted: r.PhoneUnformatted,
				PlusCode:         r.PlusCode,
				TotalScore:       r.TotalScore,
				ImageURL:         r.ImageURL,
			},
		})
	}
	return fc
}

func lineFrom(route domain.Route) *LineGeometry {
	coords := make([][2]float64, 0, len(route.Geometry))
	for _, c := range route.Geometry {
		coords = append(coords, [2]float64{c.Lng, c.Lat})
	}
	return &LineGeometry{Type: "LineString", Coordinates: coords}
}

const notAvailable = "Not available"

// RestaurantDetail is the sidebar payload; missing optionals surface as a
// placeholder, never as an error.
type RestaurantDetail struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	Rating   string `json:"rating"`
	ImageURL string `json:"imageUrl,omitempty"`
}

func detailFrom(r domain.RestaurantRecord) *RestaurantDetail {
	title := r.Title
	if title == "" {
		// rows loaded outside the ingestor can miss a title
		title = fmt.Sprintf("Unknown location. Lat:%v Long:%v", r.Latitude, r.Longitude)
	}
	d := &RestaurantDetail{
		Title:    title,
		Category: orNA(r.CategoryName),
		Address:  orNA(r.Address),
		Phone:    notAvailable,
		Rating:   notAvailable,
		ImageURL: r.ImageURL,
	}
	if r.Phone != nil && *r.Phone != "" {
		d.Phone = *r.Phone
	}
	if r.TotalScore != nil {
		d.Rating = trimFloat(*r.TotalScore)
	}
	return d
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
