package domain

// RestaurantRecord is one row of the gisdata reference table. The scraped
// dataset carries no surrogate id; the title is the identity key.
type RestaurantRecord struct {
	Title            string
	Price            *string
	CategoryName     string
	Address          string
	Neighborhood     string
	Street           string
	City             string
	State            string
	CountryCode      string
	Phone            *string
	PhoneUnformatted *string
	Latitude         float64
	Longitude        float64
	PlusCode         string
	TotalScore       *float64
	ImageURL         string
}

func (r RestaurantRecord) Coords() Coords {
	return Coords{Lng: r.Longitude, Lat: r.Latitude}
}

// Coords is a WGS 84 position, longitude first (GeoJSON order).
type Coords struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// Route is a driving path returned by the directions provider.
type Route struct {
	Geometry       []Coords
	DistanceMeters float64
}
