package models

// HotelRecord lives in the flat CSV hotel store. Name is the natural key,
// matched case- and diacritic-insensitively.
type HotelRecord struct {
	Name           string  `json:"name"`
	Province       string  `json:"province"`
	Price          float64 `json:"price"`
	HotelClass     float64 `json:"hotel_class"`
	LocationRating float64 `json:"location_rating"`
	Description    string  `json:"description,omitempty"`
	Link           string  `json:"link,omitempty"`
	ImageRef       string  `json:"image_ref,omitempty"`
	NearbyPlace    string  `json:"nearby_place,omitempty"`
}

// HotelUpdate carries a partial update; only non-empty (or non-nil numeric)
// fields are merged onto the stored record.
type HotelUpdate struct {
	Province       *string  `json:"province,omitempty"`
	Price          *float64 `json:"price,omitempty"`
	HotelClass     *float64 `json:"hotel_class,omitempty"`
	LocationRating *float64 `json:"location_rating,omitempty"`
	Description    *string  `json:"description,omitempty"`
	Link           *string  `json:"link,omitempty"`
	ImageRef       *string  `json:"image_ref,omitempty"`
	NearbyPlace    *string  `json:"nearby_place,omitempty"`
}
