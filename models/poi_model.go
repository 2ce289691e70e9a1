package models

// POI is a stored point of interest served by the dev server's search index.
type POI struct {
	ID       string   `json:"id" bson:"_id,omitempty"`
	Name     string   `json:"name" bson:"name"`
	Type     string   `json:"type" bson:"type"`
	Address  string   `json:"address" bson:"address"`
	Location GeoPoint `json:"location" bson:"location"`
	Tags     []string `json:"tags" bson:"tags"`
}

type GeoPoint struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
}
