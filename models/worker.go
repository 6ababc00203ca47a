package models

// Worker is an approved service worker profile.
type Worker struct {
	ID            int64           `bson:"_id" json:"id"`
	UserID        int64           `bson:"userId" json:"user_id"`
	Name          string          `bson:"name" json:"name"`
	Location      *GeoPoint       `bson:"location,omitempty" json:"location,omitempty"`
	IsAvailable   bool            `bson:"isAvailable" json:"is_available"`
	AverageRating float64         `bson:"averageRating" json:"average_rating"`
	TotalReviews  int             `bson:"totalReviews" json:"total_reviews"`
	Services      []WorkerService `bson:"services,omitempty" json:"services,omitempty"`
}

// WorkerService is the price a worker charges for one service. (worker, service) is unique.
type WorkerService struct {
	WorkerID  int64   `bson:"workerId" json:"worker_id"`
	ServiceID int64   `bson:"serviceId" json:"service_id"`
	Charge    float64 `bson:"charge" json:"charge"`
}

// Service is a category of work with a base cost.
type Service struct {
	ID          int64   `bson:"_id" json:"id"`
	ServiceType string  `bson:"serviceType" json:"service_type"`
	BaseCost    float64 `bson:"baseCost" json:"base_cost"`
}
