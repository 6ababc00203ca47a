package models

// Offering is one raw candidate row: an available, located worker joined to
// one service it offers. ServiceID is nil for workers that offer nothing.
type Offering struct {
	WorkerID    int64    `bson:"workerId" json:"worker_id"`
	WorkerName  string   `bson:"workerName" json:"worker_name"`
	ServiceID   *int64   `bson:"serviceId,omitempty" json:"service_id,omitempty"`
	ServiceName string   `bson:"serviceName" json:"service_name"`
	WorkerLat   float64  `bson:"workerLat" json:"worker_lat"`
	WorkerLon   float64  `bson:"workerLon" json:"worker_lon"`
	NumBookings int      `bson:"numBookings" json:"num_bookings"`
	TotalRating *float64 `bson:"totalRating,omitempty" json:"total_rating,omitempty"`
	Charge      *float64 `bson:"charge,omitempty" json:"charge,omitempty"`
	IsAvailable bool     `bson:"isAvailable" json:"is_available"`
}

// InteractionRow is one (user, worker, service) triple from booking history.
type InteractionRow struct {
	UserID      int64    `bson:"userId" json:"user_id"`
	WorkerID    int64    `bson:"workerId" json:"worker_id"`
	ServiceID   *int64   `bson:"serviceId,omitempty" json:"service_id,omitempty"`
	WorkerLat   float64  `bson:"workerLat" json:"worker_lat"`
	WorkerLon   float64  `bson:"workerLon" json:"worker_lon"`
	Charge      *float64 `bson:"charge,omitempty" json:"charge,omitempty"`
	NumBookings *int     `bson:"numBookings,omitempty" json:"num_bookings,omitempty"`
	TotalRating *float64 `bson:"totalRating,omitempty" json:"total_rating,omitempty"`
}

// UserLocation is one entry of the user location index.
type UserLocation struct {
	UserID int64   `bson:"_id" json:"user_id"`
	Lat    float64 `bson:"lat" json:"lat"`
	Lon    float64 `bson:"lon" json:"lon"`
}

// CandidateRow is a feature-enriched (worker, service) pair. It lives for one
// request only.
type CandidateRow struct {
	WorkerID            int64
	WorkerName          string
	ServiceID           *int64
	ServiceName         string
	WorkerLat           float64
	WorkerLon           float64
	Charge              float64
	NumBookings         float64
	TotalRating         float64
	IsAvailable         bool
	DistanceKm          float64
	DistanceBucket      int
	ServiceMatch        int
	WorkerAvgRating     float64
	WorkerTotalBookings float64
	UserAvgRating       float64
	Score               float64
}

// Recommendation is one ranked worker as returned to callers.
type Recommendation struct {
	WorkerID     int64   `json:"worker_id"`
	WorkerName   string  `json:"worker_name"`
	ServiceName  string  `json:"service_name"`
	WorkerLat    float64 `json:"worker_lat"`
	WorkerLon    float64 `json:"worker_lon"`
	Charge       float64 `json:"charge"`
	NumBookings  float64 `json:"num_bookings"`
	TotalRating  float64 `json:"total_rating"`
	IsAvailable  bool    `json:"is_available"`
	DistanceKm   float64 `json:"distance_km"`
	ServiceMatch int     `json:"service_match"`
	Score        float64 `json:"score"`
}

// RecommendationResponse is the payload of GET /api/recommendations/:userID.
type RecommendationResponse struct {
	UserID          int64            `json:"user_id"`
	Ranker          string           `json:"ranker"`
	Recommendations []Recommendation `json:"recommendations"`
	RepeatWorkerID  *int64           `json:"repeat_worker_id,omitempty"`
}
