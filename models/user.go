// models/user.go
package models

// User is the read-only view of a marketplace customer.
type User struct {
	ID       int64     `bson:"_id" json:"id"`
	Name     string    `bson:"name" json:"name"`
	Location *GeoPoint `bson:"location,omitempty" json:"location,omitempty"`
}
