package models

import (
	"time"
)

// ReadingPoint is one entry of a consumption history series, kept in
// chronological (ascending) order for chart consumption.
type ReadingPoint struct {
	Date        string  `json:"date" bson:"date"`
	Reading     float64 `json:"reading" bson:"reading"`
	Consumption float64 `json:"consumption" bson:"consumption"`
}

// MeterData is the normalized internal shape of a registry record. It is
// always fully populated: the resolver applies every fallback so downstream
// code never sees a missing required field.
type MeterData struct {
	Serial          string         `json:"serial"`
	Account         string         `json:"account"`
	Address         string         `json:"address"`
	Reading         float64        `json:"reading"`
	LastUpdate      string         `json:"last_update"`
	Status          MeterStatus    `json:"status"`
	LastConsumption float64        `json:"last_consumption"`
	Coverage        Coverage       `json:"coverage"`
	Freshness       Freshness      `json:"freshness"`
	History         []ReadingPoint `json:"history"`
	HistorySource   HistorySource  `json:"history_source"`

	// Extended registry fields, informational only.
	Consumer       string  `json:"consumer,omitempty"`
	DeviceEUI      string  `json:"device_eui,omitempty"`
	DeviceType     string  `json:"device_type,omitempty"`
	ResourceType   string  `json:"resource_type,omitempty"`
	JoinDate       string  `json:"join_date,omitempty"`
	InitialReading float64 `json:"initial_reading,omitempty"`
	CheckDate      string  `json:"check_date,omitempty"`
}

// SavedMeter is a cabinet attachment: one meter a user follows. The pair
// (UserID, Serial) must stay unique; attach is not an upsert.
type SavedMeter struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	UserID    string    `json:"user_id" bson:"userId"`
	Serial    string    `json:"serial" bson:"serial"`
	Account   string    `json:"account" bson:"account"`
	Address   string    `json:"address" bson:"address"`
	CreatedAt time.Time `json:"created_at" bson:"createdAt"`

	// Snapshot of the meter at attach time, for list views only.
	LastReading float64     `json:"last_reading,omitempty" bson:"lastReading,omitempty"`
	LastUpdate  string      `json:"last_update,omitempty" bson:"lastUpdate,omitempty"`
	Status      MeterStatus `json:"status,omitempty" bson:"status,omitempty"`
}

// ServiceRequest is a user-filed support ticket. Created with status new,
// mutated only through the status state machine, never deleted.
type ServiceRequest struct {
	ID          string        `json:"id" bson:"_id,omitempty"`
	UserID      string        `json:"user_id" bson:"userId"`
	UserPhone   string        `json:"user_phone" bson:"userPhone"`
	Type        RequestType   `json:"type" bson:"type"`
	Status      RequestStatus `json:"status" bson:"status"`
	Details     string        `json:"details" bson:"details"`
	CreatedAt   time.Time     `json:"created_at" bson:"createdAt"`
	MeterSerial string        `json:"meter_serial,omitempty" bson:"meterSerial,omitempty"`
	PhotoURL    string        `json:"photo_url,omitempty" bson:"photoUrl,omitempty"`
	PhotoObject string        `json:"-" bson:"photoObject,omitempty"`
	Reading     float64       `json:"reading,omitempty" bson:"reading,omitempty"`
}

// User is a portal visitor identified (not authenticated) by phone number.
// The document id is the normalized digit string, so login is idempotent.
type User struct {
	ID        string    `json:"id" bson:"_id"`
	Phone     string    `json:"phone" bson:"phone"`
	CreatedAt time.Time `json:"created_at" bson:"createdAt"`
	LastLogin time.Time `json:"last_login" bson:"lastLogin"`
	IsAdmin   bool      `json:"is_admin" bson:"isAdmin"`
}

// UserStat is the admin listing row: a user plus their attached meters.
type UserStat struct {
	User       `bson:",inline"`
	MeterCount int          `json:"meter_count"`
	Meters     []SavedMeter `json:"meters"`
}

// SearchLog is a best-effort audit record of lookup outcomes.
type SearchLog struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	Type      string    `json:"type" bson:"type"` // "search" or "not_found"
	Value     string    `json:"value" bson:"value"`
	Result    string    `json:"result" bson:"result"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// RecentSearch is one entry of the per-user recent lookups cache.
type RecentSearch struct {
	Value string     `json:"value"`
	Kind  SearchKind `json:"kind"`
	Date  time.Time  `json:"date"`
	Found bool       `json:"found"`
}

// Session remembers the raw phone a user logged in with so a later launch
// can silently restore the login. Identification only, not authentication.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}
