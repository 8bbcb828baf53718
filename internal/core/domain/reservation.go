package domain

import "time"

type Reservation struct {
	ID        string    `json:"id"`
	UnitID    int64     `json:"unit_id"`
	UserID    int64     `json:"user_id"`
	Dates     DateRange `json:"dates"`
	CreatedAt time.Time `json:"created_at"`
}

// ReservationView is a committed reservation joined with its unit name.
type ReservationView struct {
	Reservation
	UnitName string
}
