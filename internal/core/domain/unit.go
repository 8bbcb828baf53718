package domain

// Unit is a bookable accommodation. Capacity counts the remaining guest slots
// and only ever goes down, one per committed reservation.
type Unit struct {
	ID            int64
	Name          string
	Location      string
	PricePerNight int
	Capacity      int
}

func (u Unit) Available() bool {
	return u.Capacity > 0
}
