package storage

import "github.com/rl1809/accommodator/internal/core/domain"

// SampleUnits is the catalog loaded by the seed command and the memory backend.
func SampleUnits() []domain.Unit {
	return []domain.Unit{
		{ID: 1, Name: "Hotel Miramar", Location: "Lisbon", PricePerNight: 120, Capacity: 4},
		{ID: 2, Name: "Alpine Lodge", Location: "Innsbruck", PricePerNight: 95, Capacity: 2},
		{ID: 3, Name: "Harbour View Inn", Location: "Copenhagen", PricePerNight: 140, Capacity: 2},
		{ID: 4, Name: "Old Town Rooms", Location: "Krakow", PricePerNight: 60, Capacity: 6},
		{ID: 5, Name: "Desert Rose Camp", Location: "Marrakesh", PricePerNight: 80, Capacity: 1},
	}
}
