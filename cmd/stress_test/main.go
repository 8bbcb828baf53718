package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rl1809/accommodator/internal/adapter/storage"
	"github.com/rl1809/accommodator/internal/core/domain"
	"github.com/rl1809/accommodator/internal/core/service"
)

const (
	unitID        = 1
	unitCapacity  = 10
	totalRequests = 50
	dates         = "2030-06-01 2030-06-05"
)

func main() {
	ctx := context.Background()

	log := logrus.New()
	log.SetOutput(io.Discard)

	store := storage.NewMemoryStore(domain.Unit{
		ID:            unitID,
		Name:          "Stress Cabin",
		Location:      "Nowhere",
		PricePerNight: 100,
		Capacity:      unitCapacity,
	})
	locker := storage.NewMemoryLocker(10 * time.Second)
	bookings := service.NewReservationService(store, store, locker, log)
	engine := service.NewEngine(store, store, storage.NewMemoryStateStore(), locker, bookings, log)

	// Walk every user up to the confirmation prompt for the same dates
	for i := 1; i <= totalRequests; i++ {
		userID := int64(i)
		for _, text := range []string{"/search", fmt.Sprint(unitID), dates} {
			engine.Handle(ctx, domain.Message{UserID: userID, Text: text})
		}
	}

	// Counters
	var confirmed atomic.Int32
	var conflicted atomic.Int32
	var other atomic.Int32

	// Everyone answers yes at once
	var wg sync.WaitGroup
	start := time.Now()

	for i := 1; i <= totalRequests; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()

			reply := engine.Handle(ctx, domain.Message{UserID: userID, Text: "yes"})
			switch {
			case reply.Kind == service.ReplyConfirmed:
				confirmed.Add(1)
			case reply.Kind == service.ReplyRejected && reply.Code == "DATE_CONFLICT":
				conflicted.Add(1)
			default:
				other.Add(1)
			}
		}(int64(i))
	}

	wg.Wait()
	elapsed := time.Since(start)

	// Results
	ok := confirmed.Load()
	conflicts := conflicted.Load()
	unexpected := other.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Unit Capacity:    %d\n", unitCapacity)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Confirmed:        %d\n", ok)
	fmt.Printf("Date Conflicts:   %d\n", conflicts)
	fmt.Printf("Unexpected:       %d\n", unexpected)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if ok == 1 && conflicts == totalRequests-1 {
		fmt.Printf("PASS: Exactly 1 reservation committed, %d rejected\n", totalRequests-1)
	} else {
		fmt.Printf("FAIL: Expected 1 confirmed/%d conflicts, got %d/%d (%d unexpected)\n",
			totalRequests-1, ok, conflicts, unexpected)
	}

	// Verify final capacity
	unit, _ := store.GetUnit(ctx, unitID)
	fmt.Printf("Final Capacity:   %d\n", unit.Capacity)

	if unit.Capacity == unitCapacity-1 {
		fmt.Println("PASS: Capacity decremented exactly once")
	} else {
		fmt.Printf("FAIL: Expected capacity %d, got %d\n", unitCapacity-1, unit.Capacity)
	}
}
