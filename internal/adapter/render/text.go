package render

import (
	"fmt"
	"strings"

	"github.com/rl1809/accommodator/internal/core/domain"
	"github.com/rl1809/accommodator/internal/core/service"
)

const Description = `This is the Accommodation Recommendation Bot, a bot that helps you find and reserve accommodations.
Use the /search command to find available accommodations, and the /help command to see a list of available commands.`

const Commands = `Available commands:

/start - Start the bot
/help - Show this list of commands
/search - Search for available accommodations and reserve
/cancel - Cancel your ongoing reservation
/reservations - Check your reservations`

const (
	datesExample   = "(e.g., 2022-12-24 2022-12-25)"
	restartHint    = "Use the /search command to find another one."
	failureMessage = "An error occurred. Please try again by using the /search command or /help for more information."
)

// Text renders a reply as a plain text chat message.
func Text(r service.Reply) string {
	switch r.Kind {
	case service.ReplyWelcome:
		return fmt.Sprintf("Hello %s, Welcome to the Accommodator Bot!\n%s\n\n%s", r.DisplayName, Description, Commands)
	case service.ReplyHelp:
		return Commands
	case service.ReplyReservations:
		return reservations(r.Reservations)
	case service.ReplyCatalog:
		return Catalog(r.Units)
	case service.ReplyInvalidUnit:
		return "Please provide a valid id for the accommodation you want to select."
	case service.ReplyAskDates:
		return "Please provide the dates for your reservation " + datesExample + "."
	case service.ReplyInvalidDates:
		return "Please provide valid dates for your reservation " + datesExample + "."
	case service.ReplyConfirmPrompt:
		return confirmPrompt(r)
	case service.ReplyConfirmed:
		return "Your reservation has been confirmed."
	case service.ReplyRejected:
		return rejection(r.Code)
	case service.ReplyDeclined:
		return "Your reservation has been cancelled."
	case service.ReplyCancelled:
		return "The reservation process has been cancelled."
	case service.ReplyNotInFlow:
		return "You are not currently making a reservation. Use the /search command to get started."
	default:
		return failureMessage
	}
}

// Catalog lists units as a table followed by the selection prompt.
func Catalog(units []domain.Unit) string {
	if len(units) == 0 {
		return "There are no accommodations available right now. Use /cancel to stop, or /search to look again later."
	}

	var b strings.Builder
	b.WriteString("Here are the available accommodations:\n\n")
	b.WriteString("| Id | Hotel name (Location) | Price per night | max guests |\n")
	for _, u := range units {
		fmt.Fprintf(&b, "| %d | %s (%s) | $%d per night | max guests: %d |\n",
			u.ID, u.Name, u.Location, u.PricePerNight, u.Capacity)
	}
	b.WriteString("\nReply with the id of the accommodation you want to select.")
	return b.String()
}

func confirmPrompt(r service.Reply) string {
	if r.Pending == nil {
		return failureMessage
	}
	name := "accommodation"
	if r.Unit != nil {
		name = r.Unit.Name
	}
	return fmt.Sprintf("You have reserved the %s from %s to %s. Is this correct? (yes/no)",
		name, r.Pending.Dates.Start, r.Pending.Dates.End)
}

func rejection(code string) string {
	switch code {
	case "NO_CAPACITY":
		return "Sorry, this accommodation has no capacity left. " + restartHint
	case "DATE_CONFLICT":
		return "Sorry, this accommodation is already reserved for some of those dates. " + restartHint
	case "UNIT_NOT_FOUND":
		return "Sorry, this accommodation is no longer listed. " + restartHint
	default:
		return failureMessage
	}
}

func reservations(views []domain.ReservationView) string {
	if len(views) == 0 {
		return "You have no reservations."
	}

	var b strings.Builder
	b.WriteString("Your reservations:\n\n")
	for _, v := range views {
		fmt.Fprintf(&b, "%s - from %s to %s\n", v.UnitName, v.Dates.Start, v.Dates.End)
	}
	return strings.TrimRight(b.String(), "\n")
}
