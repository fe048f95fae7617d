package handler

import (
	"context"

	"github.com/sanosuguru/go-flight-reservation/internal/application"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/booking"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/user"
)

// BookingServiceInterface は予約サービスのインターフェース
type BookingServiceInterface interface {
	Book(ctx context.Context, input application.BookInput) (*booking.Reservation, error)
	Cancel(ctx context.Context, reservationID string) error
	GetReservation(ctx context.Context, id string) (*booking.Reservation, error)
	ListActiveReservations(ctx context.Context, userID string) ([]*booking.ItineraryEntry, error)
}

// FlightServiceInterface はフライトサービスのインターフェース
type FlightServiceInterface interface {
	SearchFlights(ctx context.Context, input application.SearchFlightsInput) ([]*flight.Flight, error)
	GetFlight(ctx context.Context, id string) (*flight.Flight, error)
	CountAvailableSeats(ctx context.Context, flightID string) (int, error)
	RegisterExternalFlight(ctx context.Context, input application.RegisterFlightInput) (*flight.Flight, error)
	ImportLiveFlights(ctx context.Context) (int, error)
}

// UserServiceInterface はユーザーサービスのインターフェース
type UserServiceInterface interface {
	Register(ctx context.Context, input application.RegisterUserInput) (*user.User, error)
	Login(ctx context.Context, email, password string) (*user.User, error)
	GetUser(ctx context.Context, id string) (*user.User, error)
}
