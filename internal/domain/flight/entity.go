package flight

import "time"

// Status はフライトの状態を表す
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Flight はフライトエンティティを表す
// AvailableSeats は予約・キャンセルによってのみ増減する可変カウンター
type Flight struct {
	ID             string
	AirlineID      string
	FlightNumber   string
	Origin         string
	Destination    string
	DepartureAt    time.Time
	ArrivalAt      time.Time
	TotalSeats     int
	AvailableSeats int
	Price          int
	Stops          int
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DefaultFlightDuration は到着時刻が不明な外部フライトに適用する飛行時間
const DefaultFlightDuration = 2 * time.Hour

// NewFlight は新しいフライトを作成する
// 空席数は総座席数と同じ値で初期化される
func NewFlight(airlineID, flightNumber, origin, destination string, departureAt, arrivalAt time.Time, totalSeats, price, stops int) *Flight {
	now := time.Now()
	if arrivalAt.IsZero() {
		arrivalAt = departureAt.Add(DefaultFlightDuration)
	}
	return &Flight{
		AirlineID:      airlineID,
		FlightNumber:   flightNumber,
		Origin:         origin,
		Destination:    destination,
		DepartureAt:    departureAt,
		ArrivalAt:      arrivalAt,
		TotalSeats:     totalSeats,
		AvailableSeats: totalSeats,
		Price:          price,
		Stops:          stops,
		Status:         StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// IsActive はフライトが予約可能な状態かを返す
func (f *Flight) IsActive() bool {
	return f.Status == StatusActive
}

// HasAvailableSeats は指定席数を収容できるかを返す
func (f *Flight) HasAvailableSeats(count int) bool {
	return f.AvailableSeats >= count
}

// Validate はフライトの検証を行う
func (f *Flight) Validate() error {
	if f.FlightNumber == "" {
		return ErrFlightNumberRequired
	}
	if f.Origin == "" {
		return ErrOriginRequired
	}
	if f.Destination == "" {
		return ErrDestinationRequired
	}
	if f.TotalSeats <= 0 {
		return ErrInvalidTotalSeats
	}
	if f.AvailableSeats < 0 || f.AvailableSeats > f.TotalSeats {
		return ErrInvalidAvailableSeats
	}
	if f.Price < 0 {
		return ErrInvalidPrice
	}
	return nil
}
