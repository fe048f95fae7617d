// Package export は予約一覧の帳票出力を提供する
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/sanosuguru/go-flight-reservation/internal/domain/booking"
)

// itineraryHeader はCSVの1行目に出力する列名
var itineraryHeader = []string{
	"reservation_id",
	"flight_number",
	"airline",
	"origin",
	"destination",
	"departure_at",
	"seat_count",
	"price",
	"status",
	"booked_at",
}

// WriteItinerary は予約一覧をCSV形式で書き出す
// 価格はセント単位の整数をドル表記に変換して出力する
func WriteItinerary(w io.Writer, entries []*booking.ItineraryEntry) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(itineraryHeader); err != nil {
		return fmt.Errorf("ヘッダーの書き込みに失敗: %w", err)
	}

	for _, e := range entries {
		record := []string{
			e.ReservationID,
			e.FlightNumber,
			e.AirlineName,
			e.Origin,
			e.Destination,
			e.DepartureAt.Format(time.RFC3339),
			strconv.Itoa(e.SeatCount),
			formatPrice(e.Price),
			string(e.Status),
			e.CreatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("行の書き込みに失敗: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatPrice(cents int) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
