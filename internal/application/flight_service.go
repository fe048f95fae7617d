package application

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-reservation/internal/domain/airline"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-flight-reservation/internal/infrastructure/opensky"
	redisinfra "github.com/sanosuguru/go-flight-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-flight-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-flight-reservation/internal/pkg/metrics"
)

const seatCacheTTL = 30 * time.Second

// FeedClient は外部フライトフィードのインターフェース
type FeedClient interface {
	FetchStates(ctx context.Context) ([]opensky.LiveFlight, error)
}

// FlightService はフライトカタログを担うサービス
// 外部登録経路は予約の不変条件を経由しない単純な挿入である
type FlightService struct {
	flightRepo  flight.Repository
	airlineRepo airline.Repository
	seatCache   *redisinfra.SeatCache
	feedClient  FeedClient
	importLimit int
}

// NewFlightService は新しいFlightServiceを作成する
// seatCache と feedClient は nil 可
func NewFlightService(fr flight.Repository, ar airline.Repository, sc *redisinfra.SeatCache, fc FeedClient, importLimit int) *FlightService {
	return &FlightService{flightRepo: fr, airlineRepo: ar, seatCache: sc, feedClient: fc, importLimit: importLimit}
}

type SearchFlightsInput struct {
	Origin      string
	Destination string
	Date        *time.Time
}

// SearchFlights は条件に一致するフライトを出発時刻順で返す
func (s *FlightService) SearchFlights(ctx context.Context, input SearchFlightsInput) ([]*flight.Flight, error) {
	return s.flightRepo.Search(ctx, flight.SearchFilter{
		Origin:      strings.TrimSpace(input.Origin),
		Destination: strings.TrimSpace(input.Destination),
		Date:        input.Date,
	})
}

// GetFlight はIDからフライトを取得する
func (s *FlightService) GetFlight(ctx context.Context, id string) (*flight.Flight, error) {
	return s.flightRepo.GetByID(ctx, id)
}

// CountAvailableSeats はフライトの空席数を取得する
// キャッシュ優先、ミス時はDBから読んでキャッシュに保存する
func (s *FlightService) CountAvailableSeats(ctx context.Context, flightID string) (int, error) {
	if s.seatCache != nil {
		count, err := s.seatCache.GetAvailableCount(ctx, flightID)
		if err == nil {
			logger.Debug("キャッシュヒット", zap.String("flight_id", flightID), zap.Int("count", count))
			return count, nil
		}
		if !errors.Is(err, redisinfra.ErrCacheMiss) {
			logger.Warn("キャッシュ取得エラー", zap.Error(err))
		}
	}

	count, err := s.flightRepo.CountAvailableSeats(ctx, flightID)
	if err != nil {
		return 0, err
	}

	if s.seatCache != nil {
		if cacheErr := s.seatCache.SetAvailableCount(ctx, flightID, count, seatCacheTTL); cacheErr != nil {
			logger.Warn("キャッシュ保存エラー", zap.Error(cacheErr))
		}
	}

	return count, nil
}

type RegisterFlightInput struct {
	AirlineName  string
	AirlineCode  string
	FlightNumber string
	Origin       string
	Destination  string
	DepartureAt  time.Time
	ArrivalAt    time.Time
	TotalSeats   int
	Price        int
	Stops        int
}

// RegisterExternalFlight は外部由来のフライトをカタログへ登録する
// 空席数は総座席数で初期化され、航空会社は名前で取得または作成される
func (s *FlightService) RegisterExternalFlight(ctx context.Context, input RegisterFlightInput) (*flight.Flight, error) {
	a, err := s.airlineRepo.GetOrCreate(ctx, input.AirlineName, input.AirlineCode)
	if err != nil {
		return nil, fmt.Errorf("航空会社の取得または作成に失敗: %w", err)
	}

	f := flight.NewFlight(a.ID, input.FlightNumber, input.Origin, input.Destination,
		input.DepartureAt, input.ArrivalAt, input.TotalSeats, input.Price, input.Stops)
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if err := s.flightRepo.Create(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// ImportLiveFlights はフィードから飛行中のフライトを取り込み、登録件数を返す
// ベストエフォートであり、1件の失敗は取り込み全体を止めない
func (s *FlightService) ImportLiveFlights(ctx context.Context) (int, error) {
	if s.feedClient == nil {
		return 0, nil
	}

	states, err := s.feedClient.FetchStates(ctx)
	if err != nil {
		return 0, fmt.Errorf("フィード取得に失敗: %w", err)
	}

	imported := 0
	for _, lf := range states {
		if s.importLimit > 0 && imported >= s.importLimit {
			break
		}
		input := feedFlightInput(lf)
		if _, err := s.RegisterExternalFlight(ctx, input); err != nil {
			logger.Warn("フィードフライトの登録に失敗",
				zap.String("callsign", lf.Callsign), zap.Error(err))
			continue
		}
		imported++
	}

	if m := metrics.Get(); m != nil {
		m.FeedImportedFlightsTotal.Add(float64(imported))
	}
	logger.Info("フィード取り込み完了", zap.Int("imported", imported), zap.Int("fetched", len(states)))
	return imported, nil
}

// feedFlightInput は状態ベクトルを登録入力へ変換する
// 価格と座席数はフィードに含まれないため推定値を使う
func feedFlightInput(lf opensky.LiveFlight) RegisterFlightInput {
	departure := lf.LastContact
	if departure.IsZero() {
		departure = time.Now()
	}
	return RegisterFlightInput{
		AirlineName:  airlineNameForCallsign(lf.Callsign),
		AirlineCode:  airlineCodeForCallsign(lf.Callsign),
		FlightNumber: lf.Callsign,
		Origin:       originOrUnknown(lf.OriginCountry),
		Destination:  destinationForPosition(lf.Latitude, lf.Longitude),
		DepartureAt:  departure,
		TotalSeats:   30 + rand.Intn(51),      // 30〜80席
		Price:        10000 + rand.Intn(90001), // $100.00〜$1000.00
	}
}

// airlineNameForCallsign はコールサインの先頭2文字から航空会社名を推定する
func airlineNameForCallsign(callsign string) string {
	known := map[string]string{
		"AV": "Avianca",
		"AA": "American Airlines",
		"DL": "Delta Airlines",
		"UA": "United Airlines",
		"IB": "Iberia",
		"AF": "Air France",
		"BA": "British Airways",
		"LH": "Lufthansa",
		"EK": "Emirates",
	}
	code := airlineCodeForCallsign(callsign)
	if name, ok := known[code]; ok {
		return name
	}
	return code + " Airways"
}

func airlineCodeForCallsign(callsign string) string {
	if len(callsign) >= 2 {
		return strings.ToUpper(callsign[:2])
	}
	return "XX"
}

func originOrUnknown(country string) string {
	if country == "" {
		return "不明"
	}
	return country
}

// destinationForPosition は現在位置から目的地の国を推定する
func destinationForPosition(lat, lon float64) string {
	if lat == 0 && lon == 0 {
		return "不明"
	}
	switch {
	case lat > 35 && lat < 45 && lon > -10 && lon < 5:
		return "スペイン"
	case lat > 24 && lat < 50 && lon > -125 && lon < -65:
		return "アメリカ"
	case lat > 4 && lat < 14 && lon > -75 && lon < -66:
		return "コロンビア"
	case lat > -35 && lat < 5 && lon > -80 && lon < -65:
		return "ペルー"
	case lat > 50 && lon > 5:
		return "ドイツ"
	case lat > 55 && lon < 40:
		return "ロシア"
	case lat < -10 && lon > 100:
		return "オーストラリア"
	case lat > 10 && lon > 70:
		return "インド"
	}
	return "国際線"
}
