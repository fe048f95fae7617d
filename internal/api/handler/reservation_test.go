package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-flight-reservation/internal/application"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/booking"
)

// MockBookingService はBookingServiceInterfaceのモック
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) Book(ctx context.Context, input application.BookInput) (*booking.Reservation, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Reservation), args.Error(1)
}

func (m *MockBookingService) Cancel(ctx context.Context, reservationID string) error {
	args := m.Called(ctx, reservationID)
	return args.Error(0)
}

func (m *MockBookingService) GetReservation(ctx context.Context, id string) (*booking.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Reservation), args.Error(1)
}

func (m *MockBookingService) ListActiveReservations(ctx context.Context, userID string) ([]*booking.ItineraryEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*booking.ItineraryEntry), args.Error(1)
}

func TestReservationHandler_Create(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常に予約を作成できる", func(t *testing.T) {
		mockService := new(MockBookingService)
		now := time.Now()
		expectedReservation := &booking.Reservation{
			ID:        "res-123",
			UserID:    "user-123",
			FlightID:  "flight-123",
			SeatCount: 2,
			Status:    booking.StatusConfirmed,
			CreatedAt: now,
			UpdatedAt: now,
		}

		mockService.On("Book", mock.Anything, application.BookInput{
			UserID: "user-123", FlightID: "flight-123", SeatCount: 2,
		}).Return(expectedReservation, nil)

		handler := NewReservationHandler(mockService)

		reqBody := `{"flight_id": "flight-123", "seat_count": 2}`
		req := httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set("X-User-ID", "user-123")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp ReservationResponse
		err = json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.Equal(t, "res-123", resp.ID)
		assert.Equal(t, "confirmed", resp.Status)

		mockService.AssertExpectations(t)
	})

	t.Run("ユーザーIDがない場合401", func(t *testing.T) {
		mockService := new(MockBookingService)
		handler := NewReservationHandler(mockService)

		reqBody := `{"flight_id": "flight-123", "seat_count": 2}`
		req := httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		// X-User-ID ヘッダーなし
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})

	t.Run("不正なリクエストでエラー", func(t *testing.T) {
		mockService := new(MockBookingService)
		handler := NewReservationHandler(mockService)

		req := httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader("invalid"))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set("X-User-ID", "user-123")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, he.Code)
	})

	t.Run("席数0はバリデーションで弾かれる", func(t *testing.T) {
		mockService := new(MockBookingService)
		handler := NewReservationHandler(mockService)

		reqBody := `{"flight_id": "flight-123", "seat_count": 0}`
		req := httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set("X-User-ID", "user-123")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, he.Code)
		mockService.AssertNotCalled(t, "Book", mock.Anything, mock.Anything)
	})

	t.Run("重複予約は409", func(t *testing.T) {
		mockService := new(MockBookingService)
		mockService.On("Book", mock.Anything, mock.AnythingOfType("application.BookInput")).
			Return(nil, booking.ErrDuplicateReservation)

		handler := NewReservationHandler(mockService)

		reqBody := `{"flight_id": "flight-123", "seat_count": 2}`
		req := httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set("X-User-ID", "user-123")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusConflict, he.Code)
	})

	t.Run("空席不足は409", func(t *testing.T) {
		mockService := new(MockBookingService)
		mockService.On("Book", mock.Anything, mock.AnythingOfType("application.BookInput")).
			Return(nil, booking.ErrInsufficientSeats)

		handler := NewReservationHandler(mockService)

		reqBody := `{"flight_id": "flight-123", "seat_count": 5}`
		req := httptest.NewRequest(http.MethodPost, "/reservations", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set("X-User-ID", "user-123")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusConflict, he.Code)
	})
}

func TestReservationHandler_Cancel(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常にキャンセルできる", func(t *testing.T) {
		mockService := new(MockBookingService)
		mockService.On("Cancel", mock.Anything, "res-123").Return(nil)

		handler := NewReservationHandler(mockService)

		req := httptest.NewRequest(http.MethodPost, "/reservations/res-123/cancel", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("res-123")

		err := handler.Cancel(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("予約が見つからない場合404", func(t *testing.T) {
		mockService := new(MockBookingService)
		mockService.On("Cancel", mock.Anything, "nonexistent").Return(booking.ErrReservationNotFound)

		handler := NewReservationHandler(mockService)

		req := httptest.NewRequest(http.MethodPost, "/reservations/nonexistent/cancel", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("nonexistent")

		err := handler.Cancel(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusNotFound, he.Code)
	})

	t.Run("キャンセル済みの場合409", func(t *testing.T) {
		mockService := new(MockBookingService)
		mockService.On("Cancel", mock.Anything, "res-123").Return(booking.ErrReservationAlreadyCancelled)

		handler := NewReservationHandler(mockService)

		req := httptest.NewRequest(http.MethodPost, "/reservations/res-123/cancel", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("res-123")

		err := handler.Cancel(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusConflict, he.Code)
	})
}

func TestReservationHandler_ListByUser(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常に予約一覧を取得できる", func(t *testing.T) {
		mockService := new(MockBookingService)
		now := time.Now()
		entries := []*booking.ItineraryEntry{
			{ReservationID: "res-1", FlightNumber: "AV-205", AirlineName: "Avianca", Origin: "ボゴタ", Destination: "マドリード", DepartureAt: now, SeatCount: 2, Price: 85000, Status: booking.StatusConfirmed, CreatedAt: now},
			{ReservationID: "res-2", FlightNumber: "IB-6824", AirlineName: "Iberia", Origin: "マドリード", Destination: "ボゴタ", DepartureAt: now, SeatCount: 1, Price: 92000, Status: booking.StatusConfirmed, CreatedAt: now},
		}

		mockService.On("ListActiveReservations", mock.Anything, "user-123").Return(entries, nil)

		handler := NewReservationHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/reservations", nil)
		req.Header.Set("X-User-ID", "user-123")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.ListByUser(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp []ItineraryEntryResponse
		err = json.Unmarshal(rec.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.Len(t, resp, 2)
		assert.Equal(t, "Avianca", resp[0].Airline)

		mockService.AssertExpectations(t)
	})

	t.Run("ユーザーIDがない場合401", func(t *testing.T) {
		mockService := new(MockBookingService)
		handler := NewReservationHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/reservations", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.ListByUser(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})
}

func TestReservationHandler_ExportItinerary(t *testing.T) {
	e := NewTestEcho()

	t.Run("予約一覧をCSVでダウンロードできる", func(t *testing.T) {
		mockService := new(MockBookingService)
		now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
		entries := []*booking.ItineraryEntry{
			{ReservationID: "res-1", FlightNumber: "AV-205", AirlineName: "Avianca", Origin: "ボゴタ", Destination: "マドリード", DepartureAt: now, SeatCount: 2, Price: 85000, Status: booking.StatusConfirmed, CreatedAt: now},
		}
		mockService.On("ListActiveReservations", mock.Anything, "user-123").Return(entries, nil)

		handler := NewReservationHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/reservations/export", nil)
		req.Header.Set("X-User-ID", "user-123")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.ExportItinerary(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/csv")
		assert.Contains(t, rec.Body.String(), "reservation_id")
		assert.Contains(t, rec.Body.String(), "AV-205")
	})
}
