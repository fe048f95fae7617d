package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-flight-reservation/internal/application"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/booking"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-flight-reservation/internal/export"
)

type ReservationHandler struct {
	service BookingServiceInterface
}

func NewReservationHandler(s BookingServiceInterface) *ReservationHandler {
	return &ReservationHandler{service: s}
}

type CreateReservationRequest struct {
	FlightID  string `json:"flight_id" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	SeatCount int    `json:"seat_count" validate:"required,min=1" example:"2"`
}

type ReservationResponse struct {
	ID        string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserID    string    `json:"user_id" example:"user-123"`
	FlightID  string    `json:"flight_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	SeatCount int       `json:"seat_count" example:"2"`
	Status    string    `json:"status" example:"confirmed"`
	CreatedAt time.Time `json:"created_at"`
}

func toReservationResponse(r *booking.Reservation) ReservationResponse {
	return ReservationResponse{
		ID: r.ID, UserID: r.UserID, FlightID: r.FlightID,
		SeatCount: r.SeatCount, Status: string(r.Status),
		CreatedAt: r.CreatedAt,
	}
}

type ItineraryEntryResponse struct {
	ReservationID string    `json:"reservation_id"`
	FlightNumber  string    `json:"flight_number"`
	Airline       string    `json:"airline"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	DepartureAt   time.Time `json:"departure_at"`
	SeatCount     int       `json:"seat_count"`
	Price         int       `json:"price"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

func toItineraryResponse(e *booking.ItineraryEntry) ItineraryEntryResponse {
	return ItineraryEntryResponse{
		ReservationID: e.ReservationID, FlightNumber: e.FlightNumber,
		Airline: e.AirlineName, Origin: e.Origin, Destination: e.Destination,
		DepartureAt: e.DepartureAt, SeatCount: e.SeatCount, Price: e.Price,
		Status: string(e.Status), CreatedAt: e.CreatedAt,
	}
}

// Create godoc
// @Summary 予約を作成
// @Description フライトの座席を予約します。空席不足・重複予約は409を返します
// @Tags reservations
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param request body CreateReservationRequest true "予約情報"
// @Success 201 {object} ReservationResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "空席不足または重複予約"
// @Router /reservations [post]
func (h *ReservationHandler) Create(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	var req CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	r, err := h.service.Book(c.Request().Context(), application.BookInput{
		UserID: userID, FlightID: req.FlightID, SeatCount: req.SeatCount,
	})
	if err != nil {
		return bookingErrorToHTTP(err)
	}
	return c.JSON(http.StatusCreated, toReservationResponse(r))
}

// GetByID godoc
// @Summary 予約を取得
// @Description 指定IDの予約を取得します
// @Tags reservations
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} ReservationResponse
// @Failure 404 {object} map[string]string
// @Router /reservations/{id} [get]
func (h *ReservationHandler) GetByID(c echo.Context) error {
	id := c.Param("id")
	r, err := h.service.GetReservation(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, booking.ErrReservationNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}

// ListByUser godoc
// @Summary ユーザーの予約一覧を取得
// @Description ログインユーザーの確定状態の予約一覧を取得します
// @Tags reservations
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Success 200 {array} ItineraryEntryResponse
// @Failure 401 {object} map[string]string
// @Router /reservations [get]
func (h *ReservationHandler) ListByUser(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	entries, err := h.service.ListActiveReservations(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]ItineraryEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = toItineraryResponse(e)
	}
	return c.JSON(http.StatusOK, resp)
}

// Cancel godoc
// @Summary 予約をキャンセル
// @Description 予約をキャンセルし、席数をフライトへ戻します
// @Tags reservations
// @Produce json
// @Param id path string true "予約ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "キャンセル済み"
// @Router /reservations/{id}/cancel [post]
func (h *ReservationHandler) Cancel(c echo.Context) error {
	id := c.Param("id")
	if err := h.service.Cancel(c.Request().Context(), id); err != nil {
		return bookingErrorToHTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ExportItinerary godoc
// @Summary 予約一覧をCSVで出力
// @Description ログインユーザーの確定状態の予約一覧をCSVでダウンロードします
// @Tags reservations
// @Produce text/csv
// @Param X-User-ID header string true "ユーザーID"
// @Success 200 {string} string
// @Failure 401 {object} map[string]string
// @Router /reservations/export [get]
func (h *ReservationHandler) ExportItinerary(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	entries, err := h.service.ListActiveReservations(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="itinerary.csv"`)
	c.Response().WriteHeader(http.StatusOK)
	return export.WriteItinerary(c.Response(), entries)
}

// bookingErrorToHTTP はドメインエラーをHTTPステータスへ対応付ける
func bookingErrorToHTTP(err error) error {
	switch {
	case errors.Is(err, booking.ErrDuplicateReservation),
		errors.Is(err, booking.ErrInsufficientSeats),
		errors.Is(err, booking.ErrReservationAlreadyCancelled),
		errors.Is(err, application.ErrBookingInProgress):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, booking.ErrReservationNotFound),
		errors.Is(err, flight.ErrFlightNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, booking.ErrInvalidSeatCount),
		errors.Is(err, booking.ErrUserIDRequired),
		errors.Is(err, booking.ErrFlightIDRequired),
		errors.Is(err, flight.ErrFlightNotActive):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
