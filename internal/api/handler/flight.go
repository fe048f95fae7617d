package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-flight-reservation/internal/application"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/flight"
)

type FlightHandler struct {
	service FlightServiceInterface
}

func NewFlightHandler(s FlightServiceInterface) *FlightHandler {
	return &FlightHandler{service: s}
}

type RegisterFlightRequest struct {
	AirlineName  string    `json:"airline_name" validate:"required" example:"Avianca"`
	AirlineCode  string    `json:"airline_code" example:"AV"`
	FlightNumber string    `json:"flight_number" validate:"required" example:"AV-205"`
	Origin       string    `json:"origin" validate:"required" example:"ボゴタ"`
	Destination  string    `json:"destination" validate:"required" example:"マドリード"`
	DepartureAt  time.Time `json:"departure_at" validate:"required"`
	ArrivalAt    time.Time `json:"arrival_at"`
	TotalSeats   int       `json:"total_seats" validate:"required,min=1" example:"120"`
	Price        int       `json:"price" validate:"min=0" example:"85000"`
	Stops        int       `json:"stops" validate:"min=0" example:"0"`
}

type FlightResponse struct {
	ID             string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	AirlineID      string    `json:"airline_id"`
	FlightNumber   string    `json:"flight_number" example:"AV-205"`
	Origin         string    `json:"origin" example:"ボゴタ"`
	Destination    string    `json:"destination" example:"マドリード"`
	DepartureAt    time.Time `json:"departure_at"`
	ArrivalAt      time.Time `json:"arrival_at"`
	TotalSeats     int       `json:"total_seats" example:"120"`
	AvailableSeats int       `json:"available_seats" example:"118"`
	Price          int       `json:"price" example:"85000"`
	Stops          int       `json:"stops" example:"0"`
	Status         string    `json:"status" example:"active"`
}

func toFlightResponse(f *flight.Flight) FlightResponse {
	return FlightResponse{
		ID: f.ID, AirlineID: f.AirlineID, FlightNumber: f.FlightNumber,
		Origin: f.Origin, Destination: f.Destination,
		DepartureAt: f.DepartureAt, ArrivalAt: f.ArrivalAt,
		TotalSeats: f.TotalSeats, AvailableSeats: f.AvailableSeats,
		Price: f.Price, Stops: f.Stops, Status: string(f.Status),
	}
}

// Search godoc
// @Summary フライトを検索
// @Description 出発地・目的地・日付でフライトを検索します
// @Tags flights
// @Produce json
// @Param origin query string false "出発地"
// @Param destination query string false "目的地"
// @Param date query string false "出発日 (YYYY-MM-DD)"
// @Success 200 {array} FlightResponse
// @Failure 400 {object} map[string]string
// @Router /flights [get]
func (h *FlightHandler) Search(c echo.Context) error {
	input := application.SearchFlightsInput{
		Origin:      c.QueryParam("origin"),
		Destination: c.QueryParam("destination"),
	}
	if raw := c.QueryParam("date"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "日付はYYYY-MM-DD形式で指定してください")
		}
		input.Date = &date
	}
	flights, err := h.service.SearchFlights(c.Request().Context(), input)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]FlightResponse, len(flights))
	for i, f := range flights {
		resp[i] = toFlightResponse(f)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetByID godoc
// @Summary フライトを取得
// @Description 指定IDのフライトを取得します
// @Tags flights
// @Produce json
// @Param id path string true "フライトID"
// @Success 200 {object} FlightResponse
// @Failure 404 {object} map[string]string
// @Router /flights/{id} [get]
func (h *FlightHandler) GetByID(c echo.Context) error {
	id := c.Param("id")
	f, err := h.service.GetFlight(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, flight.ErrFlightNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, toFlightResponse(f))
}

// CountAvailableSeats godoc
// @Summary 空席数を取得
// @Description フライトの現在の空席数を取得します
// @Tags flights
// @Produce json
// @Param id path string true "フライトID"
// @Success 200 {object} map[string]int
// @Failure 404 {object} map[string]string
// @Router /flights/{id}/available-seats [get]
func (h *FlightHandler) CountAvailableSeats(c echo.Context) error {
	id := c.Param("id")
	count, err := h.service.CountAvailableSeats(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, flight.ErrFlightNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]int{"available_seats": count})
}

// Register godoc
// @Summary フライトを登録
// @Description 外部由来のフライトをカタログへ登録します
// @Tags flights
// @Accept json
// @Produce json
// @Param request body RegisterFlightRequest true "フライト情報"
// @Success 201 {object} FlightResponse
// @Failure 400 {object} map[string]string
// @Router /flights [post]
func (h *FlightHandler) Register(c echo.Context) error {
	var req RegisterFlightRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	f, err := h.service.RegisterExternalFlight(c.Request().Context(), application.RegisterFlightInput{
		AirlineName:  req.AirlineName,
		AirlineCode:  req.AirlineCode,
		FlightNumber: req.FlightNumber,
		Origin:       req.Origin,
		Destination:  req.Destination,
		DepartureAt:  req.DepartureAt,
		ArrivalAt:    req.ArrivalAt,
		TotalSeats:   req.TotalSeats,
		Price:        req.Price,
		Stops:        req.Stops,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, toFlightResponse(f))
}

// ImportLive godoc
// @Summary 飛行中のフライトを取り込み
// @Description 外部フィードから飛行中のフライトをカタログへ取り込みます
// @Tags flights
// @Produce json
// @Success 200 {object} map[string]int
// @Failure 502 {object} map[string]string
// @Router /flights/import [post]
func (h *FlightHandler) ImportLive(c echo.Context) error {
	imported, err := h.service.ImportLiveFlights(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]int{"imported": imported})
}
