package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-reservation/internal/domain/booking"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/transaction"
	redisinfra "github.com/sanosuguru/go-flight-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-flight-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-flight-reservation/internal/pkg/metrics"
)

// ErrBookingInProgress は同一ユーザー・フライトの予約処理が進行中の場合のエラー
var ErrBookingInProgress = errors.New("このフライトの予約を処理中です")

const (
	bookingLockTTL        = 10 * time.Second
	bookingLockMaxRetries = 3
	bookingLockRetryDelay = 100 * time.Millisecond
)

// BookingService は予約の作成・キャンセルを担うサービス
// 呼び出し間で状態を持たず、全ての共有可変状態はストア側にある
type BookingService struct {
	txManager   transaction.Manager
	bookingRepo booking.Repository
	flightRepo  flight.Repository
	lockManager *redisinfra.LockManager
	seatCache   *redisinfra.SeatCache
}

// NewBookingService は新しいBookingServiceを作成する
// lockManager と seatCache は nil 可（Redisなしでも動作する）
func NewBookingService(tm transaction.Manager, br booking.Repository, fr flight.Repository, lm *redisinfra.LockManager, sc *redisinfra.SeatCache) *BookingService {
	return &BookingService{txManager: tm, bookingRepo: br, flightRepo: fr, lockManager: lm, seatCache: sc}
}

type BookInput struct {
	UserID    string
	FlightID  string
	SeatCount int
}

// Book は予約を作成する
// 重複チェック・空席確認・予約挿入・空席減算を1つのトランザクションで行い、
// いずれかが失敗した場合は全てロールバックする
func (s *BookingService) Book(ctx context.Context, input BookInput) (*booking.Reservation, error) {
	res := booking.NewReservation(input.UserID, input.FlightID, input.SeatCount)
	if err := res.Validate(); err != nil {
		recordBooking("invalid_input")
		return nil, err
	}

	// 同一 (ユーザー, フライト) の同時試行を直列化する
	// 正しさの保証はトランザクション側が持つため、ロックは任意
	if s.lockManager != nil {
		lockKey := redisinfra.BookingLockKey(input.UserID, input.FlightID)
		start := time.Now()
		lock, err := s.lockManager.AcquireLockWithRetry(ctx, lockKey, bookingLockTTL, bookingLockMaxRetries, bookingLockRetryDelay)
		observeLock("acquire", start, err)
		if err != nil {
			if errors.Is(err, redisinfra.ErrLockNotAcquired) {
				recordBooking("lock_failed")
				return nil, ErrBookingInProgress
			}
			recordBooking("error")
			return nil, fmt.Errorf("ロック取得に失敗: %w", err)
		}
		defer func() {
			start := time.Now()
			err := lock.Release(ctx)
			observeLock("release", start, err)
		}()
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		recordBooking("error")
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	// フライト行をロックして読み、確認から減算までを直列化する
	f, err := s.flightRepo.GetByIDForUpdate(ctx, tx, input.FlightID)
	if err != nil {
		recordBooking(lookupStatus(err, flight.ErrFlightNotFound))
		return nil, err
	}
	if !f.IsActive() {
		recordBooking("not_active")
		return nil, flight.ErrFlightNotActive
	}

	// 重複チェックは行ロック取得後に行う
	// ロック前に読むと、並行トランザクションのコミットを見逃して二重予約になる
	exists, err := s.bookingRepo.HasActiveReservation(ctx, tx, input.UserID, input.FlightID)
	if err != nil {
		recordBooking("error")
		return nil, err
	}
	if exists {
		recordBooking("duplicate")
		return nil, booking.ErrDuplicateReservation
	}

	if !f.HasAvailableSeats(input.SeatCount) {
		recordBooking("insufficient_seats")
		return nil, booking.ErrInsufficientSeats
	}

	if err := s.bookingRepo.Create(ctx, tx, res); err != nil {
		// 部分一意インデックスに弾かれた場合も重複として報告する
		if errors.Is(err, booking.ErrDuplicateReservation) {
			recordBooking("duplicate")
			return nil, err
		}
		recordBooking("error")
		return nil, err
	}

	// 条件付きUPDATE。0行更新はロック下では起こり得ないが、
	// 起きた場合でも座席数の不変条件を守ってロールバックする
	if err := s.flightRepo.AdjustAvailableSeats(ctx, tx, input.FlightID, -input.SeatCount); err != nil {
		if errors.Is(err, flight.ErrSeatAdjustConflict) {
			recordBooking("insufficient_seats")
			return nil, booking.ErrInsufficientSeats
		}
		recordBooking("error")
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		recordBooking("error")
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	s.invalidateSeatCache(ctx, input.FlightID)
	recordBooking("success")
	logger.Info("予約を作成",
		zap.String("reservation_id", res.ID),
		zap.String("user_id", input.UserID),
		zap.String("flight_id", input.FlightID),
		zap.Int("seat_count", input.SeatCount),
	)
	return res, nil
}

// Cancel は予約をキャンセルし、席数をフライトへ戻す
// 二重キャンセルは ErrReservationAlreadyCancelled で拒否される
func (s *BookingService) Cancel(ctx context.Context, reservationID string) error {
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		recordCancellation("error")
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	res, err := s.bookingRepo.GetByIDForUpdate(ctx, tx, reservationID)
	if err != nil {
		recordCancellation(lookupStatus(err, booking.ErrReservationNotFound))
		return err
	}
	if err := res.Cancel(); err != nil {
		recordCancellation("already_cancelled")
		return err
	}

	if err := s.bookingRepo.UpdateStatus(ctx, tx, res); err != nil {
		recordCancellation("error")
		return err
	}
	if err := s.flightRepo.AdjustAvailableSeats(ctx, tx, res.FlightID, res.SeatCount); err != nil {
		recordCancellation("error")
		return err
	}

	if err := tx.Commit(); err != nil {
		recordCancellation("error")
		return fmt.Errorf("コミットに失敗: %w", err)
	}

	s.invalidateSeatCache(ctx, res.FlightID)
	recordCancellation("success")
	logger.Info("予約をキャンセル",
		zap.String("reservation_id", res.ID),
		zap.String("flight_id", res.FlightID),
		zap.Int("seat_count", res.SeatCount),
	)
	return nil
}

// GetReservation はIDから予約を取得する
func (s *BookingService) GetReservation(ctx context.Context, id string) (*booking.Reservation, error) {
	return s.bookingRepo.GetByID(ctx, id)
}

// ListActiveReservations はユーザーの確定状態の予約一覧を取得する
func (s *BookingService) ListActiveReservations(ctx context.Context, userID string) ([]*booking.ItineraryEntry, error) {
	if userID == "" {
		return nil, booking.ErrUserIDRequired
	}
	return s.bookingRepo.ListActiveByUser(ctx, userID)
}

func (s *BookingService) invalidateSeatCache(ctx context.Context, flightID string) {
	if s.seatCache == nil {
		return
	}
	if err := s.seatCache.Invalidate(ctx, flightID); err != nil {
		logger.Warn("キャッシュ無効化エラー", zap.Error(err))
	}
}

// lookupStatus は取得エラーをメトリクス用のステータスへ変換する
// 行が存在しない場合とストレージ障害を区別する
func lookupStatus(err, notFound error) string {
	if errors.Is(err, notFound) {
		return "not_found"
	}
	return "error"
}

func recordBooking(status string) {
	if m := metrics.Get(); m != nil {
		m.BookingsTotal.WithLabelValues(status).Inc()
	}
}

func recordCancellation(status string) {
	if m := metrics.Get(); m != nil {
		m.CancellationsTotal.WithLabelValues(status).Inc()
	}
}

func observeLock(operation string, start time.Time, err error) {
	m := metrics.Get()
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failed"
	}
	m.DistributedLockDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
}
