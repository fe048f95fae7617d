package application

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-flight-reservation/internal/domain/booking"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-flight-reservation/internal/domain/transaction"
)

// リードコミッティッド相当の可視性を持つインメモリ実装。
// scenario_test.go のストアはトランザクション全体を1つのミューテックスで
// 直列化するため、読み取りタイミングに起因する競合は再現できない。
// ここでは行ロックだけを FOR UPDATE 相当として保持し、
// 読み取りは常に最新のコミット済み状態を見る。

type rcStore struct {
	mu           sync.Mutex
	flights      map[string]*flight.Flight
	reservations map[string]*booking.Reservation
	flightLocks  map[string]*sync.Mutex
	nextID       int
}

func newRCStore() *rcStore {
	return &rcStore{
		flights:      make(map[string]*flight.Flight),
		reservations: make(map[string]*booking.Reservation),
		flightLocks:  make(map[string]*sync.Mutex),
	}
}

func (s *rcStore) rowLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lk, ok := s.flightLocks[id]
	if !ok {
		lk = &sync.Mutex{}
		s.flightLocks[id] = lk
	}
	return lk
}

// rcTx は書き込みをコミットまでバッファし、保持した行ロックを
// コミットまたはロールバックで解放する
type rcTx struct {
	store      *rcStore
	inserted   []*booking.Reservation
	seatDeltas map[string]int
	heldLocks  []*sync.Mutex
	done       bool
}

func (t *rcTx) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Lock()
	for _, res := range t.inserted {
		cp := *res
		t.store.reservations[res.ID] = &cp
	}
	for id, delta := range t.seatDeltas {
		t.store.flights[id].AvailableSeats += delta
	}
	t.store.mu.Unlock()
	t.releaseLocks()
	return nil
}

func (t *rcTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.releaseLocks()
	return nil
}

func (t *rcTx) releaseLocks() {
	for _, lk := range t.heldLocks {
		lk.Unlock()
	}
	t.heldLocks = nil
}

type rcTxManager struct {
	store *rcStore
}

func (m *rcTxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	return &rcTx{store: m.store, seatDeltas: make(map[string]int)}, nil
}

type rcFlightRepo struct {
	store *rcStore
}

func (r *rcFlightRepo) Create(ctx context.Context, f *flight.Flight) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.nextID++
	f.ID = fmt.Sprintf("flight-%d", r.store.nextID)
	cp := *f
	r.store.flights[f.ID] = &cp
	return nil
}

func (r *rcFlightRepo) GetByID(ctx context.Context, id string) (*flight.Flight, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	f, ok := r.store.flights[id]
	if !ok {
		return nil, flight.ErrFlightNotFound
	}
	cp := *f
	return &cp, nil
}

// GetByIDForUpdate は行ロックを取得してからコミット済み状態を読む。
// ロックは先行トランザクションの完了までブロックする。
func (r *rcFlightRepo) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*flight.Flight, error) {
	t := tx.(*rcTx)
	lk := r.store.rowLock(id)
	lk.Lock()
	t.heldLocks = append(t.heldLocks, lk)

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	f, ok := r.store.flights[id]
	if !ok {
		return nil, flight.ErrFlightNotFound
	}
	cp := *f
	cp.AvailableSeats += t.seatDeltas[id]
	return &cp, nil
}

func (r *rcFlightRepo) Search(ctx context.Context, filter flight.SearchFilter) ([]*flight.Flight, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var result []*flight.Flight
	for _, f := range r.store.flights {
		cp := *f
		result = append(result, &cp)
	}
	return result, nil
}

func (r *rcFlightRepo) AdjustAvailableSeats(ctx context.Context, tx transaction.Tx, flightID string, delta int) error {
	t := tx.(*rcTx)
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	f, ok := r.store.flights[flightID]
	if !ok {
		return flight.ErrFlightNotFound
	}
	next := f.AvailableSeats + t.seatDeltas[flightID] + delta
	if next < 0 || next > f.TotalSeats {
		return flight.ErrSeatAdjustConflict
	}
	t.seatDeltas[flightID] += delta
	return nil
}

func (r *rcFlightRepo) CountAvailableSeats(ctx context.Context, flightID string) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	f, ok := r.store.flights[flightID]
	if !ok {
		return 0, flight.ErrFlightNotFound
	}
	return f.AvailableSeats, nil
}

type rcBookingRepo struct {
	store *rcStore
}

func (r *rcBookingRepo) Create(ctx context.Context, tx transaction.Tx, res *booking.Reservation) error {
	t := tx.(*rcTx)
	r.store.mu.Lock()
	r.store.nextID++
	res.ID = fmt.Sprintf("res-%d", r.store.nextID)
	r.store.mu.Unlock()
	cp := *res
	t.inserted = append(t.inserted, &cp)
	return nil
}

func (r *rcBookingRepo) GetByID(ctx context.Context, id string) (*booking.Reservation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	res, ok := r.store.reservations[id]
	if !ok {
		return nil, booking.ErrReservationNotFound
	}
	cp := *res
	return &cp, nil
}

func (r *rcBookingRepo) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*booking.Reservation, error) {
	return r.GetByID(ctx, id)
}

// HasActiveReservation は照会時点のコミット済み状態を読む。
// 別トランザクションのコミットは読み取りの後であっても見える。
func (r *rcBookingRepo) HasActiveReservation(ctx context.Context, tx transaction.Tx, userID, flightID string) (bool, error) {
	t := tx.(*rcTx)
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, res := range r.store.reservations {
		if res.UserID == userID && res.FlightID == flightID && res.Status == booking.StatusConfirmed {
			return true, nil
		}
	}
	for _, res := range t.inserted {
		if res.UserID == userID && res.FlightID == flightID && res.Status == booking.StatusConfirmed {
			return true, nil
		}
	}
	return false, nil
}

func (r *rcBookingRepo) UpdateStatus(ctx context.Context, tx transaction.Tx, res *booking.Reservation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.reservations[res.ID]
	if !ok {
		return booking.ErrReservationNotFound
	}
	stored.Status = res.Status
	stored.UpdatedAt = res.UpdatedAt
	return nil
}

func (r *rcBookingRepo) ListActiveByUser(ctx context.Context, userID string) ([]*booking.ItineraryEntry, error) {
	return nil, nil
}

func seedRCFlight(store *rcStore, id string, total, available int) {
	f := flight.NewFlight("airline-1", "AV-044", "ボゴタ", "マドリード",
		time.Date(2026, 9, 15, 8, 30, 0, 0, time.UTC), time.Time{}, total, 120000, 0)
	f.ID = id
	f.AvailableSeats = available
	store.flights[id] = f
}

func (s *rcStore) confirmedCount(userID, flightID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, res := range s.reservations {
		if res.UserID == userID && res.FlightID == flightID && res.Status == booking.StatusConfirmed {
			count++
		}
	}
	return count
}

// 同一 (ユーザー, フライト) の同時予約は、Redisロックなしでも
// フライト行ロック取得後の重複チェックにより高々1件に抑えられる
func TestBookingFlow_ConcurrentSameUserBooksOnlyOnce(t *testing.T) {
	ctx := context.Background()
	store := newRCStore()
	seedRCFlight(store, "flight-a", 100, 100)
	service := NewBookingService(
		&rcTxManager{store: store}, &rcBookingRepo{store: store}, &rcFlightRepo{store: store}, nil, nil)

	const attempts = 4
	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = service.Book(ctx, BookInput{UserID: "user-1", FlightID: "flight-a", SeatCount: 2})
		}(i)
	}
	close(start)
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, booking.ErrDuplicateReservation)
		}
	}
	assert.Equal(t, 1, successes, "確定予約は1件だけ成立する")
	assert.Equal(t, 1, store.confirmedCount("user-1", "flight-a"))

	// 座席は成立した1件分だけ減っている
	seats, err := (&rcFlightRepo{store: store}).CountAvailableSeats(ctx, "flight-a")
	require.NoError(t, err)
	assert.Equal(t, 98, seats)
}

// 別ユーザー同士は重複とみなされず、座席の保存則だけが効く
func TestBookingFlow_ConcurrentDistinctUsersShareSeats(t *testing.T) {
	ctx := context.Background()
	store := newRCStore()
	seedRCFlight(store, "flight-b", 100, 3)
	service := NewBookingService(
		&rcTxManager{store: store}, &rcBookingRepo{store: store}, &rcFlightRepo{store: store}, nil, nil)

	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			userID := fmt.Sprintf("user-%d", i+1)
			_, errs[i] = service.Book(ctx, BookInput{UserID: userID, FlightID: "flight-b", SeatCount: 2})
		}(i)
	}
	close(start)
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, booking.ErrInsufficientSeats)
		}
	}
	assert.Equal(t, 1, successes)

	seats, err := (&rcFlightRepo{store: store}).CountAvailableSeats(ctx, "flight-b")
	require.NoError(t, err)
	assert.Equal(t, 1, seats)
}
