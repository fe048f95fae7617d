package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReservation(t *testing.T) {
	tests := []struct {
		name        string
		userID      string
		flightID    string
		seatCount   int
		wantErr     bool
		errExpected error
	}{
		{
			name: "正常な予約作成", userID: "user-123", flightID: "flight-456", seatCount: 2,
			wantErr: false,
		},
		{
			name: "ユーザーID未指定", userID: "", flightID: "flight-456", seatCount: 2,
			wantErr: true, errExpected: ErrUserIDRequired,
		},
		{
			name: "フライトID未指定", userID: "user-123", flightID: "", seatCount: 2,
			wantErr: true, errExpected: ErrFlightIDRequired,
		},
		{
			name: "席数0", userID: "user-123", flightID: "flight-456", seatCount: 0,
			wantErr: true, errExpected: ErrInvalidSeatCount,
		},
		{
			name: "席数が負", userID: "user-123", flightID: "flight-456", seatCount: -3,
			wantErr: true, errExpected: ErrInvalidSeatCount,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReservation(tt.userID, tt.flightID, tt.seatCount)
			err := r.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, tt.errExpected)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.userID, r.UserID)
			assert.Equal(t, tt.flightID, r.FlightID)
			assert.Equal(t, tt.seatCount, r.SeatCount)
			assert.Equal(t, StatusConfirmed, r.Status)
			assert.False(t, r.CreatedAt.IsZero())
		})
	}
}

func TestReservation_Cancel(t *testing.T) {
	tests := []struct {
		name    string
		status  Status
		wantErr error
	}{
		{"Confirmed状態からキャンセル", StatusConfirmed, nil},
		{"Cancelled状態から再キャンセル", StatusCancelled, ErrReservationAlreadyCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReservation("user-123", "flight-456", 2)
			r.Status = tt.status
			err := r.Cancel()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.status, r.Status)
			} else {
				require.NoError(t, err)
				assert.Equal(t, StatusCancelled, r.Status)
			}
		})
	}
}

func TestReservation_Cancel_NotIdempotent(t *testing.T) {
	r := NewReservation("user-123", "flight-456", 2)
	require.NoError(t, r.Cancel())

	// 二重キャンセルは明示的に拒否される
	err := r.Cancel()
	assert.ErrorIs(t, err, ErrReservationAlreadyCancelled)
}

func TestReservation_IsConfirmed(t *testing.T) {
	r := NewReservation("user-123", "flight-456", 1)
	assert.True(t, r.IsConfirmed())
	require.NoError(t, r.Cancel())
	assert.False(t, r.IsConfirmed())
}
