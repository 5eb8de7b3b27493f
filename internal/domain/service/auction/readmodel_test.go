package auction_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"tg_auction/internal/domain/entity"
	"tg_auction/internal/domain/service/auction"
)

func TestBuildSnapshot(t *testing.T) {
	rq := require.New(t)

	start := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	a := &entity.Auction{
		Name:        "Charizard",
		LotNumber:   "12",
		Description: "PSA 9",
		Price:       decimal.NewFromInt(10),
		Increment:   decimal.NewFromInt(1),
		Duration:    30 * time.Second,
		StartTime:   start,
		ImageURL:    "https://cdn.example/charizard_12.jpg",
	}

	for i := 0; i < 6; i++ {
		a.AcceptBid(entity.PlatformUser(int64(i), "user"), start.Add(time.Duration(i)*time.Second))
	}

	next := &entity.Auction{Name: "Pikachu", LotNumber: "7"}

	s := auction.BuildSnapshot(a, next)

	rq.Equal("Charizard", s.Name)
	rq.Equal("12", s.LotNumber)
	rq.True(s.FinalPrice.Equal(decimal.NewFromInt(16)))
	rq.Equal(30, s.Duration)
	rq.NotNil(s.StartTime)
	rq.True(s.StartTime.Equal(start))
	rq.Equal("Pikachu", s.NextName)
	rq.Equal("7", s.NextLotNumber)

	// History is capped and newest first.
	rq.Len(s.History, 4)
	rq.True(s.History[0].Price.Equal(decimal.NewFromInt(16)))
	rq.True(s.History[3].Price.Equal(decimal.NewFromInt(13)))
}

func TestBuildSnapshotNotStartedNoNext(t *testing.T) {
	rq := require.New(t)

	a := &entity.Auction{
		Name:      "Charizard",
		LotNumber: "12",
		Price:     decimal.NewFromInt(10),
		Duration:  30 * time.Second,
	}

	s := auction.BuildSnapshot(a, nil)

	rq.Nil(s.StartTime)
	rq.Empty(s.NextName)
	rq.Empty(s.History)
	rq.Empty(s.Leader)
}
