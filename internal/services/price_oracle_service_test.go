package services

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"
)

func TestRentPriceTiers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Past the premium window so quotes are pure base rent.
	env.advance(time.Duration(testDecayWindow) * time.Second)

	duration := int64(1000)
	tests := []struct {
		secondary  string
		ratePerSec int64
	}{
		{"a", 1000},
		{"ab", 800},
		{"abc", 600},
		{"abcd", 400},
		{"abcde", 200},
		{"abcdefghij", 200}, // long names share the cheapest tier
		{"你好", 800},         // tiers count runes, not bytes
	}
	for _, tt := range tests {
		t.Run(tt.secondary, func(t *testing.T) {
			price, err := env.oracle.RentPrice(ctx, "did", tt.secondary, duration)
			if err != nil {
				t.Fatalf("RentPrice: %v", err)
			}
			want := big.NewInt(tt.ratePerSec * duration)
			if price.Base.Cmp(want) != 0 {
				t.Errorf("base = %s, want %s", price.Base, want)
			}
			if price.Premium.Sign() != 0 {
				t.Errorf("premium = %s, want 0 after the decay window", price.Premium)
			}
		})
	}
}

func TestPremiumDecayLinear(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// At launch the full premium applies: $100 at a 1.0 rate.
	price, err := env.oracle.RentPrice(ctx, "did", "hello1", 100)
	if err != nil {
		t.Fatalf("RentPrice: %v", err)
	}
	start, _ := new(big.Int).SetString("100000000000000000000", 10)
	if price.Premium.Cmp(start) != 0 {
		t.Errorf("premium at launch = %s, want %s", price.Premium, start)
	}

	// Halfway through the window, half the premium remains.
	env.advance(time.Duration(testDecayWindow/2) * time.Second)
	price, err = env.oracle.RentPrice(ctx, "did", "hello1", 100)
	if err != nil {
		t.Fatalf("RentPrice: %v", err)
	}
	half := new(big.Int).Rsh(start, 1)
	if price.Premium.Cmp(half) != 0 {
		t.Errorf("premium at midpoint = %s, want %s", price.Premium, half)
	}

	// Strictly decreasing until the window closes, zero after.
	previous := price.Premium
	for i := 0; i < 5; i++ {
		env.advance(time.Duration(testDecayWindow/10) * time.Second)
		price, err = env.oracle.RentPrice(ctx, "did", "hello1", 100)
		if err != nil {
			t.Fatalf("RentPrice: %v", err)
		}
		if previous.Sign() > 0 && price.Premium.Cmp(previous) >= 0 {
			t.Errorf("premium did not decrease: %s -> %s", previous, price.Premium)
		}
		previous = price.Premium
	}
	if previous.Sign() != 0 {
		t.Errorf("premium after the window = %s, want 0", previous)
	}
}

func TestPremiumDecayExponential(t *testing.T) {
	pricing := testPricingConfig()
	pricing.PremiumCurve = "exponential"
	oracle, err := NewPriceOracleService(pricing, testRateFeedConfig(), &fixedRateFeed{rate: big.NewInt(100_000_000)}, quietLogger())
	if err != nil {
		t.Fatalf("NewPriceOracleService: %v", err)
	}

	start, _ := new(big.Int).SetString("100000000000000000000", 10)

	if got := oracle.premiumAt(testEpoch); got.Cmp(start) != 0 {
		t.Errorf("premium at launch = %s, want %s", got, start)
	}

	// One halving period in, the premium has halved exactly.
	half := new(big.Int).Rsh(start, 1)
	if got := oracle.premiumAt(testEpoch + premiumHalvingSeconds); got.Cmp(half) != 0 {
		t.Errorf("premium after one halving = %s, want %s", got, half)
	}

	// Strictly decreasing inside a halving step.
	mid := oracle.premiumAt(testEpoch + premiumHalvingSeconds/2)
	if mid.Cmp(start) >= 0 || mid.Cmp(half) <= 0 {
		t.Errorf("mid-step premium %s not between %s and %s", mid, half, start)
	}

	if got := oracle.premiumAt(testEpoch + testDecayWindow); got.Sign() != 0 {
		t.Errorf("premium after the window = %s, want 0", got)
	}
}

func TestRentPriceInvalidDuration(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.oracle.RentPrice(context.Background(), "did", "hello1", 0); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("error = %v, want ErrInvalidDuration", err)
	}
}

func TestRentPriceFeedDown(t *testing.T) {
	env := newTestEnv(t)
	env.feed.err = errors.New("connection refused")
	if _, err := env.oracle.RentPrice(context.Background(), "did", "hello1", 86400); !errors.Is(err, ErrOracleUnavailable) {
		t.Errorf("error = %v, want ErrOracleUnavailable", err)
	}
}

func TestRentPriceZeroRate(t *testing.T) {
	env := newTestEnv(t)
	env.feed.rate = big.NewInt(0)
	if _, err := env.oracle.RentPrice(context.Background(), "did", "hello1", 86400); !errors.Is(err, ErrOracleUnavailable) {
		t.Errorf("error = %v, want ErrOracleUnavailable", err)
	}
}

func TestRentPriceStaleQuote(t *testing.T) {
	oracle, err := NewPriceOracleService(testPricingConfig(), testRateFeedConfig(), &staleRateFeed{}, quietLogger())
	if err != nil {
		t.Fatalf("NewPriceOracleService: %v", err)
	}
	if _, err := oracle.RentPrice(context.Background(), "did", "hello1", 86400); !errors.Is(err, ErrOracleUnavailable) {
		t.Errorf("error = %v, want ErrOracleUnavailable", err)
	}
}

// staleRateFeed always answers with an hour-old quote.
type staleRateFeed struct{}

func (staleRateFeed) LatestRate(ctx context.Context) (*big.Int, time.Time, error) {
	return big.NewInt(100_000_000), time.Now().Add(-time.Hour), nil
}

func TestConversionRate(t *testing.T) {
	// At $0.50 per native token, a $5 charge costs 10 native.
	oracle, err := NewPriceOracleService(testPricingConfig(), testRateFeedConfig(), &fixedRateFeed{rate: big.NewInt(50_000_000)}, quietLogger())
	if err != nil {
		t.Fatalf("NewPriceOracleService: %v", err)
	}
	fiveUSD, _ := new(big.Int).SetString("5000000000000000000", 10)
	wei, err := oracle.AttoUSDToWei(context.Background(), fiveUSD)
	if err != nil {
		t.Fatalf("AttoUSDToWei: %v", err)
	}
	want, _ := new(big.Int).SetString("10000000000000000000", 10)
	if wei.Cmp(want) != 0 {
		t.Errorf("wei = %s, want %s", wei, want)
	}
}

func TestOracleRejectsBadConfig(t *testing.T) {
	pricing := testPricingConfig()
	pricing.Tier3 = "not-a-number"
	if _, err := NewPriceOracleService(pricing, testRateFeedConfig(), &fixedRateFeed{rate: big.NewInt(1)}, quietLogger()); err == nil {
		t.Error("expected error for malformed tier rate")
	}

	pricing = testPricingConfig()
	pricing.PremiumStart = "-1"
	if _, err := NewPriceOracleService(pricing, testRateFeedConfig(), &fixedRateFeed{rate: big.NewInt(1)}, quietLogger()); err == nil {
		t.Error("expected error for negative premium")
	}
}
