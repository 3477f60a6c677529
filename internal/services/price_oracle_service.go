package services

import (
	"context"
	"fmt"
	"math/big"
	"time"
	"unicode/utf8"

	"did-backend/internal/config"

	"github.com/sirupsen/logrus"
)

// RateFeed supplies the current native/USD exchange rate with 8 decimals
// of precision, plus the time the quote was taken.
type RateFeed interface {
	LatestRate(ctx context.Context) (*big.Int, time.Time, error)
}

// Price is a rent quote, split into the recurring base rent and the
// post-launch decaying premium. All amounts are native-token wei.
type Price struct {
	Base    *big.Int `json:"base"`
	Premium *big.Int `json:"premium"`
}

// Total returns base + premium.
func (p *Price) Total() *big.Int {
	return new(big.Int).Add(p.Base, p.Premium)
}

// exponential decay approximated with per-half-day halvings keeps the
// premium curve smooth enough without floating point.
const premiumHalvingSeconds = 43200

// PriceOracleService prices registrations and renewals. Rent is
// USD-denominated per second with a length tier, converted to wei at quote
// time with the rate feed. The premium starts at a configured attoUSD
// amount at launch and decays to zero over the decay window.
type PriceOracleService struct {
	tierRates [5]*big.Int // attoUSD per second, index = min(len,5)-1

	premiumStart *big.Int
	decaySeconds int64
	curve        string
	launch       int64
	staleness    time.Duration

	feed RateFeed
	log  *logrus.Logger
	now  func() time.Time
}

// NewPriceOracleService creates a new PriceOracleService instance
func NewPriceOracleService(pricing config.PricingConfig, rateFeed config.RateFeedConfig, feed RateFeed, log *logrus.Logger) (*PriceOracleService, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &PriceOracleService{
		decaySeconds: pricing.PremiumDecaySeconds,
		curve:        pricing.PremiumCurve,
		launch:       pricing.LaunchTimestamp,
		staleness:    time.Duration(rateFeed.StalenessSeconds) * time.Second,
		feed:         feed,
		log:          log,
		now:          time.Now,
	}

	tiers := [5]string{pricing.Tier1, pricing.Tier2, pricing.Tier3, pricing.Tier4, pricing.Tier5}
	for i, raw := range tiers {
		rate, ok := new(big.Int).SetString(raw, 10)
		if !ok || rate.Sign() < 0 {
			return nil, fmt.Errorf("invalid tier%d rent rate %q", i+1, raw)
		}
		s.tierRates[i] = rate
	}

	premium, ok := new(big.Int).SetString(pricing.PremiumStart, 10)
	if !ok || premium.Sign() < 0 {
		return nil, fmt.Errorf("invalid premium start %q", pricing.PremiumStart)
	}
	s.premiumStart = premium

	return s, nil
}

// RentPrice quotes the cost of holding a name for duration seconds,
// starting now. Returns ErrOracleUnavailable when the rate feed is down or
// its quote is older than the staleness window.
func (s *PriceOracleService) RentPrice(ctx context.Context, rootName, secondaryName string, duration int64) (*Price, error) {
	if duration <= 0 {
		return nil, ErrInvalidDuration
	}

	baseUSD := new(big.Int).Mul(s.rentRate(secondaryName), big.NewInt(duration))
	premiumUSD := s.premiumAt(s.now().Unix())

	base, err := s.AttoUSDToWei(ctx, baseUSD)
	if err != nil {
		return nil, err
	}
	premium, err := s.AttoUSDToWei(ctx, premiumUSD)
	if err != nil {
		return nil, err
	}

	return &Price{Base: base, Premium: premium}, nil
}

// rentRate returns the per-second attoUSD rate for a secondary name.
// Lengths of five runes and above share the cheapest tier.
func (s *PriceOracleService) rentRate(secondaryName string) *big.Int {
	length := utf8.RuneCountInString(secondaryName)
	if length > 5 {
		length = 5
	}
	if length < 1 {
		length = 1
	}
	return s.tierRates[length-1]
}

// premiumAt computes the launch premium in attoUSD at a given time.
func (s *PriceOracleService) premiumAt(atUnix int64) *big.Int {
	elapsed := atUnix - s.launch
	if elapsed < 0 {
		elapsed = 0
	}
	if s.decaySeconds <= 0 || elapsed >= s.decaySeconds || s.premiumStart.Sign() == 0 {
		return new(big.Int)
	}

	if s.curve == "exponential" {
		// start / 2^(elapsed/halving), linearly interpolated inside each
		// halving step.
		halvings := elapsed / premiumHalvingSeconds
		if halvings > 255 {
			return new(big.Int)
		}
		premium := new(big.Int).Rsh(s.premiumStart, uint(halvings))
		remainder := elapsed % premiumHalvingSeconds
		step := new(big.Int).Rsh(premium, 1) // amount lost across this halving
		fade := new(big.Int).Mul(step, big.NewInt(remainder))
		fade.Div(fade, big.NewInt(premiumHalvingSeconds))
		return premium.Sub(premium, fade)
	}

	// linear: start * (window - elapsed) / window
	remaining := new(big.Int).SetInt64(s.decaySeconds - elapsed)
	premium := new(big.Int).Mul(s.premiumStart, remaining)
	return premium.Div(premium, big.NewInt(s.decaySeconds))
}

// AttoUSDToWei converts an attoUSD amount to native wei at the current
// feed rate: wei = attoUSD * 1e8 / rate, rate being USD per native token
// with 8 decimals.
func (s *PriceOracleService) AttoUSDToWei(ctx context.Context, attoUSD *big.Int) (*big.Int, error) {
	rate, quotedAt, err := s.feed.LatestRate(ctx)
	if err != nil {
		s.log.WithError(err).Warn("⚠️ Rate feed unavailable")
		return nil, ErrOracleUnavailable
	}
	if rate == nil || rate.Sign() <= 0 {
		return nil, ErrOracleUnavailable
	}
	if s.staleness > 0 && s.now().Sub(quotedAt) > s.staleness {
		s.log.WithFields(logrus.Fields{"quoted_at": quotedAt.Unix()}).Warn("⚠️ Rate feed quote is stale")
		return nil, ErrOracleUnavailable
	}

	wei := new(big.Int).Mul(attoUSD, big.NewInt(100_000_000))
	return wei.Div(wei, rate), nil
}
