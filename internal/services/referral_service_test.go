package services

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"did-backend/internal/utils"
)

func TestReferralFeeDefaultRate(t *testing.T) {
	env := newTestEnv(t)
	tokenID := utils.CalTokenIDHex("did", "partner")

	// Default rate is 500 bps = 5%.
	fee, remainder, err := env.referral.GetReferralCommisionFee(context.Background(), big.NewInt(10_000_000), tokenID)
	if err != nil {
		t.Fatalf("GetReferralCommisionFee: %v", err)
	}
	if fee.Int64() != 500_000 {
		t.Errorf("fee = %s, want 500000", fee)
	}
	if remainder.Int64() != 9_500_000 {
		t.Errorf("remainder = %s, want 9500000", remainder)
	}
}

func TestReferralFeePartnerOverride(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tokenID := utils.CalTokenIDHex("did", "partner")

	// 2000 bps = 20%.
	if err := env.referral.SetPartnerComissionChart(ctx, tokenID, 1, 2000, 0); err != nil {
		t.Fatalf("SetPartnerComissionChart: %v", err)
	}

	fee, remainder, err := env.referral.GetReferralCommisionFee(ctx, big.NewInt(10_000), tokenID)
	if err != nil {
		t.Fatalf("GetReferralCommisionFee: %v", err)
	}
	if fee.Int64() != 2000 {
		t.Errorf("fee = %s, want 2000", fee)
	}
	if remainder.Int64() != 8000 {
		t.Errorf("remainder = %s, want 8000", remainder)
	}

	// Other names keep the default rate.
	otherID := utils.CalTokenIDHex("did", "other")
	fee, _, err = env.referral.GetReferralCommisionFee(ctx, big.NewInt(10_000), otherID)
	if err != nil {
		t.Fatalf("GetReferralCommisionFee: %v", err)
	}
	if fee.Int64() != 500 {
		t.Errorf("fee = %s, want 500", fee)
	}
}

func TestPartnerChartCeiling(t *testing.T) {
	env := newTestEnv(t)
	tokenID := utils.CalTokenIDHex("did", "partner")

	if err := env.referral.SetPartnerComissionChart(context.Background(), tokenID, 1, 5001, 0); !errors.Is(err, ErrCommissionRateOutOfRange) {
		t.Errorf("error = %v, want ErrCommissionRateOutOfRange", err)
	}
	if err := env.referral.SetPartnerComissionChart(context.Background(), tokenID, 1, -1, 0); !errors.Is(err, ErrCommissionRateOutOfRange) {
		t.Errorf("error = %v, want ErrCommissionRateOutOfRange", err)
	}
}

func TestCreditReferralAccumulates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tokenID := utils.CalTokenIDHex("did", "partner")

	if _, _, err := env.referral.CreditReferral(ctx, nil, testOtherAddr, tokenID, testOwnerAddr, big.NewInt(10_000)); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("error = %v, want ErrUnauthorized", err)
	}

	for i := 0; i < 3; i++ {
		fee, ev, err := env.referral.CreditReferral(ctx, nil, testControllerAddr, tokenID, testOwnerAddr, big.NewInt(10_000))
		if err != nil {
			t.Fatalf("CreditReferral: %v", err)
		}
		if fee.Int64() != 500 {
			t.Errorf("fee = %s, want 500", fee)
		}
		if ev == nil {
			t.Error("expected an accrual event")
		}
	}

	balance, err := env.referral.ReferralBalance(ctx, testOwnerAddr)
	if err != nil {
		t.Fatalf("ReferralBalance: %v", err)
	}
	if balance.Int64() != 1500 {
		t.Errorf("balance = %s, want 1500", balance)
	}

	count, err := env.referral.ReferralCount(ctx, tokenID)
	if err != nil {
		t.Fatalf("ReferralCount: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestCreditReferralZeroFee(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tokenID := utils.CalTokenIDHex("did", "partner")

	// A free registration still counts as a referral but accrues nothing.
	fee, ev, err := env.referral.CreditReferral(ctx, nil, testControllerAddr, tokenID, testOwnerAddr, new(big.Int))
	if err != nil {
		t.Fatalf("CreditReferral: %v", err)
	}
	if fee.Sign() != 0 {
		t.Errorf("fee = %s, want 0", fee)
	}
	if ev != nil {
		t.Error("zero-fee credit must not emit an accrual event")
	}

	count, err := env.referral.ReferralCount(ctx, tokenID)
	if err != nil {
		t.Fatalf("ReferralCount: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	balance, err := env.referral.ReferralBalance(ctx, testOwnerAddr)
	if err != nil {
		t.Fatalf("ReferralBalance: %v", err)
	}
	if balance.Sign() != 0 {
		t.Errorf("balance = %s, want 0", balance)
	}
}

func TestReferralBalanceUnknownAddress(t *testing.T) {
	env := newTestEnv(t)
	balance, err := env.referral.ReferralBalance(context.Background(), testOtherAddr)
	if err != nil {
		t.Fatalf("ReferralBalance: %v", err)
	}
	if balance.Sign() != 0 {
		t.Errorf("balance = %s, want 0", balance)
	}
}
