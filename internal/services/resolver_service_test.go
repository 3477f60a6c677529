package services

import (
	"context"
	"errors"
	"testing"

	"did-backend/internal/utils"
)

func registerTestName(t *testing.T, env *testEnv, secondary, owner string) string {
	t.Helper()
	record, _, err := env.registrar.Register(context.Background(), nil, testControllerAddr, "did", secondary, owner, 365*86400)
	if err != nil {
		t.Fatalf("Register %s: %v", secondary, err)
	}
	return record.TokenID
}

func TestSetAddrAuthorization(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tokenID := registerTestName(t, env, "hello1", testOwnerAddr)

	// A stranger cannot point the name anywhere.
	if err := env.resolver.SetAddr(ctx, nil, testOtherAddr, tokenID, testOtherAddr); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("error = %v, want ErrUnauthorized", err)
	}

	// The owner can.
	if err := env.resolver.SetAddr(ctx, nil, testOwnerAddr, tokenID, testOtherAddr); err != nil {
		t.Fatalf("SetAddr as owner: %v", err)
	}
	addr, err := env.resolver.Addr(ctx, tokenID)
	if err != nil {
		t.Fatalf("Addr: %v", err)
	}
	if addr != testOtherAddr {
		t.Errorf("addr = %s, want %s", addr, testOtherAddr)
	}

	// So can the register controller, which configures resolution during
	// registerWithConfig.
	if err := env.resolver.SetAddr(ctx, nil, testControllerAddr, tokenID, testOwnerAddr); err != nil {
		t.Fatalf("SetAddr as controller: %v", err)
	}
}

func TestAddrUnsetName(t *testing.T) {
	env := newTestEnv(t)
	addr, err := env.resolver.Addr(context.Background(), utils.CalTokenIDHex("did", "nobody"))
	if err != nil {
		t.Fatalf("Addr: %v", err)
	}
	if addr != "" {
		t.Errorf("addr = %q, want empty", addr)
	}
}

func TestCommissionAcceptAddress(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tokenID := registerTestName(t, env, "hello1", testOwnerAddr)

	// Unset: payouts fall back to the name's owner.
	payee, err := env.resolver.CommissionAcceptAddress(ctx, tokenID)
	if err != nil {
		t.Fatalf("CommissionAcceptAddress: %v", err)
	}
	if payee != testOwnerAddr {
		t.Errorf("payee = %s, want owner %s", payee, testOwnerAddr)
	}

	// Only the owner may redirect payouts; controllers may not.
	if err := env.resolver.SetCommissionAcceptAddress(ctx, testControllerAddr, tokenID, testOtherAddr); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("error = %v, want ErrUnauthorized", err)
	}
	if err := env.resolver.SetCommissionAcceptAddress(ctx, testOwnerAddr, tokenID, testOtherAddr); err != nil {
		t.Fatalf("SetCommissionAcceptAddress: %v", err)
	}

	payee, err = env.resolver.CommissionAcceptAddress(ctx, tokenID)
	if err != nil {
		t.Fatalf("CommissionAcceptAddress: %v", err)
	}
	if payee != testOtherAddr {
		t.Errorf("payee = %s, want %s", payee, testOtherAddr)
	}
}
