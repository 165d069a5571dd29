package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rustamov/gift-market/internal/apperror"
	"github.com/rustamov/gift-market/internal/model"
)

func newTestIdentityService() (*IdentityService, *fakeUserRepo) {
	users := newFakeUserRepo()
	svc := NewIdentityService(users, newTestLogger(), testSeason)
	return svc, users
}

func TestLogin_FirstLogin(t *testing.T) {
	svc, _ := newTestIdentityService()

	user, isNew, err := svc.Login(context.Background(), model.TelegramProfile{
		TelegramID: 111,
		FirstName:  "Alice",
	})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if !isNew {
		t.Error("first Login() should report isNew")
	}
	if user.TelegramID != 111 || user.FirstName != "Alice" {
		t.Errorf("user = %d/%q, want 111/Alice", user.TelegramID, user.FirstName)
	}
	if !user.Balance.Equal(decimal.NewFromInt(10)) {
		t.Errorf("starting balance = %s, want 10", user.Balance)
	}
}

func TestLogin_ReturningUser(t *testing.T) {
	svc, users := newTestIdentityService()
	users.addUser(111)

	_, isNew, err := svc.Login(context.Background(), model.TelegramProfile{TelegramID: 111, FirstName: "Alice"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if isNew {
		t.Error("returning Login() should not report isNew")
	}
}

func TestLogin_ZeroTelegramID(t *testing.T) {
	svc, _ := newTestIdentityService()

	_, _, err := svc.Login(context.Background(), model.TelegramProfile{TelegramID: 0})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Login() error = %v, want ErrValidation", err)
	}
}

func TestResolve_NotFound(t *testing.T) {
	svc, _ := newTestIdentityService()

	_, err := svc.Resolve(context.Background(), 999)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Resolve() error = %v, want ErrNotFound", err)
	}
}
