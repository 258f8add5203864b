package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

type userServiceStub struct {
	registerFn func(ctx context.Context, input usecase.RegisterInput) (*domain.Account, error)
	loginFn    func(ctx context.Context, input usecase.LoginInput) (*usecase.LoginResult, error)
}

func (s *userServiceStub) Register(ctx context.Context, input usecase.RegisterInput) (*domain.Account, error) {
	return s.registerFn(ctx, input)
}

func (s *userServiceStub) Login(ctx context.Context, input usecase.LoginInput) (*usecase.LoginResult, error) {
	return s.loginFn(ctx, input)
}

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"created", nil, http.StatusCreated},
		{"duplicate", domain.ErrAlreadyExists, http.StatusConflict},
		{"weak password", domain.ErrPasswordTooWeak, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(&userServiceStub{
				registerFn: func(ctx context.Context, input usecase.RegisterInput) (*domain.Account, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return domain.NewAccount(input.Username, handlerTime), nil
				},
			})

			rec := httptest.NewRecorder()
			h.Register(rec, httptest.NewRequest(http.MethodPost, "/register",
				bytes.NewBufferString(`{"username":"alice","password":"password123"}`)))

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	h := NewAuthHandler(&userServiceStub{
		loginFn: func(ctx context.Context, input usecase.LoginInput) (*usecase.LoginResult, error) {
			switch input.Password {
			case "password123":
				return &usecase.LoginResult{Token: "tok", Role: domain.RoleUser}, nil
			case "deleted":
				return nil, domain.ErrAccountInactive
			default:
				return nil, domain.ErrInvalidCredentials
			}
		},
	})

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(`{"username":"alice","password":"password123"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"token":"tok","role":"user"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(`{"username":"alice","password":"nope"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(`{"username":"alice","password":"deleted"}`)))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
