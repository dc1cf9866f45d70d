package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountsdomain "github.com/pushpak01/pushtoys-render/internal/accounts/domain"
	"github.com/pushpak01/pushtoys-render/internal/accounts/repository"
	"github.com/pushpak01/pushtoys-render/internal/accounts/service"
	"github.com/pushpak01/pushtoys-render/internal/session"
)

type accountsMock struct {
	user    *accountsdomain.User
	err     error
	updated *accountsdomain.User
}

func (m *accountsMock) Register(_ context.Context, _, _, _ string) (*accountsdomain.User, error) {
	return m.user, m.err
}

func (m *accountsMock) Authenticate(_ context.Context, _, _ string) (*accountsdomain.User, error) {
	return m.user, m.err
}

func (m *accountsMock) GetProfile(_ context.Context, _ string) (*accountsdomain.User, error) {
	return m.user, m.err
}

func (m *accountsMock) UpdateProfile(_ context.Context, _, address, phone string) (*accountsdomain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.updated = &accountsdomain.User{ID: m.user.ID, Address: address, Phone: phone}
	return m.updated, nil
}

func ashaUser() *accountsdomain.User {
	return &accountsdomain.User{ID: "u-1", Username: "asha", Email: "asha@example.com"}
}

func TestRegister_BindsSession(t *testing.T) {
	handler := NewAccountsHandler(&accountsMock{user: ashaUser()}, 5*time.Second)
	sess := session.New("sid", nil)

	body, _ := json.Marshal(RegisterRequestDTO{Username: "asha", Email: "asha@example.com", Password: "hunter2hunter2"})
	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("POST", "/api/v1/accounts/register", bytes.NewReader(body)), sess)

	handler.Register(recorder, request)

	require.Equal(t, http.StatusCreated, recorder.Code)

	var userID string
	require.True(t, sess.Get(userSessionKey, &userID))
	assert.Equal(t, "u-1", userID)
}

func TestRegister_Duplicate(t *testing.T) {
	handler := NewAccountsHandler(&accountsMock{err: repository.ErrDuplicateUser}, 5*time.Second)

	body, _ := json.Marshal(RegisterRequestDTO{Username: "asha", Email: "asha@example.com", Password: "hunter2hunter2"})
	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("POST", "/api/v1/accounts/register", bytes.NewReader(body)), session.New("sid", nil))

	handler.Register(recorder, request)

	assert.Equal(t, http.StatusConflict, recorder.Code)
}

func TestLogin(t *testing.T) {
	handler := NewAccountsHandler(&accountsMock{user: ashaUser()}, 5*time.Second)
	sess := session.New("sid", nil)

	body, _ := json.Marshal(LoginRequestDTO{Username: "asha", Password: "hunter2hunter2"})
	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("POST", "/api/v1/accounts/login", bytes.NewReader(body)), sess)

	handler.Login(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	var userID string
	require.True(t, sess.Get(userSessionKey, &userID))
	assert.Equal(t, "u-1", userID)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	handler := NewAccountsHandler(&accountsMock{err: service.ErrInvalidCredentials}, 5*time.Second)
	sess := session.New("sid", nil)

	body, _ := json.Marshal(LoginRequestDTO{Username: "asha", Password: "wrong"})
	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("POST", "/api/v1/accounts/login", bytes.NewReader(body)), sess)

	handler.Login(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	var userID string
	assert.False(t, sess.Get(userSessionKey, &userID))
}

func TestLogout_KeepsSession(t *testing.T) {
	handler := NewAccountsHandler(&accountsMock{user: ashaUser()}, 5*time.Second)
	sess := session.New("sid", nil)
	require.NoError(t, sess.Set(userSessionKey, "u-1"))
	require.NoError(t, sess.Set("cart", map[string]any{"1": map[string]any{"product_id": 1, "quantity": 2, "price": "10.00"}}))

	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("POST", "/api/v1/accounts/logout", nil), sess)

	handler.Logout(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	var userID string
	assert.False(t, sess.Get(userSessionKey, &userID), "user unbound")
	_, cartSurvives := sess.Values()["cart"]
	assert.True(t, cartSurvives, "anonymous cart survives logout")
}

func TestProfile(t *testing.T) {
	handler := NewAccountsHandler(&accountsMock{user: ashaUser()}, 5*time.Second)
	sess := session.New("sid", nil)
	require.NoError(t, sess.Set(userSessionKey, "u-1"))

	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("GET", "/api/v1/accounts/profile", nil), sess)

	handler.Profile(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	var user accountsdomain.User
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&user))
	assert.Equal(t, "asha", user.Username)
}

func TestUpdateProfile_HTTP(t *testing.T) {
	mock := &accountsMock{user: ashaUser()}
	handler := NewAccountsHandler(mock, 5*time.Second)
	sess := session.New("sid", nil)
	require.NoError(t, sess.Set(userSessionKey, "u-1"))

	body, _ := json.Marshal(UpdateProfileRequestDTO{Address: "7 Hill Street", Phone: "+911234567890"})
	recorder := httptest.NewRecorder()
	request := withSession(httptest.NewRequest("PUT", "/api/v1/accounts/profile", bytes.NewReader(body)), sess)

	handler.UpdateProfile(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, mock.updated)
	assert.Equal(t, "7 Hill Street", mock.updated.Address)
}
