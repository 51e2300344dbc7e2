package acceptance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shoplistapp/auth-service/internal/dto"
)

func (s *Suite) register(email, name, password string) *dto.UserResponse {
	body, _ := json.Marshal(dto.RegisterRequest{
		Email:    email,
		Name:     name,
		Password: password,
	})

	resp, err := http.Post(
		s.BaseURL+"/api/v1/auth/register",
		"application/json",
		bytes.NewBuffer(body),
	)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var user dto.UserResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&user))
	return &user
}

func (s *Suite) login(email, password string) *dto.TokenResponse {
	body, _ := json.Marshal(dto.LoginRequest{
		Email:    email,
		Password: password,
	})

	resp, err := http.Post(
		s.BaseURL+"/api/v1/auth/login",
		"application/json",
		bytes.NewBuffer(body),
	)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var tokens dto.TokenResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&tokens))
	return &tokens
}

func (s *Suite) refresh(refreshToken string) (*http.Response, *dto.TokenResponse) {
	body, _ := json.Marshal(dto.RefreshRequest{RefreshToken: refreshToken})

	resp, err := http.Post(
		s.BaseURL+"/api/v1/auth/refresh",
		"application/json",
		bytes.NewBuffer(body),
	)
	s.Require().NoError(err)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return resp, nil
	}

	var tokens dto.TokenResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&tokens))
	return resp, &tokens
}

func (s *Suite) TestRegister_Success() {
	user := s.register("test@example.com", "Test User", "Password123")

	s.NotEmpty(user.ID)
	s.Equal("test@example.com", user.Email)
	s.Equal("Test User", user.Name)
	s.Equal("LOCAL", user.Provider)
	s.Equal("ACTIVE", user.Status)
	s.Equal([]string{"USER"}, user.Roles)
	s.NotEmpty(user.CreatedAt)
}

func (s *Suite) TestRegister_DuplicateEmail() {
	s.register("duplicate@example.com", "First", "Password123")

	body, _ := json.Marshal(dto.RegisterRequest{
		Email:    "duplicate@example.com",
		Name:     "Second",
		Password: "Password456",
	})

	resp, err := http.Post(
		s.BaseURL+"/api/v1/auth/register",
		"application/json",
		bytes.NewBuffer(body),
	)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusConflict, resp.StatusCode)

	var errResp dto.ErrorResponse
	json.NewDecoder(resp.Body).Decode(&errResp)
	s.Equal("Conflict", errResp.Error)
}

func (s *Suite) TestRegister_InvalidEmail() {
	body, _ := json.Marshal(dto.RegisterRequest{
		Email:    "invalid-email",
		Name:     "Test",
		Password: "Password123",
	})

	resp, err := http.Post(
		s.BaseURL+"/api/v1/auth/register",
		"application/json",
		bytes.NewBuffer(body),
	)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestRegister_WeakPassword() {
	body, _ := json.Marshal(dto.RegisterRequest{
		Email:    "weak@example.com",
		Name:     "Test",
		Password: "alllowercase",
	})

	resp, err := http.Post(
		s.BaseURL+"/api/v1/auth/register",
		"application/json",
		bytes.NewBuffer(body),
	)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestLogin_Success() {
	created := s.register("login@example.com", "Login User", "Password123")

	tokens := s.login("login@example.com", "Password123")

	s.NotEmpty(tokens.AccessToken)
	s.NotEmpty(tokens.RefreshToken)
	s.Equal("Bearer", tokens.TokenType)
	s.NotZero(tokens.ExpiresIn)
	s.Equal(created.ID, tokens.User.ID)
	s.Equal("login@example.com", tokens.User.Email)
	s.Equal([]string{"USER"}, tokens.User.Roles)
}

func (s *Suite) TestLogin_WrongPassword() {
	s.register("wrongpass@example.com", "Test", "CorrectPassword123")

	body, _ := json.Marshal(dto.LoginRequest{
		Email:    "wrongpass@example.com",
		Password: "WrongPassword123",
	})

	resp, err := http.Post(
		s.BaseURL+"/api/v1/auth/login",
		"application/json",
		bytes.NewBuffer(body),
	)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	var errResp dto.ErrorResponse
	json.NewDecoder(resp.Body).Decode(&errResp)
	s.Equal("Unauthorized", errResp.Error)
}

func (s *Suite) TestLogin_UnknownEmail() {
	body, _ := json.Marshal(dto.LoginRequest{
		Email:    "nonexistent@example.com",
		Password: "Password123",
	})

	resp, err := http.Post(
		s.BaseURL+"/api/v1/auth/login",
		"application/json",
		bytes.NewBuffer(body),
	)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestRefresh_Success() {
	s.register("refresh@example.com", "Test", "Password123")
	tokens := s.login("refresh@example.com", "Password123")

	resp, rotated := s.refresh(tokens.RefreshToken)

	s.Equal(http.StatusOK, resp.StatusCode)
	s.Require().NotNil(rotated)
	s.NotEmpty(rotated.AccessToken)
	s.NotEmpty(rotated.RefreshToken)
	s.NotEqual(tokens.RefreshToken, rotated.RefreshToken)
}

func (s *Suite) TestRefresh_ReusedTokenRejected() {
	s.register("reuse@example.com", "Test", "Password123")
	tokens := s.login("reuse@example.com", "Password123")

	resp, rotated := s.refresh(tokens.RefreshToken)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Require().NotNil(rotated)

	// Replaying the rotated-away token must fail
	resp, _ = s.refresh(tokens.RefreshToken)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	// And the replay revokes the successor as well
	resp, _ = s.refresh(rotated.RefreshToken)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestRefresh_UnknownToken() {
	resp, _ := s.refresh("never-issued-token")

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestLogout_RevokesRefreshToken() {
	s.register("logout@example.com", "Test", "Password123")
	tokens := s.login("logout@example.com", "Password123")

	body, _ := json.Marshal(dto.LogoutRequest{RefreshToken: tokens.RefreshToken})
	resp, err := http.Post(
		s.BaseURL+"/api/v1/auth/logout",
		"application/json",
		bytes.NewBuffer(body),
	)
	s.Require().NoError(err)
	resp.Body.Close()

	s.Equal(http.StatusNoContent, resp.StatusCode)

	// The revoked token can no longer be refreshed
	refreshResp, _ := s.refresh(tokens.RefreshToken)
	s.Equal(http.StatusUnauthorized, refreshResp.StatusCode)
}

func (s *Suite) TestLogout_Repeated() {
	s.register("relogout@example.com", "Test", "Password123")
	tokens := s.login("relogout@example.com", "Password123")

	body, _ := json.Marshal(dto.LogoutRequest{RefreshToken: tokens.RefreshToken})

	resp1, err := http.Post(s.BaseURL+"/api/v1/auth/logout", "application/json", bytes.NewBuffer(body))
	s.Require().NoError(err)
	resp1.Body.Close()
	s.Equal(http.StatusNoContent, resp1.StatusCode)

	body, _ = json.Marshal(dto.LogoutRequest{RefreshToken: tokens.RefreshToken})
	resp2, err := http.Post(s.BaseURL+"/api/v1/auth/logout", "application/json", bytes.NewBuffer(body))
	s.Require().NoError(err)
	resp2.Body.Close()
	s.Equal(http.StatusNoContent, resp2.StatusCode)
}

func (s *Suite) TestGetMe_Success() {
	created := s.register("getme@example.com", "Me User", "Password123")
	tokens := s.login("getme@example.com", "Password123")

	req, _ := http.NewRequest("GET", s.BaseURL+"/api/v1/auth/me", nil)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", tokens.AccessToken))

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var user dto.UserResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&user))

	s.Equal(created.ID, user.ID)
	s.Equal("getme@example.com", user.Email)
	s.Equal("Me User", user.Name)
	s.Equal([]string{"USER"}, user.Roles)
}

func (s *Suite) TestGetMe_NoToken() {
	req, _ := http.NewRequest("GET", s.BaseURL+"/api/v1/auth/me", nil)

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestGetMe_InvalidToken() {
	req, _ := http.NewRequest("GET", s.BaseURL+"/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer invalid-token")

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}
