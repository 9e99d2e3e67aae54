package transport

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type (
	RegisterReq struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	LoginReq struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	RefreshTokenReq struct {
		Refresh string `json:"refresh"`
	}
)

func (s *HTTPServer) AuthRegister(c echo.Context) error {
	req := RegisterReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	user, pair, err := s.auth.Register(req.Username, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, AuthResp{
		User:   userView(user),
		Tokens: TokenResp{Refresh: pair.Refresh, Access: pair.Access},
	})
}

func (s *HTTPServer) AuthLogin(c echo.Context) error {
	req := LoginReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	identifier := req.Username
	if identifier == "" {
		identifier = req.Email
	}

	user, pair, err := s.auth.Login(identifier, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, AuthResp{
		User:   userView(user),
		Tokens: TokenResp{Refresh: pair.Refresh, Access: pair.Access},
	})
}

func (s *HTTPServer) AuthLogout(c echo.Context) error {
	if _, err := requireUser(c); err != nil {
		return err
	}

	req := RefreshTokenReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	if err := s.auth.Logout(req.Refresh); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Successfully logged out."})
}

func (s *HTTPServer) AuthMe(c echo.Context) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userView(user))
}

func (s *HTTPServer) AuthRefresh(c echo.Context) error {
	req := RefreshTokenReq{}
	if err := BindAndValidate(c, &req); err != nil {
		return err
	}

	pair, err := s.auth.Refresh(req.Refresh)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, TokenResp{Refresh: pair.Refresh, Access: pair.Access})
}
