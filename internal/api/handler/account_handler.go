package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/femmie/marketplace/internal/api/metrics"
	"github.com/femmie/marketplace/internal/core/domain"
	"github.com/femmie/marketplace/internal/core/ports"
)

// RefreshTokenHeader carries the refresh token on POST /api/auth/refresh.
const RefreshTokenHeader = "Refresh-Token"

type AccountHandler struct {
	accounts ports.AccountService
}

func NewAccountHandler(accounts ports.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type registerRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type vendorUpgradeRequest struct {
	ShopName        string `json:"shopName"        validate:"required"`
	BusinessAddress string `json:"businessAddress" validate:"required"`
	PhoneNumber     string `json:"phoneNumber"     validate:"required"`
}

// Register creates a REGULAR account and returns a token pair.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      200   {object}  domain.Result[domain.AuthPayload]
// @Failure      400   {object}  domain.Result[domain.AuthPayload]
// @Router       /api/auth/register [post]
func (h *AccountHandler) Register(c echo.Context) error {
	var req registerRequest
	if res, ok := bindAndValidate[domain.AuthPayload](c, &req); !ok {
		return c.JSON(http.StatusBadRequest, res)
	}

	start := time.Now()
	res := h.accounts.Register(c.Request().Context(), ports.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	return respond(c, "register", start, res, http.StatusBadRequest)
}

// Login authenticates a user and returns a token pair.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  domain.Result[domain.AuthPayload]
// @Failure      400   {object}  domain.Result[domain.AuthPayload]
// @Failure      401   {object}  domain.Result[domain.AuthPayload]
// @Router       /api/auth/login [post]
func (h *AccountHandler) Login(c echo.Context) error {
	var req loginRequest
	if res, ok := bindAndValidate[domain.AuthPayload](c, &req); !ok {
		return c.JSON(http.StatusBadRequest, res)
	}

	start := time.Now()
	res := h.accounts.Login(c.Request().Context(), ports.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	return respond(c, "login", start, res, http.StatusUnauthorized)
}

// Profile returns the authenticated user's profile.
//
// @Summary      Current user profile
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Result[domain.Profile]
// @Failure      400  {object}  domain.Result[domain.Profile]
// @Failure      401  {object}  domain.Result[domain.Profile]
// @Router       /api/auth/profile [get]
func (h *AccountHandler) Profile(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	start := time.Now()
	res := h.accounts.GetProfile(c.Request().Context(), id.Email)
	return respond(c, "profile", start, res, http.StatusBadRequest)
}

// UpgradeToVendor promotes the authenticated REGULAR user to VENDOR.
//
// @Summary      Upgrade to vendor
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      vendorUpgradeRequest  true  "Shop details"
// @Success      200   {object}  domain.Result[domain.Profile]
// @Failure      400   {object}  domain.Result[domain.Profile]
// @Failure      401   {object}  domain.Result[domain.Profile]
// @Failure      403   {object}  domain.Result[domain.Profile]
// @Router       /api/auth/upgrade-to-vendor [post]
func (h *AccountHandler) UpgradeToVendor(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req vendorUpgradeRequest
	if res, ok := bindAndValidate[domain.Profile](c, &req); !ok {
		return c.JSON(http.StatusBadRequest, res)
	}

	start := time.Now()
	res := h.accounts.UpgradeToVendor(c.Request().Context(), id.Email, ports.VendorUpgradeInput{
		ShopName:        req.ShopName,
		BusinessAddress: req.BusinessAddress,
		PhoneNumber:     req.PhoneNumber,
	})
	if res.Success {
		metrics.VendorUpgradesTotal.Inc()
	}
	return respond(c, "upgrade_to_vendor", start, res, http.StatusBadRequest)
}

// Refresh exchanges the refresh token from the Refresh-Token header for a new pair.
//
// @Summary      Refresh tokens
// @Tags         auth
// @Produce      json
// @Param        Refresh-Token  header    string  true  "Refresh token"
// @Success      200            {object}  domain.Result[domain.AuthPayload]
// @Failure      401            {object}  domain.Result[domain.AuthPayload]
// @Router       /api/auth/refresh [post]
func (h *AccountHandler) Refresh(c echo.Context) error {
	start := time.Now()
	res := h.accounts.RefreshToken(c.Request().Context(), c.Request().Header.Get(RefreshTokenHeader))
	return respond(c, "refresh", start, res, http.StatusUnauthorized)
}

func bindAndValidate[T any](c echo.Context, req any) (domain.Result[T], bool) {
	if err := c.Bind(req); err != nil {
		return domain.Fail[T](domain.NewValidationError("Invalid request payload"), ""), false
	}
	if err := c.Validate(req); err != nil {
		return domain.Fail[T](domain.NewValidationError(err.Error()), ""), false
	}
	return domain.Result[T]{}, true
}

// respond records the outcome and writes the envelope: 200 on success,
// failStatus otherwise.
func respond[T any](c echo.Context, op string, start time.Time, res domain.Result[T], failStatus int) error {
	metrics.AuthOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if !res.Success {
		metrics.AuthOperationsTotal.WithLabelValues(op, string(res.Kind)).Inc()
		return c.JSON(failStatus, res)
	}
	metrics.AuthOperationsTotal.WithLabelValues(op, "success").Inc()
	return c.JSON(http.StatusOK, res)
}
