package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"tryon-widget-be/internal/service"
)

type IAuthController interface {
	RegisterRoutes(r fiber.Router)
	Login(ctx *fiber.Ctx) error
	Callback(ctx *fiber.Ctx) error
	Logout(ctx *fiber.Ctx) error
}

type authController struct {
	authService service.IAuthService
	isProd      bool
}

func NewAuthController(authService service.IAuthService, isProd bool) IAuthController {
	return &authController{
		authService: authService,
		isProd:      isProd,
	}
}

func (c *authController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/auth")
	h.Get(":provider/login", c.Login)
	h.Get(":provider/callback", c.Callback)
	h.Post("logout", c.Logout)
}

func (c *authController) Login(ctx *fiber.Ctx) error {
	loginURL, err := c.authService.GetLoginURL(ctx.Params("provider"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return ctx.Redirect(loginURL, fiber.StatusTemporaryRedirect)
}

// Callback finishes the provider handshake, drops the identity cookie and
// closes the flow. The bridge popup picks the cookie up on its next open.
func (c *authController) Callback(ctx *fiber.Ctx) error {
	code := ctx.Query("code")
	if code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing authorization code")
	}

	cookieValue, _, err := c.authService.HandleCallback(ctx.Context(), ctx.Params("provider"), code)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "sign-in failed")
	}

	ctx.Cookie(&fiber.Cookie{
		Name:     identityCookieName,
		Value:    cookieValue,
		Expires:  time.Now().Add(24 * time.Hour),
		HTTPOnly: true,
		Secure:   c.isProd,
		SameSite: "None", // the bridge popup loads cross-site
	})

	ctx.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return ctx.SendString("<script>window.close();</script>")
}

func (c *authController) Logout(ctx *fiber.Ctx) error {
	ctx.Cookie(&fiber.Cookie{
		Name:     identityCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	})
	return ctx.JSON(fiber.Map{"success": true})
}
