package controller

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"tryon-widget-be/internal/pkg/serverutils"
	"tryon-widget-be/internal/service"
)

const identityCookieName = "fit_identity"

// bridgePage posts the handshake payload to the opener exactly once, then
// gets out of the way. The opener closes the popup after receiving it.
var bridgePage = template.Must(template.New("bridge").Parse(`<!DOCTYPE html>
<html>
<head><title>Connecting…</title></head>
<body>
<script>
(function () {
	var payload = {{.Payload}};
	var target = {{.TargetOrigin}};
	if (window.opener) {
		window.opener.postMessage(payload, target);
	}
})();
</script>
</body>
</html>`))

type IBridgeController interface {
	RegisterRoutes(r fiber.Router)
	Page(ctx *fiber.Ctx) error
	Verify(ctx *fiber.Ctx) error
}

type bridgeController struct {
	bridgeService service.IBridgeService
	authService   service.IAuthService
}

func NewBridgeController(bridgeService service.IBridgeService, authService service.IAuthService) IBridgeController {
	return &bridgeController{
		bridgeService: bridgeService,
		authService:   authService,
	}
}

func (c *bridgeController) RegisterRoutes(r fiber.Router) {
	r.Get("/bridge", c.Page)
	r.Post("/api/bridge/verify", c.Verify)
}

// Page serves the popup document. It inspects the identity cookie, mints the
// handshake payload and posts it to the opener at the widget's origin.
func (c *bridgeController) Page(ctx *fiber.Ctx) error {
	targetOrigin, err := originOf(ctx.Query("return_to"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "return_to must be a valid URL")
	}

	identity, err := c.authService.DecodeIdentityCookie(ctx.Cookies(identityCookieName))

	var msg interface{}
	if err != nil {
		msg, err = c.bridgeService.IssueBridgeMessage(ctx.Context(), nil, nil)
	} else {
		user := map[string]any{
			"id":      identity.ShopperId.String(),
			"email":   identity.Email,
			"name":    identity.Name,
			"picture": identity.Picture,
		}
		msg, err = c.bridgeService.IssueBridgeMessage(ctx.Context(), &identity.ShopperId, user)
	}
	if err != nil {
		return err
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return bridgePage.Execute(ctx.Response().BodyWriter(), map[string]interface{}{
		"Payload":      template.JS(payload),
		"TargetOrigin": targetOrigin,
	})
}

// Verify burns the single-use grant behind a freshly received widget token.
// A second verify of the same token fails.
func (c *bridgeController) Verify(ctx *fiber.Ctx) error {
	var req struct {
		Token string `json:"token" validate:"required"`
	}
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	shopperId, err := c.bridgeService.VerifyToken(ctx.Context(), req.Token)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "token is invalid or already used")
	}

	return ctx.JSON(serverutils.SuccessResponse("Token verified", fiber.Map{
		"shopper_id": shopperId,
	}))
}

func originOf(rawURL string) (string, error) {
	if rawURL == "" {
		return "", fmt.Errorf("empty url")
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid url")
	}
	return u.Scheme + "://" + u.Host, nil
}
