package serverutils

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createNoteBody struct {
	Heading    string `validate:"required"`
	PageNumber int    `validate:"gte=1"`
}

func TestValidateRequest(t *testing.T) {
	err := ValidateRequest(createNoteBody{PageNumber: 0})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t, []FieldError{
		{Field: "heading", Message: "is required"},
		{Field: "page_number", Message: "must be at least 1"},
	}, verr.Fields)

	assert.NoError(t, ValidateRequest(createNoteBody{Heading: "Cells", PageNumber: 3}))
}

type layoutQuery struct {
	Layout    string  `validate:"omitempty,oneof=anchored ribbon"`
	PageWidth float64 `validate:"required_if=Layout ribbon,omitempty,gt=0"`
}

func TestValidateConditionalField(t *testing.T) {
	err := ValidateRequest(layoutQuery{Layout: "ribbon"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []FieldError{
		{Field: "page_width", Message: "is required when layout is ribbon"},
	}, verr.Fields)

	assert.NoError(t, ValidateRequest(layoutQuery{Layout: "anchored"}))
	assert.NoError(t, ValidateRequest(layoutQuery{Layout: "ribbon", PageWidth: 600}))
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestErrorHandlerMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/validation", func(c *fiber.Ctx) error { return ValidateRequest(createNoteBody{}) })
	app.Get("/missing", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusNotFound, "Document not found") })
	app.Get("/boom", func(c *fiber.Ctx) error { return io.ErrUnexpectedEOF })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/validation", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Len(t, decode(t, resp)["data"], 2)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Document not found", decode(t, resp)["message"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestJwtMiddleware(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	userID := uuid.New()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": userID.String()}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/me", JwtMiddleware, func(c *fiber.Ctx) error {
		id, err := UserID(c)
		if err != nil {
			return err
		}
		return c.SendString(id.String())
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, userID.String(), string(body))

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer nope")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
