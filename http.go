package accounts

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
)

// Response is the JSON envelope every handler returns.
type Response struct {
	Success bool        `json:"success"`
	Token   string      `json:"token,omitempty"`
	User    *PublicUser `json:"user,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SendError converts any handler fault into the corresponding HTTP status
// and envelope. Nothing propagates past this boundary as a raw error.
func SendError(c *fiber.Ctx, err error, message string) error {
	status := fiber.StatusInternalServerError

	var richErr *errors.Error
	if errors.As(err, &richErr) {
		switch richErr.Category {
		case errors.CategoryConflict:
			// Conflicts surface as 400 on this API.
			status = fiber.StatusBadRequest
		case errors.CategoryValidation, errors.CategoryBadInput:
			status = fiber.StatusBadRequest
		case errors.CategoryAuth:
			status = fiber.StatusUnauthorized
		case errors.CategoryNotFound:
			status = fiber.StatusNotFound
		}
		if message == "" {
			message = richErr.Message
		}
	}

	if message == "" {
		message = "Server Error"
	}

	resp := Response{
		Success: false,
		Message: message,
	}

	if status == fiber.StatusInternalServerError && err != nil {
		resp.Error = err.Error()
	}

	return c.Status(status).JSON(resp)
}

// SendUser writes a success envelope carrying the password-stripped user,
// and the token when one was issued.
func SendUser(c *fiber.Ctx, status int, user *User, token string) error {
	return c.Status(status).JSON(Response{
		Success: true,
		Token:   token,
		User:    user.Public(),
	})
}
