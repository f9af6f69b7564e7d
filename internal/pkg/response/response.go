package response

import "github.com/gofiber/fiber/v2"

// GenericErrorMessage is returned for failures whose details stay server side
const GenericErrorMessage = "An error occurred while processing your request"

// Response represents a standard API response
type Response struct {
	Result    interface{} `json:"result"`
	IsSuccess bool        `json:"isSuccess"`
	Message   string      `json:"message"`
}

// Success sends a 200 response carrying result
func Success(c *fiber.Ctx, result interface{}) error {
	return c.JSON(Response{
		Result:    result,
		IsSuccess: true,
	})
}

// Error sends an error response
func Error(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(Response{
		IsSuccess: false,
		Message:   message,
	})
}

// BadRequest sends a 400 bad request response
func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, message)
}

// Forbidden sends a 403 forbidden response
func Forbidden(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusForbidden, message)
}

// TooManyRequests sends a 429 response
func TooManyRequests(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusTooManyRequests, message)
}

// InternalServerError sends a 500 response without failure details
func InternalServerError(c *fiber.Ctx) error {
	return Error(c, fiber.StatusInternalServerError, GenericErrorMessage)
}
