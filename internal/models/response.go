package models

import "github.com/gofiber/fiber/v2"

// Envelope is the response shape shared by every API endpoint.
type Envelope struct {
	Success    bool   `json:"success"`
	Data       any    `json:"data,omitempty"`
	Message    string `json:"message,omitempty"`
	Code       string `json:"code,omitempty"`
	Details    string `json:"details,omitempty"`
	Pagination any    `json:"pagination,omitempty"`
}

// RespondOK writes a 200 success envelope.
func RespondOK(c *fiber.Ctx, data any) error {
	return c.JSON(Envelope{Success: true, Data: data})
}

// RespondCreated writes a 201 success envelope.
func RespondCreated(c *fiber.Ctx, data any, message string) error {
	return c.Status(fiber.StatusCreated).JSON(Envelope{Success: true, Data: data, Message: message})
}

// RespondMessage writes a 200 success envelope carrying only a message.
func RespondMessage(c *fiber.Ctx, message string) error {
	return c.JSON(Envelope{Success: true, Message: message})
}

// RespondPage writes a success envelope for a paginated listing.
func RespondPage(c *fiber.Ctx, data any, pagination any) error {
	return c.JSON(Envelope{Success: true, Data: data, Pagination: pagination})
}
