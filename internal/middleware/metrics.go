package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

type RequestObserver interface {
	ObserveHTTPRequest(method, route string, status int, d time.Duration)
}

// Metrics records one observation per request, labelled by the matched route
// pattern so path parameters stay out of the label set.
func Metrics(observer RequestObserver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		observer.ObserveHTTPRequest(c.Method(), c.Route().Path, status, time.Since(start))
		return err
	}
}
