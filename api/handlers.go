package api

import (
	"context"
	"runtime"
	"strconv"
	"time"

	"github.com/CristiGvl/picoFanCtl/internal/control"
	"github.com/gofiber/fiber/v2"
)

// Health check endpoint
func (s *Server) healthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"platform":  runtime.GOOS,
		"fans":      len(s.loops),
		"timestamp": time.Now().Unix(),
	})
}

// Fan endpoints
func (s *Server) getFans(c *fiber.Ctx) error {
	statuses := make([]control.Status, 0, len(s.order))
	for _, name := range s.order {
		statuses = append(statuses, s.loops[name].Status())
	}
	return c.JSON(statuses)
}

func (s *Server) getFan(c *fiber.Ctx) error {
	loop, ok := s.loops[c.Params("name")]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "fan not found"})
	}
	return c.JSON(loop.Status())
}

// getFanCurve previews the speed the fan would get at ?temp=N without applying it
func (s *Server) getFanCurve(c *fiber.Ctx) error {
	loop, ok := s.loops[c.Params("name")]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "fan not found"})
	}

	temp, err := strconv.ParseUint(c.Query("temp"), 10, 8)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "temp must be an integer between 0 and 255"})
	}

	return c.JSON(fiber.Map{
		"temperature_celsius": temp,
		"speed":               loop.Driver().CalcSpeed(uint8(temp)),
	})
}

// Temperature endpoint
func (s *Server) getTemps(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	info, err := s.tempsReader.GetInfo(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(info)
}
