// Package server exposes the HTTP surface: the Twilio webhook plus
// health and debug routes.
package server

import (
	"encoding/xml"
	"log"
	"strings"
	"time"

	"remindbot/internal/dates"
	"remindbot/internal/scheduler"
	"remindbot/internal/sender"
	"remindbot/internal/sms"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Server struct {
	app      *fiber.App
	handler  *sms.Handler
	sched    *scheduler.Scheduler
	sender   *sender.Twilio
	resolver *dates.Resolver
}

func New(handler *sms.Handler, sched *scheduler.Scheduler, twilio *sender.Twilio, resolver *dates.Resolver) *Server {
	s := &Server{
		app:      fiber.New(fiber.Config{DisableStartupMessage: true}),
		handler:  handler,
		sched:    sched,
		sender:   twilio,
		resolver: resolver,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	s.app.Post("/sms", s.handleSMS)

	s.app.Get("/debug/sms", s.handleDebugSMS)
	s.app.Post("/debug/run-reminders", s.handleRunReminders)
	s.app.Post("/debug/send-test-message", s.handleSendTest)
	s.app.Get("/debug/messaging-status", func(c *fiber.Ctx) error {
		return c.JSON(s.sender.Status())
	})
	s.app.Get("/debug/test-date-parsing", s.handleTestDateParsing)
}

func (s *Server) Listen(addr string) error {
	log.Printf("HTTP server listening on %s", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// twiML is the two-element XML document Twilio expects back from the
// webhook.
type twiML struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

func respondTwiML(c *fiber.Ctx, messageBody string) error {
	out, err := xml.Marshal(twiML{Message: messageBody})
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/xml")
	return c.SendString(xml.Header + string(out))
}

func (s *Server) handleSMS(c *fiber.Ctx) error {
	body := strings.TrimSpace(c.FormValue("Body"))
	from := strings.TrimSpace(c.FormValue("From"))

	reply := s.handler.Process(c.UserContext(), body, from)
	return respondTwiML(c, reply)
}

// handleDebugSMS simulates an inbound message without Twilio in the
// loop; a synthetic message SID keeps the logs correlated.
func (s *Server) handleDebugSMS(c *fiber.Ctx) error {
	text := c.Query("text", "hello")
	from := c.Query("from_number", "+10000000000")

	sid := uuid.NewString()
	log.Printf("Simulated inbound message %s from %s", sid, from)

	reply := s.handler.Process(c.UserContext(), text, from)
	return respondTwiML(c, reply)
}

func (s *Server) handleRunReminders(c *fiber.Ctx) error {
	result, err := s.sched.RunScanNow(c.UserContext())
	if err != nil {
		log.Printf("Manual scan failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "scan failed"})
	}
	return c.JSON(fiber.Map{"attempted": result.Sent})
}

func (s *Server) handleSendTest(c *fiber.Ctx) error {
	err := s.sender.SendTest(c.UserContext())
	return c.JSON(fiber.Map{
		"success":       err == nil,
		"configuration": s.sender.Status(),
	})
}

func (s *Server) handleTestDateParsing(c *fiber.Ctx) error {
	text := c.Query("text", "remind me to test in 1 minute")

	var parsed interface{}
	due, ok := s.resolver.Resolve(text, time.Now().UTC())
	if ok {
		parsed = due.Format(time.RFC3339)
	}
	return c.JSON(fiber.Map{
		"input":       text,
		"parsed_date": parsed,
		"success":     ok,
	})
}
