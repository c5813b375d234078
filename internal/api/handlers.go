package api

import (
	"crypto/subtle"
	stderrors "errors"
	"net/http"
	"time"

	apperrors "github.com/gmsas95/medreminder/internal/errors"
	"github.com/gmsas95/medreminder/internal/medication"
	"github.com/gmsas95/medreminder/internal/reminder"
	"github.com/gmsas95/medreminder/internal/voice"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"version":   "0.1.0",
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req struct {
		Password string `json:"password"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	// an unset admin password leaves the API open to anyone who can reach it
	want := s.config.Security.AdminPassword
	if want != "" && subtle.ConstantTimeCompare([]byte(req.Password), []byte(want)) != 1 {
		return c.Status(401).JSON(fiber.Map{"error": "invalid password"})
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "default",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(7 * 24 * time.Hour).Unix(),
	})

	tokenString, err := token.SignedString([]byte(s.config.Security.JWTSecret))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to generate token"})
	}

	return c.JSON(fiber.Map{"token": tokenString})
}

func (s *Server) handleListMedications(c *fiber.Ctx) error {
	meds, err := s.medications.ListMedications(c.UserContext())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(meds)
}

func (s *Server) handleAddMedication(c *fiber.Ctx) error {
	var req createMedicationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	if req.Days != "" {
		days, err := medication.ParseWeekdays(req.Days)
		if err != nil {
			return s.fail(c, apperrors.Validation("%s", err.Error()))
		}
		req.SelectedDays = days
	}

	med, err := s.medications.AddMedication(c.UserContext(), req.NewMedication)
	if err != nil {
		return s.fail(c, err)
	}

	s.resync(c)
	return c.Status(201).JSON(med)
}

func (s *Server) handleGetMedication(c *fiber.Ctx) error {
	id, err := medicationID(c)
	if err != nil {
		return s.fail(c, err)
	}

	med, err := s.medications.GetMedication(c.UserContext(), id)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(med)
}

func (s *Server) handleDeleteMedication(c *fiber.Ctx) error {
	id, err := medicationID(c)
	if err != nil {
		return s.fail(c, err)
	}

	if err := s.medications.DeleteMedication(c.UserContext(), id); err != nil {
		return s.fail(c, err)
	}

	s.resync(c)
	return c.SendStatus(204)
}

func (s *Server) handleLogDose(c *fiber.Ctx) error {
	id, err := medicationID(c)
	if err != nil {
		return s.fail(c, err)
	}

	var req logDoseRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
	}

	date := req.Date
	if date == "" {
		date = medication.FormatDate(s.now().In(s.location))
	}
	taken := true
	if req.Taken != nil {
		taken = *req.Taken
	}

	entry, err := s.medications.LogDose(c.UserContext(), id, date, taken)
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(201).JSON(entry)
}

func (s *Server) handleTriggers(c *fiber.Ctx) error {
	id, err := medicationID(c)
	if err != nil {
		return s.fail(c, err)
	}

	med, err := s.medications.GetMedication(c.UserContext(), id)
	if err != nil {
		return s.fail(c, err)
	}

	triggers, err := reminder.TriggersFor(*med, s.now().In(s.location))
	if err != nil {
		return s.fail(c, apperrors.Validation("schedule %q is not a time of day", med.Schedule))
	}
	return c.JSON(triggers)
}

func (s *Server) handleDescribe(c *fiber.Ctx) error {
	id, err := medicationID(c)
	if err != nil {
		return s.fail(c, err)
	}

	med, err := s.medications.GetMedication(c.UserContext(), id)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"text": voice.DescribeMedication(*med)})
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	date := c.Query("date", medication.FormatDate(s.now().In(s.location)))

	st, err := s.tracker.Today(c.UserContext(), date)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(statusResponse{
		Date:   date,
		Total:  st.Total,
		Taken:  st.Taken,
		Status: st.String(),
		Notice: st.Notice(),
	})
}

func (s *Server) handleHistory(c *fiber.Ctx) error {
	history, err := s.medications.History(c.UserContext())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(history)
}

func (s *Server) handleAsk(c *fiber.Ctx) error {
	var req askRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	answer, err := s.voice.AskQuestion(c.UserContext(), req.Question)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"answer": answer})
}

func (s *Server) handleSpeech(c *fiber.Ctx) error {
	var req speechRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	text := req.Text
	if req.MedicationID != 0 {
		med, err := s.medications.GetMedication(c.UserContext(), req.MedicationID)
		if err != nil {
			return s.fail(c, err)
		}
		text = voice.DescribeMedication(*med)
	}

	audio, err := s.voice.SynthesizeSpeech(c.UserContext(), text)
	if err != nil {
		return s.fail(c, err)
	}

	c.Set(fiber.HeaderContentType, "audio/mpeg")
	return c.Send(audio)
}

func (s *Server) handleGetVoice(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"current": s.voice.Themes().Current(),
		"themes":  voice.Themes,
	})
}

func (s *Server) handleSetVoice(c *fiber.Ctx) error {
	var req voiceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	theme, err := s.voice.Themes().Select(req.Name)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(theme)
}

func (s *Server) resync(c *fiber.Ctx) {
	if s.reminders == nil {
		return
	}
	if err := s.reminders.Resync(c.UserContext()); err != nil {
		s.logger.Warn("Failed to resync reminders", zap.Error(err))
	}
}

func medicationID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, apperrors.Validation("invalid medication id %q", c.Params("id"))
	}
	return uint(id), nil
}

// fail writes err as a JSON error with a status derived from its code
func (s *Server) fail(c *fiber.Ctx, err error) error {
	status := statusFor(err)

	message := "internal error"
	var appErr *apperrors.AppError
	if stderrors.As(err, &appErr) {
		message = appErr.Message
	}

	if status >= 500 {
		s.logger.Error("Request failed",
			zap.String("path", c.Path()),
			zap.Any("request_id", c.Locals("request_id")),
			zap.Error(err),
		)
	}

	return c.Status(status).JSON(fiber.Map{
		"error": message,
		"code":  apperrors.GetCode(err),
	})
}

func statusFor(err error) int {
	switch apperrors.GetCode(err) {
	case apperrors.CodeValidation:
		return http.StatusBadRequest
	case apperrors.CodeDuplicateLog:
		return http.StatusConflict
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
