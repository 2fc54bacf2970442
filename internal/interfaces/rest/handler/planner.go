package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	infra "github.com/pot-code/brain-trails/internal/infrastructure"
	"github.com/pot-code/brain-trails/internal/infrastructure/auth"
	"github.com/pot-code/brain-trails/internal/infrastructure/logging"
	"github.com/pot-code/brain-trails/internal/infrastructure/validate"
	"github.com/pot-code/brain-trails/internal/planner"
	"go.uber.org/zap"
)

// focus channel commands
const (
	focusStatus = "status"
	focusEnd    = "end"
)

// errFocusClosed ends the socket loop once the session is over
var errFocusClosed = errors.New("focus session closed")

type PlannerHandler struct {
	JWTUtil        *auth.JWTUtil
	PlannerUseCase planner.PlannerUseCase
	Validator      validate.Validator
	Websocket      *infra.Websocket
}

func NewPlannerHandler(
	JWTUtil *auth.JWTUtil,
	PlannerUseCase planner.PlannerUseCase,
	Validator validate.Validator,
	Websocket *infra.Websocket,
) *PlannerHandler {
	return &PlannerHandler{JWTUtil, PlannerUseCase, Validator, Websocket}
}

func plannerError(c echo.Context, err error) error {
	if errors.Is(err, planner.ErrSessionNotFound) {
		return respondError(c, http.StatusNotFound, err)
	}
	return err
}

func (ph *PlannerHandler) HandleListSessions(c echo.Context) error {
	sessions, err := ph.PlannerUseCase.ListSessions(c.Request().Context(), currentUser(c, ph.JWTUtil))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessions)
}

func (ph *PlannerHandler) HandleCreateSession(c echo.Context) error {
	post := new(planner.SessionPatch)
	if ok, err := bindAndValidate(c, ph.Validator, post); !ok {
		return err
	}
	s, err := ph.PlannerUseCase.CreateSession(c.Request().Context(), currentUser(c, ph.JWTUtil), post)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, s)
}

func (ph *PlannerHandler) HandleUpdateSession(c echo.Context) error {
	post := new(planner.SessionPatch)
	if ok, err := bindAndValidate(c, ph.Validator, post); !ok {
		return err
	}
	s, err := ph.PlannerUseCase.UpdateSession(c.Request().Context(), currentUser(c, ph.JWTUtil), c.Param("id"), post)
	if err != nil {
		return plannerError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (ph *PlannerHandler) HandleDeleteSession(c echo.Context) error {
	if err := ph.PlannerUseCase.DeleteSession(c.Request().Context(), currentUser(c, ph.JWTUtil), c.Param("id")); err != nil {
		return plannerError(c, err)
	}
	return message(c, http.StatusOK, "Session deleted")
}

// HandleWeekly minutes per weekday, ts must be in RFC3339 layout and defaults to now
func (ph *PlannerHandler) HandleWeekly(c echo.Context) error {
	at, errs := validate.RFC3339("ts", c.QueryParam("ts"), time.Now().UTC())
	if errs != nil {
		return c.JSON(http.StatusBadRequest, NewRESTValidationError(http.StatusBadRequest, "Failed to validate params", errs).
			SetTraceID(traceID(c)))
	}
	week, err := ph.PlannerUseCase.WeeklyMinutes(c.Request().Context(), currentUser(c, ph.JWTUtil), at)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, week)
}

type focusCommand struct {
	Action string `json:"action"`
}

type focusReply struct {
	Type    string                `json:"type"`
	Session *planner.SessionModel `json:"session,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// parseFocusCommand accept a bare word or {"action": "..."}
func parseFocusCommand(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if strings.HasPrefix(text, "{") {
		cmd := new(focusCommand)
		if err := json.Unmarshal([]byte(text), cmd); err != nil {
			return ""
		}
		text = cmd.Action
	}
	return strings.ToLower(strings.TrimSpace(text))
}

// HandleFocus live channel of one study session, the session must exist before the upgrade
func (ph *PlannerHandler) HandleFocus(c echo.Context) error {
	uid, sid := currentUser(c, ph.JWTUtil), c.Param("id")
	if _, err := ph.PlannerUseCase.GetSession(c.Request().Context(), uid, sid); err != nil {
		return plannerError(c, err)
	}
	return ph.Websocket.WithHeartbeat(func(c echo.Context, conn *websocket.Conn) error {
		return ph.focusExchange(c, conn, uid, sid)
	})(c)
}

func (ph *PlannerHandler) focusExchange(c echo.Context, conn *websocket.Conn, uid, sid string) error {
	ctx := c.Request().Context()
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return err
	}

	var (
		session *planner.SessionModel
		reply   = &focusReply{}
		closed  bool
	)
	switch parseFocusCommand(raw) {
	case focusStatus:
		session, err = ph.PlannerUseCase.GetSession(ctx, uid, sid)
	case focusEnd:
		session, err = ph.PlannerUseCase.EndSession(ctx, uid, sid)
		closed = err == nil
	default:
		reply.Type = "error"
		reply.Error = fmt.Sprintf("unknown command, expected %s or %s", focusStatus, focusEnd)
		return conn.WriteJSON(reply)
	}
	if err != nil {
		logging.ExtractLoggerFromContext(ctx).Warn("focus command failed", zap.String("session.id", sid), zap.Error(err))
		reply.Type = "error"
		reply.Error = err.Error()
		if werr := conn.WriteJSON(reply); werr != nil {
			return werr
		}
		return err
	}

	reply.Type = "session"
	reply.Session = session
	if err := conn.WriteJSON(reply); err != nil {
		return err
	}
	if closed {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"), time.Now().Add(time.Second))
		return errFocusClosed
	}
	return nil
}
