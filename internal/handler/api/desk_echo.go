package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"PaperDesk/internal/domain/models"
	drepo "PaperDesk/internal/domain/repository"
	"PaperDesk/internal/usecase"
	"PaperDesk/internal/ws"
	xhttp "PaperDesk/pkg/http"
	xlogger "PaperDesk/pkg/logger"
	"PaperDesk/pkg/util"
)

// DeskEchoHandler exposes the trading desk over Echo-based HTTP handlers.
type DeskEchoHandler struct {
	logger  *xlogger.Logger
	desk    *usecase.Desk
	hub     *ws.Hub
	archive drepo.TickArchive
}

func NewDeskEchoHandler(logger *xlogger.Logger, desk *usecase.Desk, hub *ws.Hub, archive drepo.TickArchive) *DeskEchoHandler {
	return &DeskEchoHandler{logger: logger, desk: desk, hub: hub, archive: archive}
}

func (h *DeskEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/account", h.CreateAccount)
	g.POST("/session/open", h.OpenSession)
	g.POST("/session/close", h.CloseSession)
	g.GET("/dashboard", h.Dashboard)
	g.GET("/history", h.History)
	g.POST("/trade/buy", h.Buy)
	g.POST("/trade/sell", h.Sell)
	g.POST("/wager/ascend", h.StartAscend)
	g.POST("/wager/crash", h.StartCrash)
	g.POST("/wager/crash/withdraw", h.WithdrawCrash)
	g.POST("/wager/reset", h.ResetWager)

	if h.hub != nil {
		e.GET("/ws", echo.WrapHandler(http.HandlerFunc(h.hub.HandleWS)))
	}
}

func (h *DeskEchoHandler) CreateAccount(c echo.Context) error {
	req := &models.CreateAccountRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	s, err := h.desk.Create(c.Request().Context(), req.AccountID, req.StartCash)
	if err != nil {
		h.logger.Error("create account error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, deskError(err))
	}
	return xhttp.CreatedResponse(c, s.Dashboard())
}

func (h *DeskEchoHandler) OpenSession(c echo.Context) error {
	req := &models.SessionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	s, err := h.desk.Open(c.Request().Context(), req.AccountID)
	if err != nil {
		h.logger.Error("open session error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, deskError(err))
	}
	return xhttp.SuccessResponse(c, s.Dashboard())
}

func (h *DeskEchoHandler) CloseSession(c echo.Context) error {
	req := &models.SessionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if err := h.desk.Close(c.Request().Context(), req.AccountID); err != nil {
		h.logger.Error("close session error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, deskError(err))
	}
	return xhttp.NoContentResponse(c)
}

func (h *DeskEchoHandler) Dashboard(c echo.Context) error {
	req := &models.SessionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	s, err := h.desk.Get(req.AccountID)
	if err != nil {
		return xhttp.AppErrorResponse(c, deskError(err))
	}
	return xhttp.SuccessResponse(c, s.Dashboard())
}

// History serves a time range of archived ticks. From and To accept RFC3339
// or unix seconds; the range snaps to Step boundaries.
func (h *DeskEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.archive == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("tick history is not enabled"))
	}

	to := xhttp.ParseTimeDefault(req.To, time.Now())
	from := xhttp.ParseTimeDefault(req.From, to.Add(-time.Hour))
	from, to = util.AlignFromTo(from, to, req.Step)

	limit := xhttp.ParseIntDefault(req.Limit, 500)
	if limit <= 0 || limit > 10_000 {
		limit = 500
	}

	ticks, err := h.archive.History(c.Request().Context(), req.AccountID, from, to, limit)
	if err != nil {
		h.logger.Error("tick history error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("something went wrong").WithError(err))
	}
	return xhttp.SuccessResponse(c, ticks)
}

func (h *DeskEchoHandler) Buy(c echo.Context) error {
	return h.trade(c, models.SideBuy)
}

func (h *DeskEchoHandler) Sell(c echo.Context) error {
	return h.trade(c, models.SideSell)
}

func (h *DeskEchoHandler) trade(c echo.Context, side models.TradeSide) error {
	req := &models.TradeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	s, err := h.desk.Get(req.AccountID)
	if err != nil {
		return xhttp.AppErrorResponse(c, deskError(err))
	}

	var res models.TradeResult
	switch side {
	case models.SideBuy:
		res, err = s.Buy(c.Request().Context(), req.Amount)
	default:
		res, err = s.Sell(c.Request().Context(), req.Amount)
	}
	if err != nil {
		return xhttp.AppErrorResponse(c, deskError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DeskEchoHandler) StartAscend(c echo.Context) error {
	req := &models.AscendRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	s, err := h.desk.Get(req.AccountID)
	if err != nil {
		return xhttp.AppErrorResponse(c, deskError(err))
	}
	if err := s.StartAscend(req.Stake, models.WagerDirection(req.Direction)); err != nil {
		return xhttp.AppErrorResponse(c, deskError(err))
	}
	return xhttp.SuccessResponse(c, s.Dashboard())
}

func (h *DeskEchoHandler) StartCrash(c echo.Context) error {
	req := &models.CrashRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	s, err := h.desk.Get(req.AccountID)
	if err != nil {
		return xhttp.AppErrorResponse(c, deskError(err))
	}
	if err := s.StartCrash(req.Stake); err != nil {
		return xhttp.AppErrorResponse(c, deskError(err))
	}
	return xhttp.SuccessResponse(c, s.Dashboard())
}

func (h *DeskEchoHandler) WithdrawCrash(c echo.Context) error {
	req := &models.SessionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	s, err := h.desk.Get(req.AccountID)
	if err != nil {
		return xhttp.AppErrorResponse(c, deskError(err))
	}
	outcome, err := s.WithdrawCrash()
	if err != nil {
		return xhttp.AppErrorResponse(c, deskError(err))
	}
	return xhttp.SuccessResponse(c, outcome)
}

func (h *DeskEchoHandler) ResetWager(c echo.Context) error {
	req := &models.SessionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	s, err := h.desk.Get(req.AccountID)
	if err != nil {
		return xhttp.AppErrorResponse(c, deskError(err))
	}
	if err := s.ResetWager(); err != nil {
		return xhttp.AppErrorResponse(c, deskError(err))
	}
	return xhttp.SuccessResponse(c, s.Dashboard())
}

// deskError maps the domain error taxonomy onto HTTP statuses.
func deskError(err error) *xhttp.AppError {
	switch {
	case errors.Is(err, models.ErrInvalidAmount):
		return xhttp.NewAppError("ERR_INVALID_AMOUNT", "amount", err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrInsufficientFunds):
		return xhttp.NewAppError("ERR_INSUFFICIENT_FUNDS", "amount", err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrInsufficientAsset):
		return xhttp.NewAppError("ERR_INSUFFICIENT_ASSET", "amount", err.Error(), http.StatusBadRequest)
	case errors.Is(err, models.ErrSessionConflict):
		return xhttp.NewAppError("ERR_SESSION_CONFLICT", "", err.Error(), http.StatusConflict)
	case errors.Is(err, models.ErrAccountNotFound):
		return xhttp.NotFoundError(err.Error())
	default:
		return xhttp.InternalError("something went wrong").WithError(err)
	}
}
