package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/clock"
)

type AttendanceHandler interface {
	CheckIn(w http.ResponseWriter, r *http.Request)
	CheckOut(w http.ResponseWriter, r *http.Request)
	BreakStart(w http.ResponseWriter, r *http.Request)
	BreakEnd(w http.ResponseWriter, r *http.Request)
	GetState(w http.ResponseWriter, r *http.Request)
	GetClassification(w http.ResponseWriter, r *http.Request)
	GetConfig(w http.ResponseWriter, r *http.Request)
	UpdateConfig(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

type recordFunc func(ctx context.Context, req attendance.RecordRequest) (attendance.DayState, error)

// CheckIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckIn(w http.ResponseWriter, r *http.Request) {
	h.record(w, r, h.attendanceService.RecordCheckIn, "Check in successful")
}

// CheckOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckOut(w http.ResponseWriter, r *http.Request) {
	h.record(w, r, h.attendanceService.RecordCheckOut, "Check out successful")
}

// BreakStart implements AttendanceHandler.
func (h *attendanceHandlerImpl) BreakStart(w http.ResponseWriter, r *http.Request) {
	h.record(w, r, h.attendanceService.RecordBreakStart, "Break started")
}

// BreakEnd implements AttendanceHandler.
func (h *attendanceHandlerImpl) BreakEnd(w http.ResponseWriter, r *http.Request) {
	h.record(w, r, h.attendanceService.RecordBreakEnd, "Break ended")
}

func (h *attendanceHandlerImpl) record(w http.ResponseWriter, r *http.Request, apply recordFunc, message string) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	// An empty body records for the caller on today's date.
	var req attendance.RecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	req.CompanyID = claims.CompanyID
	req.EmployeeID, err = claims.ResolveEmployee(req.EmployeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	// Only managers may close out an earlier day.
	req.AllowPastDate = claims.CanManage()

	state, err := apply(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, message, attendance.NewDayStateResponse(state, h.location(r.Context(), claims.CompanyID)))
}

// GetState implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetState(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseDayQuery(w, r)
	if !ok {
		return
	}

	state, err := h.attendanceService.GetDayState(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, attendance.NewDayStateResponse(state, h.location(r.Context(), req.CompanyID)))
}

// GetClassification implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetClassification(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseDayQuery(w, r)
	if !ok {
		return
	}

	classification, err := h.attendanceService.ClassifyDay(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, attendance.NewDayClassificationResponse(classification))
}

// parseDayQuery reads ?employee_id&date. The date defaults to today in the company timezone.
func (h *attendanceHandlerImpl) parseDayQuery(w http.ResponseWriter, r *http.Request) (attendance.ClassifyDayRequest, bool) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return attendance.ClassifyDayRequest{}, false
	}

	query := r.URL.Query()
	req := attendance.ClassifyDayRequest{
		CompanyID: claims.CompanyID,
		Date:      query.Get("date"),
	}

	req.EmployeeID, err = claims.ResolveEmployee(query.Get("employee_id"))
	if err != nil {
		response.HandleError(w, err)
		return attendance.ClassifyDayRequest{}, false
	}

	if req.Date == "" {
		req.Date = time.Now().In(h.location(r.Context(), claims.CompanyID)).Format("2006-01-02")
	}

	return req, true
}

// location resolves the company timezone for rendering instants, falling back to UTC.
func (h *attendanceHandlerImpl) location(ctx context.Context, companyID string) *time.Location {
	config, err := h.attendanceService.GetConfig(ctx, companyID)
	if err != nil {
		return time.UTC
	}
	return clock.LoadLocation(config.Timezone)
}

// GetConfig implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetConfig(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	config, err := h.attendanceService.GetConfig(r.Context(), claims.CompanyID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, attendance.NewAttendanceConfigResponse(config))
}

// UpdateConfig implements AttendanceHandler.
func (h *attendanceHandlerImpl) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req attendance.UpdateAttendanceConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.CompanyID = claims.CompanyID

	config, err := h.attendanceService.UpdateConfig(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance config updated", attendance.NewAttendanceConfigResponse(config))
}
