package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/auth"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type PayrollHandler interface {
	// Computation
	GetAggregate(w http.ResponseWriter, r *http.Request)
	Preview(w http.ResponseWriter, r *http.Request)
	PreviewBatch(w http.ResponseWriter, r *http.Request)

	// Salary Slips
	SendSlip(w http.ResponseWriter, r *http.Request)
	GetSlip(w http.ResponseWriter, r *http.Request)
	ListSlips(w http.ResponseWriter, r *http.Request)
	DeleteSlip(w http.ResponseWriter, r *http.Request)

	// Rule
	GetRule(w http.ResponseWriter, r *http.Request)
	UpdateRule(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService}
}

// ========== COMPUTATION ==========

// periodFromQuery reads ?employee_id&month&year. Unparseable numbers are left
// at zero so validation reports them.
func periodFromQuery(r *http.Request, claims auth.Claims) (payroll.PeriodRequest, error) {
	query := r.URL.Query()
	req := payroll.PeriodRequest{CompanyID: claims.CompanyID}
	req.Month, _ = strconv.Atoi(query.Get("month"))
	req.Year, _ = strconv.Atoi(query.Get("year"))

	employeeID, err := claims.ResolveEmployee(query.Get("employee_id"))
	if err != nil {
		return payroll.PeriodRequest{}, err
	}
	req.EmployeeID = employeeID

	return req, nil
}

func (h *payrollHandlerImpl) GetAggregate(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	req, err := periodFromQuery(r, claims)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.payrollService.ComputeMonth(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, payroll.NewMonthlyAggregateResponse(result))
}

func (h *payrollHandlerImpl) Preview(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	req, err := periodFromQuery(r, claims)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.payrollService.CalculatePayroll(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, payroll.NewPayrollResultResponse(result))
}

func (h *payrollHandlerImpl) PreviewBatch(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req payroll.BatchPayrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.CompanyID = claims.CompanyID

	result, err := h.payrollService.CalculateCompanyPayroll(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== SALARY SLIPS ==========

func (h *payrollHandlerImpl) SendSlip(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req payroll.PeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.CompanyID = claims.CompanyID

	slip, err := h.payrollService.SendSlip(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Salary slip sent", payroll.NewSalarySlipResponse(slip))
}

func (h *payrollHandlerImpl) GetSlip(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	slip, err := h.payrollService.GetSlip(r.Context(), chi.URLParam(r, "id"), claims.CompanyID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	// Employees only see their own slips; others look missing.
	if !claims.CanManage() && slip.EmployeeID != claims.EmployeeID {
		response.HandleError(w, payroll.ErrSlipNotFound)
		return
	}

	response.Success(w, payroll.NewSalarySlipResponse(slip))
}

func (h *payrollHandlerImpl) ListSlips(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	query := r.URL.Query()
	filter := payroll.SlipFilter{Page: 1, Limit: 20}

	if pageStr := query.Get("page"); pageStr != "" {
		if page, err := strconv.Atoi(pageStr); err == nil && page > 0 {
			filter.Page = page
		}
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}
	if monthStr := query.Get("month"); monthStr != "" {
		if month, err := strconv.Atoi(monthStr); err == nil {
			filter.Month = &month
		}
	}
	if yearStr := query.Get("year"); yearStr != "" {
		if year, err := strconv.Atoi(yearStr); err == nil {
			filter.Year = &year
		}
	}
	if employeeID := query.Get("employee_id"); employeeID != "" {
		filter.EmployeeID = &employeeID
	}

	if !claims.CanManage() {
		if claims.EmployeeID == "" {
			response.HandleError(w, auth.ErrEmployeeIDRequired)
			return
		}
		filter.EmployeeID = &claims.EmployeeID
	}

	result, err := h.payrollService.ListSlips(r.Context(), claims.CompanyID, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	totalPages := int(result.TotalCount) / result.Limit
	if int(result.TotalCount)%result.Limit > 0 {
		totalPages++
	}

	response.SuccessWithMeta(w, result.Data, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: totalPages,
	})
}

func (h *payrollHandlerImpl) DeleteSlip(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if err := h.payrollService.DeleteSlip(r.Context(), chi.URLParam(r, "id"), claims.CompanyID); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Salary slip deleted", nil)
}

// ========== RULE ==========

func (h *payrollHandlerImpl) GetRule(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	rule, err := h.payrollService.GetRule(r.Context(), claims.CompanyID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, rule)
}

func (h *payrollHandlerImpl) UpdateRule(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req payroll.UpdatePayrollRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.CompanyID = claims.CompanyID

	rule, err := h.payrollService.UpdateRule(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll rule updated", rule)
}
