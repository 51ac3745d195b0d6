package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/camden-git/clipcatalog/models"
	"github.com/camden-git/clipcatalog/repository"
	"github.com/camden-git/clipcatalog/services"
)

// error codes returned in APIErrorDetail.Code
const (
	CodeNotFound      = "not_found"
	CodeBadRequest    = "bad_request"
	CodeInvalidFilter = "invalid_filter"
	CodeInvalidInput  = "invalid_input"
	CodeCameraInUse   = "camera_in_use"
	CodeUnavailable   = "unavailable"
	CodeInternal      = "internal_error"
)

// APIErrorDetail represents a single error in the standardized error response.
type APIErrorDetail struct {
	Code   string `json:"code"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// APIErrorResponse represents the standardized error response body.
type APIErrorResponse struct {
	Errors []APIErrorDetail `json:"errors"`
}

// WriteAPIError writes a standardized error response with the given HTTP status, code, and detail.
func WriteAPIError(w http.ResponseWriter, httpStatus int, code string, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	resp := APIErrorResponse{
		Errors: []APIErrorDetail{
			{
				Code:   code,
				Status: strconv.Itoa(httpStatus),
				Detail: detail,
			},
		},
	}

	_ = json.NewEncoder(w).Encode(resp)
}

// writeServiceError maps repository and service errors onto API errors.
// Anything unrecognized is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		WriteAPIError(w, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidTimeWindow):
		WriteAPIError(w, http.StatusUnprocessableEntity, CodeInvalidFilter, err.Error())
	case errors.Is(err, models.ErrInvalidRadius),
		errors.Is(err, models.ErrInvalidCoordinates),
		errors.Is(err, repository.ErrInvalidSampleRate),
		errors.Is(err, repository.ErrSpanOutsideParent):
		WriteAPIError(w, http.StatusUnprocessableEntity, CodeInvalidInput, err.Error())
	case errors.Is(err, repository.ErrCameraInUse):
		WriteAPIError(w, http.StatusConflict, CodeCameraInUse, err.Error())
	case errors.Is(err, services.ErrDetectorDisabled):
		WriteAPIError(w, http.StatusServiceUnavailable, CodeUnavailable, err.Error())
	default:
		log.Printf("Error while trying to %s: %v", action, err)
		WriteAPIError(w, http.StatusInternalServerError, CodeInternal, "Failed to "+action)
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("Error encoding JSON response: %v", err)
		}
	}
}

// decodeJSON reads the request body into v, answering 400 on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}
