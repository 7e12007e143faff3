package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// JSONResponse writes data as-is with the given status.
func JSONResponse(c echo.Context, statusCode int, data interface{}) error {
	return c.JSON(statusCode, data)
}

// SuccessResponse writes a 200 response.
func SuccessResponse(c echo.Context, data interface{}) error {
	return JSONResponse(c, http.StatusOK, data)
}

// DetailErrorResponse writes {"detail": message} with the given status.
func DetailErrorResponse(c echo.Context, statusCode int, message string) error {
	return JSONResponse(c, statusCode, DetailResponse{Detail: message})
}

// BadRequestResponse writes a 400 built from validation errors. The first
// message becomes the detail.
func BadRequestResponse(c echo.Context, errs []ValidationError) error {
	detail := http.StatusText(http.StatusBadRequest)
	if len(errs) > 0 && errs[0].Message != "" {
		detail = errs[0].Message
	}
	return JSONResponse(c, http.StatusBadRequest, DetailResponse{Detail: detail, Errors: errs})
}

// InternalServerErrorResponse writes internal server error.
func InternalServerErrorResponse(c echo.Context) error {
	return DetailErrorResponse(c, http.StatusInternalServerError, "Internal Server Error")
}

// AppErrorResponse writes application error response.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return DetailErrorResponse(c, appErr.Status, appErr.Message)
	}
	return InternalServerErrorResponse(c)
}
