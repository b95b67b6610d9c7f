package handlers

import (
	"errors"
	"log"
	"strings"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/task-tracker-api/internal/errors"
	"github.com/yukikurage/task-tracker-api/internal/middleware"
	"github.com/yukikurage/task-tracker-api/internal/services"
)

// respondServiceError maps a service error class to an HTTP response.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		apierrors.Unauthorized(c, err.Error())
	case errors.Is(err, services.ErrForbidden):
		apierrors.ForbiddenWithReason(c, reason(err, services.ErrForbidden))
	case errors.Is(err, services.ErrValidation):
		apierrors.BadRequest(c, reason(err, services.ErrValidation))
	case errors.Is(err, services.ErrNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrConflict):
		apierrors.Conflict(c, reason(err, services.ErrConflict))
	case errors.Is(err, services.ErrPersistence):
		log.Printf("persistence failure: %v", err)
		apierrors.PersistenceFailure(c, "")
	default:
		log.Printf("unexpected error: %v", err)
		apierrors.InternalError(c, "")
	}
}

// reason strips the class prefix from a classified error message.
func reason(err error, class error) string {
	msg := strings.TrimPrefix(err.Error(), class.Error()+": ")
	if msg == "" {
		return class.Error()
	}
	return msg
}

// currentPrincipal fetches the principal set by middleware.LoadPrincipal.
func currentPrincipal(c *gin.Context) (services.Principal, bool) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
	}
	return principal, ok
}
