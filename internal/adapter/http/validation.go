package http

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/simaogato/luthier-backend/internal/domain"
)

var setupValidator sync.Once

// SetupValidator names fields by their json tag and registers the domain tags
// relationship and instrument_status. Safe to call more than once.
func SetupValidator() {
	setupValidator.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("relationship", func(fl validator.FieldLevel) bool {
			return domain.RelationshipType(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("instrument_status", func(fl validator.FieldLevel) bool {
			return domain.InstrumentStatus(fl.Field().String()).Valid()
		})
	})
}

// BindError reports a request body that failed to decode or validate
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		h.BadRequest(c, err.Error())
		return
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Field()+": "+validationMessage(fe))
	}
	h.Error(c, ErrCodeBadRequest, strings.Join(msgs, "; "))
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "relationship":
		return "must be one of Interested, Booked, Sold, Owned"
	case "instrument_status":
		return "must be one of Available, Booked, Reserved, Sold, Maintenance"
	default:
		return "failed on " + fe.Tag()
	}
}
