package service

import (
	"formar_portal/internal/util"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validateDraft 表单校验失败统一返回 msg
func validateDraft(v interface{}, msg string) error {
	if err := validate.Struct(v); err != nil {
		return util.WrapUserError(http.StatusBadRequest, msg, err)
	}
	return nil
}
