package api

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin/binding"

	"github.com/go-playground/validator/v10"
)

// validateMaxBytes в отличии от тэга max который проверяет длину рун, - проверят длину байт в поле.
func validateMaxBytes(fl validator.FieldLevel) bool {
	param := fl.Param() // получаем значение из тега
	maxBytes, err := strconv.Atoi(param)
	if err != nil {
		return false
	}

	// нужно убедится что значение поля - строка.
	str, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	return len(str) <= maxBytes
}

// validateNotBlank проверяет что строка содержит что-то кроме пробельных символов.
func validateNotBlank(fl validator.FieldLevel) bool {
	str, ok := fl.Field().Interface().(string)
	return ok && strings.TrimSpace(str) != ""
}

func registerValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("validator registration: unexpected validator engine")
	}
	if err := v.RegisterValidation("max_bytes", validateMaxBytes); err != nil {
		return fmt.Errorf("validator registration: %s", err.Error())
	}
	if err := v.RegisterValidation("notblank", validateNotBlank); err != nil {
		return fmt.Errorf("validator registration: %s", err.Error())
	}
	return nil
}

// bindErrorText краткое описание ошибки биндинга для клиента.
func bindErrorText(err error) string {
	var valErrs validator.ValidationErrors
	if !errors.As(err, &valErrs) {
		return "invalid request body"
	}

	parts := make([]string, 0, len(valErrs))
	for _, fe := range valErrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required", "notblank":
			parts = append(parts, field+" is required")
		case "email":
			parts = append(parts, field+" must be a valid email")
		case "min":
			parts = append(parts, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		case "max", "max_bytes":
			parts = append(parts, fmt.Sprintf("%s must not exceed %s", field, fe.Param()))
		default:
			parts = append(parts, field+" is invalid")
		}
	}
	return strings.Join(parts, ", ")
}
