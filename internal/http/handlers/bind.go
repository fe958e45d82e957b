package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

func init() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	// report fields under their json names
	v.RegisterTagNameFunc(jsonFieldName)

	if err := v.RegisterValidation("maxbytes", maxBytes); err != nil {
		panic(err)
	}
}

func BindJSON(ctx *gin.Context, out interface{}) bool {
	err := ctx.ShouldBindJSON(out)

	if err != nil {
		RespondBadRequest(ctx, "Invalid request body", parseBindError(err))

		return false
	}

	return true
}

func parseBindError(err error) interface{} {
	// validator errors (struct bind tags)

	var validatorError validator.ValidationErrors

	if errors.As(err, &validatorError) {
		fields := make([]FieldError, 0, len(validatorError))

		for _, fieldError := range validatorError {
			rule := fieldError.Tag()
			param := fieldError.Param()

			fields = append(fields, FieldError{
				Field:   fieldError.Field(),
				Rule:    rule,
				Param:   param,
				Message: validationMessage(fieldError.Kind(), rule, param),
			})
		}
		return gin.H{"fields": fields}
	}

	// in the event of bad json

	var syntaxError *json.SyntaxError

	if errors.As(err, &syntaxError) {
		return gin.H{
			"json": "invalid_json_syntax",
		}
	}

	// in the event of a type mismatch; request bodies are flat, so the
	// decoder's field path is already the json key

	var unmatchedTypeError *json.UnmarshalTypeError

	if errors.As(err, &unmatchedTypeError) {
		field := strings.TrimSpace(unmatchedTypeError.Field)

		return gin.H{
			"json":  "invalid_json_type",
			"field": field,
			"fields": []FieldError{
				{
					Field:   field,
					Rule:    "type",
					Message: fmt.Sprintf("must be of type %s", unmatchedTypeError.Type.String()),
				},
			},
		}
	}

	// final fallback if the error could not be deciphered
	return gin.H{"reason": err.Error()}
}

func jsonFieldName(sf reflect.StructField) string {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")

	switch name {
	case "-":
		return ""
	case "":
		return sf.Name
	}
	return name
}

// maxbytes caps the encoded length of a string. bcrypt only reads 72 bytes,
// which max= (a rune count) cannot express.
func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}

	field := fl.Field()
	if field.Kind() != reflect.String {
		return false
	}

	return len(field.String()) <= limit
}

func validationMessage(kind reflect.Kind, rule, param string) string {
	unit := ""
	if kind == reflect.String {
		unit = " characters"
	}

	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + param + unit
	case "max":
		return "must be at most " + param + unit
	case "maxbytes":
		return "must be at most " + param + " bytes"
	default:
		if param != "" {
			return fmt.Sprintf("failed %s validation (%s)", rule, param)
		}
		return "failed " + rule + " validation"
	}
}
