package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

// BindJSON binds the request body into out and, on failure, writes a
// 400 with per-field details. Returns false when the response has
// already been written.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	if err := ctx.ShouldBindJSON(out); err != nil {
		RespondBadRequest(ctx, "Invalid request body", bindErrorDetails(err, out))
		return false
	}

	return true
}

func bindErrorDetails(err error, out interface{}) interface{} {
	root := structTypeOf(out)

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]FieldError, 0, len(verrs))

		for _, fe := range verrs {
			field := jsonFieldForValidator(root, fe)
			rule := fe.Tag()
			param := fe.Param()

			fields = append(fields, FieldError{
				Field:   field,
				Rule:    rule,
				Param:   param,
				Message: ruleMessage(rule, param),
			})
		}

		return gin.H{"fields": fields}
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return gin.H{"json": "empty_body"}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return gin.H{"json": "invalid_json_syntax"}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := jsonFieldForDotPath(root, typeErr.Field)
		if field == "" {
			field = strings.TrimSpace(typeErr.Field)
		}

		return gin.H{
			"json":  "invalid_json_type",
			"field": field,
			"fields": []FieldError{
				{
					Field:   field,
					Rule:    "type",
					Message: fmt.Sprintf("must be of type %s", typeErr.Type.String()),
				},
			},
		}
	}

	return gin.H{"reason": err.Error()}
}

func structTypeOf(v interface{}) reflect.Type {
	t := reflect.TypeOf(v)

	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t != nil && t.Kind() == reflect.Struct {
		return t
	}

	return nil
}

// jsonFieldForValidator turns a validator namespace like
// "RegisterRequest.FullName" into the json path "fullName".
func jsonFieldForValidator(root reflect.Type, fe validator.FieldError) string {
	ns := fe.StructNamespace()
	if ns == "" {
		ns = fe.Namespace()
	}
	if ns == "" {
		return fe.Field()
	}

	parts := strings.Split(ns, ".")
	if len(parts) == 0 {
		return fe.Field()
	}

	if root != nil && root.Name() != "" && parts[0] == root.Name() {
		parts = parts[1:]
	}

	if path := structPathToJSONPath(root, parts); path != "" {
		return path
	}

	return fe.Field()
}

func jsonFieldForDotPath(root reflect.Type, dotPath string) string {
	dotPath = strings.TrimSpace(dotPath)
	if dotPath == "" {
		return ""
	}

	return structPathToJSONPath(root, strings.Split(dotPath, "."))
}

func structPathToJSONPath(root reflect.Type, parts []string) string {
	if len(parts) == 0 {
		return ""
	}

	current := root
	out := make([]string, 0, len(parts))

	for _, raw := range parts {
		if raw == "" {
			continue
		}

		name, indexSuffix := cutIndexSuffix(raw)
		jsonName := name

		var next reflect.Type
		if current != nil {
			for current.Kind() == reflect.Pointer {
				current = current.Elem()
			}

			if current.Kind() == reflect.Struct {
				if sf, ok := current.FieldByName(name); ok {
					jsonName = jsonTagName(sf)
					next = sf.Type
				}
			}
		}

		out = append(out, jsonName+indexSuffix)

		if next != nil {
			current = elemType(next)
		} else {
			current = nil
		}
	}

	return strings.Join(out, ".")
}

func cutIndexSuffix(part string) (string, string) {
	i := strings.Index(part, "[")
	if i == -1 {
		return part, ""
	}

	return part[:i], part[i:]
}

func jsonTagName(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if tag == "" {
		return sf.Name
	}

	name, _, _ := strings.Cut(tag, ",")
	if name == "" || name == "-" {
		return sf.Name
	}

	return name
}

func elemType(t reflect.Type) reflect.Type {
	for t != nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array:
			t = t.Elem()
		default:
			return t
		}
	}

	return nil
}

func ruleMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "numeric":
		return "must contain only digits"
	case "uuid":
		return "must be a valid UUID"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "len":
		return "must be exactly " + param
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	default:
		if param != "" {
			return fmt.Sprintf("failed %s validation (%s)", rule, param)
		}
		return "failed " + rule + " validation"
	}
}
