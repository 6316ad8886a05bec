package session

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator"
)

type signUpInput struct {
	DisplayName string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required"`
	Password    string `json:"password" validate:"required"`
}

type signInInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// checkRequired прогоняет уже обрезанные значения через валидатор.
func checkRequired(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return &ValidationError{Fields: fields}
}

// ValidateSignUp проверяет форму регистрации и возвращает нормализованный запрос.
func ValidateSignUp(name, email, password string) (Request, error) {
	in := signUpInput{
		DisplayName: strings.TrimSpace(name),
		Email:       strings.TrimSpace(email),
		Password:    strings.TrimSpace(password),
	}
	if err := checkRequired(in); err != nil {
		return Request{}, err
	}
	return Request{
		Method:      MethodEmailSignUp,
		DisplayName: in.DisplayName,
		Email:       in.Email,
		Password:    password,
	}, nil
}

// ValidateSignIn проверяет форму входа и возвращает нормализованный запрос.
func ValidateSignIn(email, password string) (Request, error) {
	in := signInInput{
		Email:    strings.TrimSpace(email),
		Password: strings.TrimSpace(password),
	}
	if err := checkRequired(in); err != nil {
		return Request{}, err
	}
	return Request{
		Method:   MethodEmailSignIn,
		Email:    in.Email,
		Password: password,
	}, nil
}
