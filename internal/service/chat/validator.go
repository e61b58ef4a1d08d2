package chat

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	zhTranslations "github.com/go-playground/validator/v10/translations/zh"
)

// payloadValidator 校验上行帧的 data 载荷，错误信息按 locale 翻译后放进 ack
type payloadValidator struct {
	validate *validator.Validate
	trans    ut.Translator
}

func newPayloadValidator(locale string) *payloadValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	zhT := zh.New()
	enT := en.New()
	uni := ut.New(enT, zhT, enT)
	trans, ok := uni.GetTranslator(locale)
	if !ok {
		trans, _ = uni.GetTranslator("zh")
	}
	switch locale {
	case "en":
		_ = enTranslations.RegisterDefaultTranslations(v, trans)
	default:
		_ = zhTranslations.RegisterDefaultTranslations(v, trans)
	}
	return &payloadValidator{validate: v, trans: trans}
}

// check 返回首条翻译后的校验错误，通过时返回空串
func (p *payloadValidator) check(payload any) string {
	err := p.validate.Struct(payload)
	if err == nil {
		return ""
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return err.Error()
	}
	return errs[0].Translate(p.trans)
}
