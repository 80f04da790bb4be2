// validation.go — проверка входящих запросов по OpenAPI-контракту (kin-openapi).
// Запросы к путям вне контракта пропускаются без проверки.
package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	legacyrouter "github.com/getkin/kin-openapi/routers/legacy"

	apierrors "github.com/bigkaa/insania/biology-module/internal/api/errors"
)

// RequestValidator — middleware проверки запросов по OpenAPI.
type RequestValidator struct {
	router routers.Router
	logger *slog.Logger
}

// NewRequestValidator загружает контракт и строит роутер kin-openapi.
func NewRequestValidator(spec []byte, logger *slog.Logger) (*RequestValidator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(spec)
	if err != nil {
		return nil, fmt.Errorf("загрузка OpenAPI-контракта: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("невалидный OpenAPI-контракт: %w", err)
	}

	router, err := legacyrouter.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("создание роутера OpenAPI: %w", err)
	}

	return &RequestValidator{
		router: router,
		logger: logger.With(slog.String("component", "openapi_validator")),
	}, nil
}

// Middleware возвращает HTTP middleware проверки запросов.
func (v *RequestValidator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := v.router.FindRoute(r)
			if err != nil {
				// Путь или метод вне контракта — решает роутер chi
				next.ServeHTTP(w, r)
				return
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				msg := validationMessage(err)
				v.logger.Debug("Запрос не прошёл проверку по контракту",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				apierrors.ValidationError(w, msg)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// validationMessage формирует короткое сообщение для клиента.
func validationMessage(err error) string {
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) && reqErr.Parameter != nil {
		return fmt.Sprintf("Некорректный параметр %s", reqErr.Parameter.Name)
	}
	return "Некорректный запрос"
}
