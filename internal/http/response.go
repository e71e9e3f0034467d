package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

func WriteJsonResponse(
	c context.Context,
	w http.ResponseWriter,
	header map[string]string,
	body map[string]interface{},
) {
	logger := zerolog.Ctx(c)

	w.Header().Add(HeaderContentType, HeaderValueJson)
	for k, v := range header {
		w.Header().Add(k, v)
	}
	if v, ok := body["statusCode"]; ok {
		if code, ok := v.(int); ok {
			w.WriteHeader(code)
		}
	}

	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		logger.Error().
			Err(err).
			Msgf("failed encode response body with error=%s", err.Error())
		return
	}
}
