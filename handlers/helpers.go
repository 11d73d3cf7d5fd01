package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Dosada05/arena/matchmaking"
	"github.com/Dosada05/arena/repositories"
	"github.com/Dosada05/arena/services"
)

type jsonResponse map[string]interface{}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case err.Error() == "http: request body too large":
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}
	js = append(js, '\n')

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func errorResponse(w http.ResponseWriter, logger *slog.Logger, status int, message interface{}) {
	if err := writeJSON(w, status, jsonResponse{"error": message}); err != nil {
		logger.Error("failed to write error response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// mapServiceErrorToHTTP converts sentinel errors into HTTP responses.
func mapServiceErrorToHTTP(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, repositories.ErrGameNotFound),
		errors.Is(err, repositories.ErrQueueNotFound),
		errors.Is(err, matchmaking.ErrTournamentNotFound):
		errorResponse(w, logger, http.StatusNotFound, "the requested resource could not be found")

	case errors.Is(err, matchmaking.ErrAlreadyQueued),
		errors.Is(err, matchmaking.ErrTournamentExists):
		errorResponse(w, logger, http.StatusConflict, err.Error())

	case errors.Is(err, services.ErrUnknownMode),
		errors.Is(err, services.ErrUnknownIntent),
		errors.Is(err, services.ErrMissingUserID),
		errors.Is(err, services.ErrMissingQueueID),
		errors.Is(err, services.ErrMissingWinnerID),
		errors.Is(err, matchmaking.ErrInvalidQueueVariant),
		errors.Is(err, matchmaking.ErrNotEnoughPlayers),
		errors.Is(err, matchmaking.ErrWinnerNotInMatch):
		errorResponse(w, logger, http.StatusBadRequest, err.Error())

	default:
		logger.Error("internal server error", slog.Any("error", err))
		errorResponse(w, logger, http.StatusInternalServerError,
			"the server encountered a problem and could not process your request")
	}
}
