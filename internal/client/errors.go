package client

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ConnectionMessage is shown when the server could not be reached at all.
const ConnectionMessage = "Erreur de connexion au serveur"

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("api: %d %s %v", e.Status, e.Message, e.Fields)
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// ConnectionError wraps a transport failure.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return "connection: " + e.Err.Error()
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// UserMessage renders err as the single line shown to the operator.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" && !(len(apiErr.Fields) > 0 && apiErr.Message == "Validation failed") {
			return apiErr.Message
		}
		if len(apiErr.Fields) > 0 {
			keys := make([]string, 0, len(apiErr.Fields))
			for k := range apiErr.Fields {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			return fmt.Sprintf("%s: %s", keys[0], apiErr.Fields[keys[0]])
		}
		return fmt.Sprintf("Erreur HTTP: %d", apiErr.Status)
	}
	if errors.Is(err, context.Canceled) {
		return "Requête annulée"
	}
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return ConnectionMessage
	}
	return err.Error()
}
