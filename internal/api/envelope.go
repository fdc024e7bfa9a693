package api

import (
	"github.com/danielgtaylor/huma/v2"
)

// Envelope is the JSON shape of every API response.
//
//	{"v":1,"success":true,"data":{...}}
//	{"v":1,"success":false,"error":"tag not found","code":"NOT_FOUND","message":"tag not found"}
type Envelope struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer wraps response bodies in an Envelope. Registered as a huma transformer.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	switch body := v.(type) {
	case Envelope, *Envelope:
		return v, nil
	case *APIError:
		return errorEnvelope(body), nil
	default:
		return Envelope{V: envelopeVersion, Success: true, Data: v}, nil
	}
}

func errorEnvelope(e *APIError) Envelope {
	return Envelope{
		V:       envelopeVersion,
		Success: false,
		Error:   e.Message,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
}
