package backend

import (
	"formassist/internal/common/validation"
)

// Schema names, one per response shape.
const (
	schemaInitSession = "init_session"
	schemaEntities    = "entities"
	schemaUpload      = "upload"
	schemaVoice       = "voice"
	schemaFinalize    = "finalize"
	schemaForms       = "forms"
	schemaToken       = "token"
	schemaUser        = "user"
	schemaStats       = "dashboard_stats"
	schemaMessage     = "message"
	schemaProfile     = "profile_field"
)

var (
	str    = validation.Property{Type: "string"}
	intgr  = validation.Property{Type: "integer"}
	anyVal = validation.Property{}
)

// entityProperty accepts either a {value, confidence, source} object or a
// bare scalar. Values themselves may be any JSON type.
var entityProperty = validation.Property{
	Type: []string{"object", "string", "number", "boolean", "null"},
	Properties: map[string]validation.Property{
		"value":      anyVal,
		"confidence": {Type: validation.Nullable("number")},
		"source":     {Type: validation.Nullable("string")},
	},
}

var entityMapProperty = validation.Property{
	Type:                 "object",
	AdditionalProperties: entityProperty,
}

func responseSchemas() map[string]validation.JSONSchema {
	return map[string]validation.JSONSchema{
		schemaInitSession: {
			Type: "object",
			Properties: map[string]validation.Property{
				"session_id":         {Type: "string", MinLength: intPtr(1)},
				"message":            str,
				"required_documents": {Type: "array", Items: &str},
				"prefilled_count":    intgr,
			},
			Required: []string{"session_id", "required_documents"},
		},
		schemaEntities: {
			Type:                 "object",
			AdditionalProperties: entityProperty,
		},
		schemaUpload: {
			Type: "object",
			Properties: map[string]validation.Property{
				"message":          str,
				"current_entities": entityMapProperty,
			},
			Required: []string{"current_entities"},
		},
		schemaVoice: {
			Type: "object",
			Properties: map[string]validation.Property{
				"message":       str,
				"transcription": str,
				"current_state": entityMapProperty,
			},
			Required: []string{"current_state"},
		},
		schemaFinalize: {
			Type:                 "object",
			AdditionalProperties: anyVal,
		},
		schemaForms: {
			Type: "object",
			Properties: map[string]validation.Property{
				"forms": {Type: "array", Items: &str},
			},
			Required: []string{"forms"},
		},
		schemaToken: {
			Type: "object",
			Properties: map[string]validation.Property{
				"access_token": {Type: "string", MinLength: intPtr(1)},
				"token_type":   str,
			},
			Required: []string{"access_token"},
		},
		schemaUser: {
			Type: "object",
			Properties: map[string]validation.Property{
				"id":        intgr,
				"email":     str,
				"full_name": {Type: validation.Nullable("string")},
			},
			Required: []string{"id", "email"},
		},
		schemaStats: {
			Type: "object",
			Properties: map[string]validation.Property{
				"saved_fields_count":        intgr,
				"active_applications_count": intgr,
				"recent_activities": {
					Type: "array",
					Items: &validation.Property{
						Type: "object",
						Properties: map[string]validation.Property{
							"id":         intgr,
							"form_type":  str,
							"status":     str,
							"created_at": str,
						},
						Required: []string{"id", "form_type", "status"},
					},
				},
				"stored_data": {
					Type: "array",
					Items: &validation.Property{
						Type: "object",
						Properties: map[string]validation.Property{
							"entity_key":   str,
							"value":        str,
							"source":       str,
							"last_updated": str,
						},
						Required: []string{"entity_key", "value"},
					},
				},
			},
			Required: []string{"saved_fields_count", "active_applications_count", "recent_activities", "stored_data"},
		},
		schemaMessage: {
			Type: "object",
			Properties: map[string]validation.Property{
				"message": str,
			},
		},
		schemaProfile: {
			Type: "object",
			Properties: map[string]validation.Property{
				"message": str,
				"key":     str,
				"value":   str,
			},
			Required: []string{"key"},
		},
	}
}

func intPtr(v int) *int { return &v }
