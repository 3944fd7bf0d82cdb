package backend

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"formassist/internal/common/errors"
	"formassist/internal/models"
)

const (
	voiceFileName    = "input.wav"
	voiceContentType = "audio/wav"
)

// InitSession starts a filing session for formType. When token is set the
// backend pre-fills fields from the user's stored profile.
func (c *Client) InitSession(ctx context.Context, formType, token string) (*models.InitSessionResponse, error) {
	fields := map[string]string{"form_type": formType}
	if token != "" {
		fields["token"] = token
	}
	body, ctype, err := multipartBody(fields, nil)
	if err != nil {
		return nil, err
	}

	var out models.InitSessionResponse
	err = c.do(ctx, call{
		route:  "/session/init",
		method: "POST",
		path:   "/session/init",
		body:   body,
		ctype:  ctype,
		schema: schemaInitSession,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.RequiredDocuments == nil {
		out.RequiredDocuments = []string{}
	}
	return &out, nil
}

// GetSession returns the session's current entity state.
func (c *Client) GetSession(ctx context.Context, sessionID string) (models.EntityMap, error) {
	out := models.EntityMap{}
	err := c.do(ctx, call{
		route:  "/session/{id}",
		method: "GET",
		path:   "/session/" + pathEscape(sessionID),
		schema: schemaEntities,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UploadDocument sends every file of a batch in one multipart request.
// Failures carry the server's detail, or "Upload failed".
func (c *Client) UploadDocument(ctx context.Context, sessionID, docType string, files []models.SelectedFile) (*models.UploadResponse, error) {
	if len(files) == 0 {
		return nil, errors.NewInvalidInputError("files", "at least one file is required")
	}
	parts := make([]filePart, len(files))
	for i, f := range files {
		parts[i] = filePart{field: "files", name: f.Name, ctype: f.ContentType, data: f.Data}
	}
	body, ctype, err := multipartBody(map[string]string{"document_type": docType}, parts)
	if err != nil {
		return nil, err
	}

	var out models.UploadResponse
	err = c.do(ctx, call{
		route:  "/session/{id}/upload",
		method: "POST",
		path:   "/session/" + pathEscape(sessionID) + "/upload",
		body:   body,
		ctype:  ctype,
		upload: true,
		schema: schemaUpload,
		onError: func(status int, detail string) error {
			return errors.NewUploadError(detail, status)
		},
	}, &out)
	if err != nil {
		if stdErr, ok := errors.AsStandard(err); ok && stdErr.Code == errors.ErrCodeNetwork {
			return nil, errors.NewUploadError("", 0).WithMetadata("cause", stdErr.Details)
		}
		return nil, err
	}
	if out.CurrentEntities == nil {
		out.CurrentEntities = models.EntityMap{}
	}
	return &out, nil
}

// UploadVoice sends a recorded clip as input.wav.
func (c *Client) UploadVoice(ctx context.Context, sessionID string, audio []byte) (*models.VoiceResponse, error) {
	body, ctype, err := multipartBody(nil, []filePart{{
		field: "file", name: voiceFileName, ctype: voiceContentType, data: audio,
	}})
	if err != nil {
		return nil, err
	}

	var out models.VoiceResponse
	err = c.do(ctx, call{
		route:  "/session/{id}/voice",
		method: "POST",
		path:   "/session/" + pathEscape(sessionID) + "/voice",
		body:   body,
		ctype:  ctype,
		upload: true,
		schema: schemaVoice,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.CurrentState == nil {
		out.CurrentState = models.EntityMap{}
	}
	return &out, nil
}

// Finalize returns the flat field mapping of the completed form. With a
// token the backend also saves the values to the user's profile.
func (c *Client) Finalize(ctx context.Context, sessionID, token string) (models.FinalForm, error) {
	fields := map[string]string{}
	if token != "" {
		fields["token"] = token
	}
	body, ctype, err := multipartBody(fields, nil)
	if err != nil {
		return nil, err
	}

	out := models.FinalForm{}
	err = c.do(ctx, call{
		route:  "/session/{id}/finalize",
		method: "POST",
		path:   "/session/" + pathEscape(sessionID) + "/finalize",
		body:   body,
		ctype:  ctype,
		schema: schemaFinalize,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListForms returns the form types the backend has schemas for.
func (c *Client) ListForms(ctx context.Context) ([]string, error) {
	var out models.FormsResponse
	err := c.do(ctx, call{
		route:  "/forms/list/",
		method: "GET",
		path:   "/forms/list/",
		schema: schemaForms,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Forms, nil
}

type filePart struct {
	field string
	name  string
	ctype string
	data  []byte
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func multipartBody(fields map[string]string, files []filePart) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", errors.NewInvalidInputError(k, err.Error())
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(f.field), quoteEscaper.Replace(f.name)))
		ctype := f.ctype
		if ctype == "" {
			ctype = "application/octet-stream"
		}
		h.Set("Content-Type", ctype)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", errors.NewInvalidInputError(f.field, err.Error())
		}
		if _, err := part.Write(f.data); err != nil {
			return nil, "", errors.NewInvalidInputError(f.field, err.Error())
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", errors.NewInvalidInputError("multipart", err.Error())
	}
	return buf, w.FormDataContentType(), nil
}
