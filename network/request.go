package network

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"sort"
)

const formContentType = "application/x-www-form-urlencoded"

// Attachment is a binary multipart part sent along with the form parameters.
type Attachment struct {
	FieldName   string
	FileName    string
	ContentType string
	Data        []byte
}

// Request describes a single signed call against the platform API.
type Request struct {
	// Command names the protocol step, used for logging only.
	Command    string
	Method     string
	URL        string
	Params     map[string]string
	Attachment *Attachment
}

// encode returns the target URL, the body and its content type.
// GET parameters go to the query string, POST parameters to an urlencoded
// form, or to multipart fields when an attachment is present.
func (r Request) encode() (string, []byte, string, error) {
	if r.Method == http.MethodGet {
		target, err := url.Parse(r.URL)
		if err != nil {
			return "", nil, "", fmt.Errorf("parse url: %w", err)
		}
		query := target.Query()
		for k, v := range r.Params {
			query.Set(k, v)
		}
		target.RawQuery = query.Encode()
		return target.String(), nil, "", nil
	}

	if r.Attachment == nil {
		form := url.Values{}
		for k, v := range r.Params {
			form.Set(k, v)
		}
		return r.URL, []byte(form.Encode()), formContentType, nil
	}

	body, contentType, err := r.multipartBody()
	if err != nil {
		return "", nil, "", err
	}
	return r.URL, body, contentType, nil
}

func (r Request) multipartBody() ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(r.Params))
	for k := range r.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := writer.WriteField(k, r.Params[k]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", k, err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, r.Attachment.FieldName, r.Attachment.FileName))
	header.Set("Content-Type", r.Attachment.ContentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create part %s: %w", r.Attachment.FieldName, err)
	}
	if _, err := part.Write(r.Attachment.Data); err != nil {
		return nil, "", fmt.Errorf("write part %s: %w", r.Attachment.FieldName, err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}
