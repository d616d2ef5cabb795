package httpapi

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"tradeSite/models"
)

// uploadOrURL accepts a local upload path or an absolute http(s) URL.
func uploadOrURL(v interface{}) error {
	s, _ := v.(string)
	if strings.HasPrefix(s, "/uploads/") {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("must be an /uploads/ path or http(s) URL")
	}
	return nil
}

// optionalUploadOrURL is uploadOrURL for fields that may be left empty.
func optionalUploadOrURL(v interface{}) error {
	if s, _ := v.(string); s == "" {
		return nil
	}
	return uploadOrURL(v)
}

func requireLocalized(v interface{}) error {
	t, _ := v.(models.LocalizedText)
	if strings.TrimSpace(t.Zh) == "" || strings.TrimSpace(t.En) == "" {
		return errors.New("both zh and en are required")
	}
	return nil
}

// jsonObject accepts an empty value or a JSON object.
func jsonObject(v interface{}) error {
	raw, _ := v.(json.RawMessage)
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return errors.New("must be a JSON object")
	}
	return nil
}

// jsonArray accepts an empty value or a JSON array.
func jsonArray(v interface{}) error {
	raw, _ := v.(json.RawMessage)
	if len(raw) == 0 {
		return nil
	}
	var a []json.RawMessage
	if err := json.Unmarshal(raw, &a); err != nil {
		return errors.New("must be a JSON array")
	}
	return nil
}
