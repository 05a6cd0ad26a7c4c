package kit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDecodeJSON_StrictAndLoose(t *testing.T) {
	type req struct {
		Name string `json:"name"`
	}
	body := `{"name": "rtx4070", "displayName": "RTX 4070"}`

	var strict req
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if err := DecodeJSON(httptest.NewRecorder(), r, &strict); err == nil {
		t.Fatalf("strict decode accepted unknown field")
	}

	var loose req
	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if err := DecodeJSONLoose(httptest.NewRecorder(), r, &loose); err != nil {
		t.Fatalf("loose decode: %v", err)
	}
	if loose.Name != "rtx4070" {
		t.Fatalf("name=%q", loose.Name)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name": "a"} {"name": "b"}`))
	if err := DecodeJSONLoose(httptest.NewRecorder(), r, &loose); err == nil {
		t.Fatalf("trailing object accepted")
	}
}
