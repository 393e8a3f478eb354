package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/yourwae/fastget-backend/pkg/errors"
)

type sampleBody struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type optionalBody struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=5"`
}

func TestDecodeJSONBodyReportsFieldsByJSONName(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope","password":"123"}`))
	var body sampleBody
	err := DecodeJSONBody(req, &body)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %T", pkgerrors.As(err).Details())
	}
	if details["email"] != "must be a valid email" || details["password"] != "must be at least 6" {
		t.Fatalf("unexpected details %v", details)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co","password":"secret","admin":true}`))
	var body sampleBody
	if err := DecodeJSONBody(req, &body); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected unknown field to be rejected, got %v", err)
	}
}

func TestDecodeOptionalJSONBodyAcceptsEmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	var body optionalBody
	if err := DecodeOptionalJSONBody(req, &body); err != nil {
		t.Fatalf("expected empty body to pass, got %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	if err := DecodeJSONBody(req, &sampleBody{}); err == nil {
		t.Fatal("expected required body to fail when empty")
	}
}

func TestDecodeJSONBodyRejectsTrailingData(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co","password":"secret"}{"email":"x"}`))
	err := DecodeJSONBody(req, &sampleBody{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected trailing object to be rejected, got %v", err)
	}
}

func TestDecodeJSONBodyDescribesDecodeFailures(t *testing.T) {
	cases := map[string]string{
		`{"email":`:                         "malformed JSON",
		`{"email":5,"password":"secret"}`:   "email must be string",
		`{"email":"a@b.co","role":"admin"}`: `unknown field "role"`,
	}
	for body, want := range cases {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		err := DecodeJSONBody(req, &sampleBody{})
		typed := pkgerrors.As(err)
		if typed == nil || !strings.Contains(typed.Message(), want) {
			t.Fatalf("body %s: expected message containing %q, got %v", body, want, err)
		}
	}
}

func TestDecodeJSONBodyCapsSize(t *testing.T) {
	big := `{"email":"` + strings.Repeat("a", MaxBodyBytes) + `@b.co","password":"secret"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
	err := DecodeJSONBody(req, &sampleBody{})
	typed := pkgerrors.As(err)
	if typed == nil || !strings.Contains(typed.Message(), "exceeds") {
		t.Fatalf("expected size error, got %v", err)
	}
}

func TestNotBlankRejectsWhitespace(t *testing.T) {
	type named struct {
		Name string `json:"name" validate:"notblank"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"   "}`))
	err := DecodeJSONBody(req, &named{})
	details, _ := pkgerrors.As(err).Details().(map[string]string)
	if details["name"] != "is required" {
		t.Fatalf("expected blank name to be rejected, got %v", err)
	}
}
