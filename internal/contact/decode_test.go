package contact

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/dalemusser/contactform/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParseQuery(t *testing.T, q string) url.Values {
	t.Helper()
	v, err := url.ParseQuery(q)
	require.NoError(t, err)
	return v
}

func TestDecodeForm(t *testing.T) {
	got, err := DecodeForm(mustParseQuery(t,
		"full_name=Full+Name&email=test%40test.com&subject=mail+title&message=hello&from_site=site.com"))
	require.NoError(t, err)

	assert.Equal(t, Submission{
		FullName: "Full Name",
		Email:    "test@test.com",
		Subject:  "mail title",
		Message:  "hello",
		FromSite: "site.com",
	}, got)
}

func TestDecodeForm_AliasEquivalence(t *testing.T) {
	want := Submission{
		FullName: "Full Name",
		Email:    "test@test.com",
		Subject:  DefaultSubject,
		Message:  "hello",
		FromSite: "site.com",
	}

	bodies := []string{
		"full_name=Full+Name&email=test%40test.com&message=hello&from_site=site.com",
		"fullname=Full+Name&email=test%40test.com&message=hello&site=site.com",
		"fullname=Full+Name&e-mail=test%40test.com&message=hello&website=site.com",
		"FullName=Full+Name&EMAIL=test%40test.com&Message=hello&Location=site.com",
		"FULL_NAME=Full+Name&E-Mail=test%40test.com&MESSAGE=hello&From_Site=site.com",
	}

	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			got, err := DecodeForm(mustParseQuery(t, body))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestDecodeForm_AliasPrecedence(t *testing.T) {
	got, err := DecodeForm(mustParseQuery(t,
		"fullname=Second&full_name=First&email=a%40b.com&message=m&location=loc&site=site"))
	require.NoError(t, err)

	assert.Equal(t, "First", got.FullName)
	assert.Equal(t, "site", got.FromSite)
}

func TestDecodeForm_DefaultSubject(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"absent", "full_name=N&email=a%40b.com&message=m&site=s"},
		{"empty", "full_name=N&email=a%40b.com&subject=&message=m&site=s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeForm(mustParseQuery(t, tt.body))
			require.NoError(t, err)
			assert.Equal(t, DefaultSubject, got.Subject)
			assert.False(t, got.HasCustomSubject())
		})
	}
}

func TestDecodeForm_SubjectKeptAsSent(t *testing.T) {
	tests := []struct {
		name    string
		subject string
	}{
		{"whitespace only", "   "},
		{"default with trailing space", DefaultSubject + " "},
		{"padded", "  hello  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := url.Values{
				"full_name": {"N"},
				"email":     {"a@b.com"},
				"subject":   {tt.subject},
				"message":   {"m"},
			}
			got, err := DecodeForm(values)
			require.NoError(t, err)
			assert.Equal(t, tt.subject, got.Subject)
			assert.True(t, got.HasCustomSubject())
		})
	}
}

func TestDecode_MessageKeptVerbatim(t *testing.T) {
	const message = "    indented code\n  line2\n"

	fromForm, err := DecodeForm(url.Values{
		"full_name": {" N "},
		"email":     {" a@b.com "},
		"message":   {message},
	})
	require.NoError(t, err)
	assert.Equal(t, message, fromForm.Message)
	assert.Equal(t, "N", fromForm.FullName)
	assert.Equal(t, "a@b.com", fromForm.Email)

	fromJSON, err := DecodeJSON(strings.NewReader(
		`{"full_name":"N","email":"a@b.com","message":"    indented code\n  line2\n"}`))
	require.NoError(t, err)
	assert.Equal(t, message, fromJSON.Message)
}

func TestDecodeForm_BlankMessageIsMissing(t *testing.T) {
	_, err := DecodeForm(url.Values{
		"full_name": {"N"},
		"email":     {"a@b.com"},
		"message":   {" \n\t "},
	})
	require.Error(t, err)

	e := apperr.From(err)
	assert.Equal(t, apperr.Missing, e.Kind)
	assert.Equal(t, "missing required field(s): message", e.Message)
}

func TestDecodeForm_MissingRequired(t *testing.T) {
	_, err := DecodeForm(mustParseQuery(t, "subject=hi&message=hello"))
	require.Error(t, err)

	e := apperr.From(err)
	assert.Equal(t, apperr.Missing, e.Kind)
	assert.Equal(t, "missing required field(s): full_name, email", e.Message)
}

func TestDecodeForm_DoesNotValidateEmail(t *testing.T) {
	got, err := DecodeForm(mustParseQuery(t, "full_name=N&email=testtest.com&message=m"))
	require.NoError(t, err)
	assert.Equal(t, "testtest.com", got.Email)
	assert.Empty(t, got.FromSite)
}

func TestDecodeJSON(t *testing.T) {
	body := `{"fullname":"Named","email":"test@test.com","subject":"mail","message":"hi","site":"site.com"}`
	got, err := DecodeJSON(strings.NewReader(body))
	require.NoError(t, err)

	assert.Equal(t, Submission{
		FullName: "Named",
		Email:    "test@test.com",
		Subject:  "mail",
		Message:  "hi",
		FromSite: "site.com",
	}, got)
}

func TestDecodeJSON_MatchesForm(t *testing.T) {
	fromJSON, err := DecodeJSON(strings.NewReader(
		`{"fullName":"Named","e-mail":"test@test.com","message":"hi","website":"site.com","extra":42}`))
	require.NoError(t, err)

	fromForm, err := DecodeForm(mustParseQuery(t,
		"full_name=Named&email=test%40test.com&message=hi&from_site=site.com"))
	require.NoError(t, err)

	assert.Equal(t, fromForm, fromJSON)
}

func TestDecodeJSON_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantKind apperr.Kind
		wantMsg  string
	}{
		{"malformed", `{"fullname":`, apperr.Input, "malformed JSON: unexpected end of body"},
		{"not an object", `"hello"`, apperr.Input, "request body must be a JSON object"},
		{"non-string value", `{"fullname":"N","email":"a@b.com","message":7}`, apperr.Input, `field "message" must be a string`},
		{"null counts as absent", `{"fullname":"N","email":null,"message":"m"}`, apperr.Missing, "missing required field(s): email"},
		{"empty body", ``, apperr.Input, "request body is empty"},
		{"trailing data", `{"full_name":"N","email":"a@b.com","message":"m"} }`, apperr.Input, "request body must contain a single JSON value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeJSON(strings.NewReader(tt.body))
			require.Error(t, err)
			e := apperr.From(err)
			assert.Equal(t, tt.wantKind, e.Kind)
			assert.Equal(t, tt.wantMsg, e.Message)
		})
	}
}

func TestDecode_ContentNegotiation(t *testing.T) {
	t.Run("urlencoded", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/",
			strings.NewReader("fullname=N&email=a%40b.com&message=m&site=s"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")

		got, err := Decode(req)
		require.NoError(t, err)
		assert.Equal(t, "N", got.FullName)
	})

	t.Run("multipart", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("Full_Name", "N"))
		require.NoError(t, mw.WriteField("email", "a@b.com"))
		require.NoError(t, mw.WriteField("message", "m"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())

		got, err := Decode(req)
		require.NoError(t, err)
		assert.Equal(t, "N", got.FullName)
		assert.Equal(t, "a@b.com", got.Email)
	})

	t.Run("json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/",
			strings.NewReader(`{"full_name":"N","email":"a@b.com","message":"m"}`))
		req.Header.Set("Content-Type", "application/json")

		got, err := Decode(req)
		require.NoError(t, err)
		assert.Equal(t, "N", got.FullName)
	})

	t.Run("unsupported", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("hello"))
		req.Header.Set("Content-Type", "text/plain")

		_, err := Decode(req)
		assert.Equal(t, apperr.Unsupported, apperr.KindOf(err))
	})

	t.Run("missing content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("hello"))

		_, err := Decode(req)
		assert.Equal(t, apperr.Unsupported, apperr.KindOf(err))
	})

	t.Run("body too large", func(t *testing.T) {
		body := "fullname=N&email=a%40b.com&message=" + strings.Repeat("x", 256)
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Body = http.MaxBytesReader(httptest.NewRecorder(), req.Body, 64)

		_, err := Decode(req)
		e := apperr.From(err)
		assert.Equal(t, apperr.Input, e.Kind)
		assert.Equal(t, "request body too large", e.Message)
	})
}
