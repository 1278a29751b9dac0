package http

import (
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/wesleyorama2/apinette/pkg/value"
)

// Outcome is the result of one exchange. Exactly one of Err and Status is
// meaningful: a transport failure leaves Status at 0, while any HTTP
// response, 4xx and 5xx included, leaves Err nil.
type Outcome struct {
	// ID uniquely identifies this exchange in logs and traces.
	ID string
	// Index is the position of the request in the submitted batch.
	Index  int
	Name   string
	Method string
	URL    string

	Status     int
	StatusText string
	Proto      string
	Headers    Header
	// Body holds the bytes received, even when the exchange failed part way.
	Body []byte
	// Value is the decoded body when the response declared JSON.
	Value *value.Value
	// DecodeErr is set when the response declared JSON but the body did not
	// parse. Status, Headers and Body are still populated.
	DecodeErr error
	Err       error

	Elapsed time.Duration
	Timing  TimingInfo
}

func (o *Outcome) Failed() bool { return o.Err != nil }

// IsSuccess returns true for 2xx responses.
func (o *Outcome) IsSuccess() bool { return o.Status >= 200 && o.Status < 300 }

// IsRedirect returns true for 3xx responses. Redirects are not followed.
func (o *Outcome) IsRedirect() bool { return o.Status >= 300 && o.Status < 400 }

func (o *Outcome) IsClientError() bool { return o.Status >= 400 && o.Status < 500 }

func (o *Outcome) IsServerError() bool { return o.Status >= 500 && o.Status < 600 }

// Header returns the first response header value for name.
func (o *Outcome) Header(name string) string { return o.Headers.Get(name) }

// ContentType returns the response media type without parameters,
// lower-cased, or "" when absent.
func (o *Outcome) ContentType() string {
	raw := o.Headers.Get("Content-Type")
	if raw == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil {
		mediaType, _, _ = strings.Cut(raw, ";")
		mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	}
	return mediaType
}

// IsJSON reports whether the response declared application/json.
func (o *Outcome) IsJSON() bool { return o.ContentType() == MIMEApplicationJSON }

func (o *Outcome) BodyString() string { return string(o.Body) }

func (o *Outcome) ElapsedSeconds() float64 { return o.Elapsed.Seconds() }

// Label is the name if set, otherwise "METHOD URL".
func (o *Outcome) Label() string {
	if o.Name != "" {
		return o.Name
	}
	return o.Method + " " + o.URL
}

// ToValue renders the outcome in the shape handed to scripts and reports:
// either {status, headers, body[, value]} or {error}, plus url, method and
// elapsed seconds.
func (o *Outcome) ToValue() value.Value {
	obj := value.NewObject()
	if o.Name != "" {
		obj.Set("name", value.String(o.Name))
	}
	obj.Set("method", value.String(o.Method))
	obj.Set("url", value.String(o.URL))
	if o.Err != nil {
		obj.Set("error", value.String(o.Err.Error()))
	} else {
		obj.Set("status", value.Int(int64(o.Status)))
		headers := value.NewObject()
		for _, f := range o.Headers {
			headers.Set(f.Name, value.String(f.Value))
		}
		obj.Set("headers", value.FromObject(headers))
		obj.Set("body", value.String(string(o.Body)))
		if o.Value != nil {
			obj.Set("value", *o.Value)
		}
		if o.DecodeErr != nil {
			obj.Set("decodeError", value.String(o.DecodeErr.Error()))
		}
	}
	obj.Set("elapsedSeconds", value.Number(o.Elapsed.Seconds()))
	return value.FromObject(obj)
}

func (o *Outcome) setResponse(resp *http.Response) {
	o.Status = resp.StatusCode
	o.StatusText = http.StatusText(resp.StatusCode)
	if _, text, ok := strings.Cut(resp.Status, " "); ok && text != "" {
		o.StatusText = text
	}
	o.Proto = resp.Proto
	o.Headers = headerFromHTTP(resp.Header)
}

func (o *Outcome) appendBody(p []byte) {
	o.Body = append(o.Body, p...)
}

// negotiate decodes a JSON body. Other content types are left as text.
func (o *Outcome) negotiate() {
	if o.Err != nil || !o.IsJSON() {
		return
	}
	v, err := value.Decode(o.Body)
	if err != nil {
		o.DecodeErr = err
		return
	}
	o.Value = &v
}
