package vos

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "vossync/internal/shared/errors"
	"vossync/internal/shared/logger"
)

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...any)                   {}
func (nopLogger) Info(msg string, args ...any)                    {}
func (nopLogger) Warn(msg string, args ...any)                    {}
func (nopLogger) Error(msg string, args ...any)                   {}
func (nopLogger) Fatal(msg string, args ...any)                   {}
func (l nopLogger) With(args ...any) logger.Interface             { return l }
func (l nopLogger) Named(name string) logger.Interface            { return l }
func (nopLogger) Debugw(msg string, keysAndValues ...interface{}) {}
func (nopLogger) Infow(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Warnw(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Errorw(msg string, keysAndValues ...interface{}) {}
func (nopLogger) Fatalw(msg string, keysAndValues ...interface{}) {}

func TestPostSuccess(t *testing.T) {
	var gotContentType, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotPath = r.URL.Path
		w.Write([]byte(`{"retCode":0,"infoCustomers":[{"account":"C001"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", nopLogger{})
	resp := client.Post(context.Background(), PathGetCustomer, map[string]any{"accounts": []string{"C001"}})

	assert.True(t, resp.IsSuccess())
	assert.Equal(t, 0, resp.RetCode())
	assert.NoError(t, resp.Err())
	assert.Empty(t, resp.ErrorMessage())
	assert.Equal(t, "text/html;charset=UTF-8", gotContentType)
	assert.Equal(t, PathGetCustomer, gotPath)
}

func TestPostHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nopLogger{})
	resp := client.Post(context.Background(), PathGetCdr, nil)

	assert.False(t, resp.IsSuccess())
	assert.Equal(t, -1, resp.RetCode())
	assert.Contains(t, resp.Exception(), "HTTP 502")
	assert.True(t, appErrors.IsTransportError(resp.Err()))
}

func TestPostTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"retCode":0}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nopLogger{}, WithTimeout(20*time.Millisecond))
	resp := client.Post(context.Background(), PathGetCdr, nil)

	assert.Equal(t, -2, resp.RetCode())
	assert.True(t, appErrors.IsTransportError(resp.Err()))
}

func TestPostNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL, nopLogger{})
	resp := client.Post(context.Background(), PathGetCdr, nil)

	assert.Equal(t, -3, resp.RetCode())
	assert.True(t, appErrors.IsTransportError(resp.Err()))
}

func TestPostInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nopLogger{})
	resp := client.Post(context.Background(), PathGetCdr, nil)

	assert.Equal(t, -4, resp.RetCode())
	assert.True(t, appErrors.IsDataShapeError(resp.Err()))
}

func TestPostUpstreamRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"retCode":99,"exception":"account not found"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nopLogger{})
	resp := client.Post(context.Background(), PathGetCustomer, nil)

	assert.False(t, resp.IsSuccess())
	assert.Equal(t, 99, resp.RetCode())
	assert.Equal(t, "retCode=99, account not found", resp.ErrorMessage())
	assert.True(t, appErrors.IsProtocolError(resp.Err()))
}

func TestResponseRetCode(t *testing.T) {
	tests := []struct {
		name string
		resp Response
		want int
	}{
		{"float64", Response{"retCode": float64(7)}, 7},
		{"int", Response{"retCode": 3}, 3},
		{"missing", Response{}, -999},
		{"wrong type", Response{"retCode": "oops"}, -999},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.resp.RetCode())
		})
	}
}

func TestResponseException(t *testing.T) {
	assert.Equal(t, "boom", Response{"exception": "boom"}.Exception())
	assert.Equal(t, "Unknown error", Response{}.Exception())
}

func TestPostCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	client := NewClient(srv.URL, nopLogger{})
	resp := client.Post(ctx, PathGetCdr, nil)

	require.False(t, resp.IsSuccess())
	assert.Equal(t, -2, resp.RetCode())
}
