package integrity

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"bitrot-detector/core/storage/mocks"
	"bitrot-detector/feature/report"

	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T, archiver *report.Archiver) (*fiber.App, *Service, string) {
	app := fiber.New()
	svc, root := newTestService(t, archiver)
	NewHandler(svc).RegisterRoutes(app)
	return app, svc, root
}

func decode(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestHandleStatus(t *testing.T) {
	app, _, root := setupTestApp(t, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity/status", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body := decode(t, resp.Body)
	assert.Equal(t, root, body["root"])
	assert.EqualValues(t, 0, body["tracked"])
}

func TestHandleScan(t *testing.T) {
	app, _, root := setupTestApp(t, nil)
	writeFile(t, root, "a.txt", "alpha")

	resp, err := app.Test(httptest.NewRequest("POST", "/integrity/scan?verify=true", nil), 5000)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body := decode(t, resp.Body)
	summary, ok := body["summary"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, summary["new"])
	assert.Equal(t, true, summary["verified"])
}

func TestHandleScan_InvalidRoot(t *testing.T) {
	app := fiber.New()
	_, db := openVolume(t)
	NewHandler(NewService("/definitely/not/here", db, testConfig(), nil, nil)).RegisterRoutes(app)

	resp, err := app.Test(httptest.NewRequest("POST", "/integrity/scan", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestHandleCorrupted(t *testing.T) {
	app, svc, root := setupTestApp(t, nil)
	p := writeFile(t, root, "a.txt", "alpha")
	_, _, err := svc.Scan(t.Context(), false)
	require.NoError(t, err)
	rot(t, p, "alphX")
	_, _, err = svc.Scan(t.Context(), true)
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity/corrupted", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body := decode(t, resp.Body)
	assert.EqualValues(t, 1, body["count"])
}

func TestHandleClear(t *testing.T) {
	app, svc, root := setupTestApp(t, nil)
	p := writeFile(t, root, "a.txt", "alpha")
	_, _, err := svc.Scan(t.Context(), false)
	require.NoError(t, err)
	rot(t, p, "alphX")
	_, _, err = svc.Scan(t.Context(), true)
	require.NoError(t, err)

	corrupted, err := svc.Corrupted(t.Context())
	require.NoError(t, err)
	require.Len(t, corrupted, 1)

	resp, err := app.Test(httptest.NewRequest("POST", "/integrity/records/"+corrupted[0].Key.String()+"/clear", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body := decode(t, resp.Body)
	assert.Equal(t, false, body["corrupted"])
}

func TestHandleClear_Errors(t *testing.T) {
	app, svc, _ := setupTestApp(t, nil)

	resp, err := app.Test(httptest.NewRequest("POST", "/integrity/records/not-a-key/clear", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("POST", "/integrity/records/1:2/clear", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	svc.mu.Lock()
	resp, err = app.Test(httptest.NewRequest("POST", "/integrity/records/1:2/clear", nil))
	svc.mu.Unlock()
	require.NoError(t, err)
	assert.Equal(t, 409, resp.StatusCode)
}

func TestHandleReports_Disabled(t *testing.T) {
	app, _, _ := setupTestApp(t, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity/reports", nil))
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/integrity/reports/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)
}

func TestHandleReports(t *testing.T) {
	client := new(mocks.Client)
	archiver := report.NewArchiver(client, "test-bucket", "", report.Config{Prefix: "reports"}, nil)
	app, _, _ := setupTestApp(t, archiver)

	client.On("ListObjects", mock.Anything, "test-bucket", mock.Anything).
		Return(mocks.Objects(minio.ObjectInfo{Key: "reports/abc.json", Size: 42, LastModified: time.Now()}))

	data, err := json.Marshal(report.Report{})
	require.NoError(t, err)
	client.On("GetObject", mock.Anything, "test-bucket", "reports/abc.json", mock.Anything).
		Return(io.NopCloser(bytes.NewReader(data)), nil)
	client.On("GetObject", mock.Anything, "test-bucket", "reports/missing.json", mock.Anything).
		Return(nil, assert.AnError)

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity/reports", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	reports, ok := decode(t, resp.Body)["reports"].([]any)
	require.True(t, ok)
	assert.Len(t, reports, 1)

	resp, err = app.Test(httptest.NewRequest("GET", "/integrity/reports/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/integrity/reports/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
}
