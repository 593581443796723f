package cmd

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/kittycad/kittycad-go/internal/testutil"
)

func operationJSON(typ, status, extra string) string {
	return fmt.Sprintf(`{"id":%q,"type":%q,"status":%q,"created_at":"2026-01-02T03:04:05Z","updated_at":"2026-01-02T03:04:05Z"%s}`, opID, typ, status, extra)
}

// serveWS upgrades the route and writes back the frames reply returns for
// each text frame received.
func serveWS(f *testutil.FakeAPI, route string, reply func(msg []byte) [][]byte) {
	f.GET(route, func(c echo.Context) error {
		conn, err := websocket.Accept(c.Response(), c.Request(), nil)
		if err != nil {
			return nil
		}
		defer conn.CloseNow()
		ctx := c.Request().Context()
		for {
			_, msg, err := conn.Read(ctx)
			if err != nil {
				return nil
			}
			for _, out := range reply(msg) {
				if err := conn.Write(ctx, websocket.MessageText, out); err != nil {
					return nil
				}
			}
		}
	})
}

func TestWhoami(t *testing.T) {
	t.Parallel()

	f := testutil.NewFakeAPI(t)
	f.GET("/user", testutil.JSON(http.StatusOK, `{"id":"6b0b9c5e-0000-4000-8000-000000000001","email":"ada@example.com","name":"Ada"}`))
	cfg := testConfig(t, f)

	out, _, err := run(t, cfg, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "ada@example.com")
	assert.Equal(t, "Bearer test-token", f.Last(t).Header.Get("Authorization"))

	out, _, err = run(t, cfg, "", "-o", "json", "whoami")
	require.NoError(t, err)
	assert.Equal(t, "Ada", gjson.Get(out, "name").String())
}

func TestUnitConvert(t *testing.T) {
	t.Parallel()

	f := testutil.NewFakeAPI(t)
	f.GET("/unit/conversion/length/:in/:out", testutil.JSON(http.StatusOK,
		fmt.Sprintf(`{"id":%q,"input":2.5,"input_unit":"in","output":63.5,"output_unit":"mm","status":"completed"}`, opID)))
	cfg := testConfig(t, f)

	out, _, err := run(t, cfg, "", "unit", "length", "in", "mm", "2.5")
	require.NoError(t, err)
	assert.Equal(t, "2.5 in = 63.5 mm\n", out)
	req := f.Last(t)
	assert.Equal(t, "/unit/conversion/length/in/mm", req.Path)
	assert.Equal(t, "2.5", req.Query.Get("input_value"))

	_, _, err = run(t, cfg, "", "unit", "length", "in", "mm", "lots")
	assert.ErrorContains(t, err, "invalid value")
	_, _, err = run(t, cfg, "", "unit", "smell", "a", "b", "1")
	assert.ErrorContains(t, err, "unknown unit kind")
}

func TestAPITokenListAll(t *testing.T) {
	t.Parallel()

	f := testutil.NewFakeAPI(t)
	f.GET("/user/api-tokens", func(c echo.Context) error {
		switch c.QueryParam("page_token") {
		case "":
			return c.JSONBlob(http.StatusOK, []byte(`{"items":[{"id":"6b0b9c5e-0000-4000-8000-000000000001","label":"ci"}],"next_page":"p2"}`))
		case "p2":
			return c.JSONBlob(http.StatusOK, []byte(`{"items":[{"id":"6b0b9c5e-0000-4000-8000-000000000002","label":"laptop"}],"next_page":null}`))
		}
		return c.NoContent(http.StatusBadRequest)
	})
	cfg := testConfig(t, f)

	out, _, err := run(t, cfg, "", "-o", "json", "api-token", "list", "--all", "--limit", "1")
	require.NoError(t, err)
	labels := gjson.Get(out, "#.label").Array()
	require.Len(t, labels, 2)
	assert.Equal(t, "laptop", labels[1].String())
	assert.Equal(t, "1", f.Last(t).Query.Get("limit"))

	out, stderr, err := run(t, cfg, "", "-o", "json", "api-token", "list")
	require.NoError(t, err)
	assert.Len(t, gjson.Get(out, "#.label").Array(), 1)
	assert.Contains(t, stderr, "p2")
}

func TestFileConvertSavesOutputs(t *testing.T) {
	t.Parallel()

	f := testutil.NewFakeAPI(t)
	f.POST("/file/conversion/:src/:out", testutil.JSON(http.StatusCreated,
		operationJSON("file_conversion", "completed", `,"src_format":"obj","output_format":"glb","outputs":{"model.glb":"Z2xURg=="}`)))
	cfg := testConfig(t, f)

	src := filepath.Join(t.TempDir(), "part.obj")
	require.NoError(t, os.WriteFile(src, []byte("v 0 0 0\n"), 0o644))
	outDir := t.TempDir()

	out, _, err := run(t, cfg, "", "-o", "json", "file", "convert", src, "--to", "glb", "--out", outDir)
	require.NoError(t, err)
	assert.Equal(t, src, gjson.Get(out, "0.source").String())

	req := f.Last(t)
	assert.Equal(t, "/file/conversion/obj/glb", req.Path)
	assert.Equal(t, []byte("v 0 0 0\n"), req.Body)

	data, err := os.ReadFile(filepath.Join(outDir, opID, "model.glb"))
	require.NoError(t, err)
	assert.Equal(t, []byte("glTF"), data)

	out, _, err = run(t, cfg, "", "-o", "json", "history", "list")
	require.NoError(t, err)
	assert.Equal(t, opID, gjson.Get(out, "0.ID").String())
	assert.Equal(t, "completed", gjson.Get(out, "0.Status").String())
}

func TestFileConvertReportsFailures(t *testing.T) {
	t.Parallel()

	f := testutil.NewFakeAPI(t)
	f.POST("/file/conversion/:src/:out", testutil.JSON(http.StatusBadRequest, `{"error_code":"bad_request","message":"not a mesh"}`))
	cfg := testConfig(t, f)

	dir := t.TempDir()
	for _, name := range []string{"a.stl", "b.stl"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("solid"), 0o644))
	}

	out, _, err := run(t, cfg, "", "-o", "json", "file", "convert", filepath.Join(dir, "*.stl"), "--to", "step", "--out", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 2 conversions failed")
	assert.Contains(t, gjson.Get(out, "0.error").String(), "not a mesh")
	assert.Len(t, f.Requests(), 2)
}

func TestTextToCADWait(t *testing.T) {
	t.Parallel()

	f := testutil.NewFakeAPI(t)
	f.POST("/ai/text-to-cad/:format", testutil.JSON(http.StatusCreated,
		operationJSON("text_to_cad", "queued", `,"prompt":"a gear","output_format":"glb"`)))
	f.GET("/async/operations/:id", testutil.JSON(http.StatusOK,
		operationJSON("text_to_cad", "completed", `,"prompt":"a gear","output_format":"glb","code":"sketch001 = startSketchOn(XY)","outputs":{"source.glb":"Z2xURg=="}`)))
	cfg := testConfig(t, f)
	outDir := t.TempDir()

	_, _, err := run(t, cfg, "a gear", "ml", "text-to-cad", "--wait", "--interval", "1ms", "--out", outDir)
	require.NoError(t, err)

	reqs := f.Requests()
	require.GreaterOrEqual(t, len(reqs), 2)
	assert.Equal(t, "/ai/text-to-cad/glb", reqs[0].Path)
	assert.Equal(t, "a gear", gjson.GetBytes(reqs[0].Body, "prompt").String())
	assert.Equal(t, "true", reqs[0].Query.Get("kcl"))

	code, err := os.ReadFile(filepath.Join(outDir, opID, "main.kcl"))
	require.NoError(t, err)
	assert.Equal(t, "sketch001 = startSketchOn(XY)", string(code))
	assert.FileExists(t, filepath.Join(outDir, opID, "source.glb"))
}

func TestTextToCADFailed(t *testing.T) {
	t.Parallel()

	f := testutil.NewFakeAPI(t)
	f.POST("/ai/text-to-cad/:format", testutil.JSON(http.StatusCreated,
		operationJSON("text_to_cad", "failed", `,"error":"prompt too vague"`)))

	_, _, err := run(t, testConfig(t, f), "", "ml", "text-to-cad", "something")
	assert.ErrorContains(t, err, "prompt too vague")
}

func TestExecSavesOutputFiles(t *testing.T) {
	t.Parallel()

	f := testutil.NewFakeAPI(t)
	f.POST("/file/execute/:lang", testutil.JSON(http.StatusOK,
		`{"stdout":"hi\n","stderr":"warn\n","output_files":[{"name":"out.txt","contents":"aGk="}]}`))
	cfg := testConfig(t, f)

	script := filepath.Join(t.TempDir(), "main.py")
	require.NoError(t, os.WriteFile(script, []byte("print('hi')"), 0o644))
	outDir := t.TempDir()

	out, stderr, err := run(t, cfg, "", "exec", "python", script, "--output-file", "out.txt", "--out", outDir)
	require.NoError(t, err)
	assert.Equal(t, "hi\n", out)
	assert.Contains(t, stderr, "warn")

	req := f.Last(t)
	assert.Equal(t, "/file/execute/python", req.Path)
	assert.Equal(t, "out.txt", req.Query.Get("output"))
	assert.Equal(t, "print('hi')", string(req.Body))

	data, err := os.ReadFile(filepath.Join(outDir, "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hi", string(data))

	out, _, err = run(t, cfg, "", "-o", "json", "exec", "python", script, "--output-file", "out.txt", "--out", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "hi\n", gjson.Get(out, "stdout").String())
	assert.Equal(t, "out.txt", f.Last(t).Query.Get("output"))

	_, _, err = run(t, cfg, "", "exec", "cobol", script)
	assert.ErrorContains(t, err, "unknown language")
}

func TestAPIOperationsAndCall(t *testing.T) {
	t.Parallel()

	doc, err := os.ReadFile(filepath.Join("..", "internal", "schema", "testdata", "openapi.json"))
	require.NoError(t, err)

	f := testutil.NewFakeAPI(t)
	f.GET("/", func(c echo.Context) error {
		return c.JSONBlob(http.StatusOK, doc)
	})
	f.GET("/user/api-tokens", testutil.JSON(http.StatusOK, `{"items":[],"next_page":null}`))
	f.POST("/user/api-tokens", testutil.JSON(http.StatusCreated, `{"id":"6b0b9c5e-0000-4000-8000-000000000003","label":"ci"}`))
	cfg := testConfig(t, f)

	out, _, err := run(t, cfg, "", "-o", "json", "api", "operations", "--tag", "api-tokens")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"list_api_tokens_for_user", "create_api_token_for_user"},
		[]string{gjson.Get(out, "0.operation_id").String(), gjson.Get(out, "1.operation_id").String()})

	out, _, err = run(t, cfg, "", "api", "call", "list_api_tokens_for_user", "-p", "limit=5")
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[],"next_page":null}`, out)
	req := f.Last(t)
	assert.Equal(t, "/user/api-tokens", req.Path)
	assert.Equal(t, "5", req.Query.Get("limit"))

	body := "{\n  // label shown in the dashboard\n  \"label\": \"ci\"\n}"
	_, _, err = run(t, cfg, body, "api", "call", "create_api_token_for_user", "--input", "-")
	require.NoError(t, err)
	req = f.Last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.JSONEq(t, `{"label":"ci"}`, string(req.Body))

	_, _, err = run(t, cfg, `{"label":"ci",}`, "api", "call", "create_api_token_for_user", "--input", "-")
	assert.ErrorContains(t, err, "invalid request body")

	_, _, err = run(t, cfg, "", "api", "call", "nope")
	assert.ErrorContains(t, err, "unknown operation")
}

func TestAuthLoginWithToken(t *testing.T) {
	t.Parallel()

	f := testutil.NewFakeAPI(t)
	f.GET("/user", testutil.JSON(http.StatusOK, `{"id":"6b0b9c5e-0000-4000-8000-000000000001","email":"ada@example.com"}`))
	cfg := testConfig(t, f)
	cfg.APIToken = ""

	out, _, err := run(t, cfg, "new-token\n", "auth", "login", "--with-token")
	require.NoError(t, err)
	assert.Contains(t, out, "ada@example.com")
	assert.Equal(t, "Bearer new-token", f.Last(t).Header.Get("Authorization"))

	data, err := os.ReadFile(cfg.File)
	require.NoError(t, err)
	assert.Equal(t, "new-token", gjson.GetBytes(data, "api_token").String())

	_, _, err = run(t, cfg, "", "auth", "logout")
	require.NoError(t, err)
	data, err = os.ReadFile(cfg.File)
	require.NoError(t, err)
	assert.False(t, gjson.GetBytes(data, "api_token").Exists())
}

func TestAuthLoginDeviceFlow(t *testing.T) {
	t.Parallel()

	f := testutil.NewFakeAPI(t)
	f.POST("/oauth2/device/auth", testutil.JSON(http.StatusOK,
		`{"device_code":"7d1c2b3a-0000-4000-8000-000000000009","user_code":"ABCD-1234","verification_uri":"https://zoo.dev/account/device","expires_in":600,"interval":1}`))
	f.POST("/oauth2/device/token", testutil.JSON(http.StatusOK, `{"access_token":"device-token","token_type":"Bearer"}`))
	f.GET("/user", testutil.JSON(http.StatusOK, `{"id":"6b0b9c5e-0000-4000-8000-000000000001","email":"ada@example.com"}`))
	cfg := testConfig(t, f)
	cfg.APIToken = ""

	_, stderr, err := run(t, cfg, "", "auth", "login", "--client-id", "2af5c3a1-0000-4000-8000-000000000007")
	require.NoError(t, err)
	assert.Contains(t, stderr, "ABCD-1234")
	assert.Equal(t, "Bearer device-token", f.Last(t).Header.Get("Authorization"))

	_, _, err = run(t, cfg, "", "auth", "login")
	assert.ErrorContains(t, err, "--client-id")
}

func TestOrgMembersRoleFilter(t *testing.T) {
	t.Parallel()

	f := testutil.NewFakeAPI(t)
	f.GET("/org/members", testutil.JSON(http.StatusOK,
		`{"items":[{"id":"6b0b9c5e-0000-4000-8000-000000000001","email":"ada@example.com","role":"admin"}],"next_page":null}`))
	cfg := testConfig(t, f)

	out, _, err := run(t, cfg, "", "org", "members", "--role", "admin")
	require.NoError(t, err)
	assert.Contains(t, out, "ada@example.com")
	assert.Equal(t, "admin", f.Last(t).Query.Get("role"))

	_, _, err = run(t, cfg, "", "org", "members", "--role", "owner")
	assert.ErrorContains(t, err, "unknown role")
}

func TestPaymentBalance(t *testing.T) {
	t.Parallel()

	f := testutil.NewFakeAPI(t)
	f.GET("/user/payment/balance", testutil.JSON(http.StatusOK,
		`{"monthly_credits_remaining":12.5,"pre_pay_cash_remaining":0,"pre_pay_credits_remaining":3,"total_due":1.25}`))

	out, _, err := run(t, testConfig(t, f), "", "payment", "balance")
	require.NoError(t, err)
	assert.Contains(t, out, "12.50")
	assert.Contains(t, out, "1.25")
}

func TestCopilotReply(t *testing.T) {
	t.Parallel()

	f := testutil.NewFakeAPI(t)
	serveWS(f, "/ws/ml/copilot", func(msg []byte) [][]byte {
		if gjson.GetBytes(msg, "type").String() != "user" {
			return nil
		}
		return [][]byte{
			[]byte(`{"type":"conversation_id","conversation_id":"c1"}`),
			[]byte(`{"type":"delta","delta":"Hello "}`),
			[]byte(`{"type":"info","text":"thinking"}`),
			[]byte(`{"type":"delta","delta":"**world**"}`),
			[]byte(`{"type":"end_of_stream"}`),
		}
	})

	out, _, err := run(t, testConfig(t, f), "make a cube\n\n", "-o", "json", "ml", "copilot")
	require.NoError(t, err)
	assert.Equal(t, "make a cube", gjson.Get(out, "prompt").String())
	assert.Equal(t, "Hello **world**", gjson.Get(out, "reply").String())
}

func TestModelingWs(t *testing.T) {
	t.Parallel()

	f := testutil.NewFakeAPI(t)
	serveWS(f, "/ws/modeling/commands", func(msg []byte) [][]byte {
		id := gjson.GetBytes(msg, "cmd_id").String()
		switch gjson.GetBytes(msg, "cmd.type").String() {
		case "start_path":
			return [][]byte{
				[]byte(`{"success":true,"resp":{"type":"pong","data":{}}}`),
				[]byte(`{"success":true,"request_id":"` + id + `","resp":{"type":"modeling","data":{"modeling_response":{"type":"start_path","data":{}}}}}`),
			}
		case "export":
			return [][]byte{[]byte(`{"success":true,"request_id":"` + id + `","resp":{"type":"export","data":{"files":[{"name":"part.stl","contents":"c29saWQ="}]}}}`)}
		}
		return [][]byte{[]byte(`{"success":false,"request_id":"` + id + `","errors":[{"error_code":"bad_request","message":"unknown command"}]}`)}
	})
	cfg := testConfig(t, f)
	outDir := t.TempDir()

	stdin := `{"type":"start_path"}` + "\n" + `{"type":"export","format":{"type":"stl"}}` + "\n"
	out, _, err := run(t, cfg, stdin, "modeling", "ws", "--out", outDir, "--fps", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "start_path")
	assert.Contains(t, out, "export part.stl")
	assert.Equal(t, "10", f.Requests()[0].Query.Get("fps"))

	data, err := os.ReadFile(filepath.Join(outDir, "part.stl"))
	require.NoError(t, err)
	assert.Equal(t, "solid", string(data))

	_, stderr, err := run(t, cfg, `{"type":"bogus"}`+"\n", "modeling", "ws", "--out", outDir)
	require.Error(t, err)
	assert.Contains(t, stderr, "unknown command")

	_, _, err = run(t, cfg, "not json\n", "modeling", "ws")
	assert.ErrorContains(t, err, "not valid JSON")
}

func TestFileVolume(t *testing.T) {
	t.Parallel()

	f := testutil.NewFakeAPI(t)
	f.POST("/file/volume", testutil.JSON(http.StatusCreated,
		operationJSON("file_volume", "completed", `,"volume":1.5,"output_unit":"cm3","src_format":"stl"`)))

	src := filepath.Join(t.TempDir(), "part.STL")
	require.NoError(t, os.WriteFile(src, []byte("solid"), 0o644))

	out, _, err := run(t, testConfig(t, f), "", "file", "volume", src, "--unit", "cm3")
	require.NoError(t, err)
	assert.Contains(t, out, "1.5")
	req := f.Last(t)
	assert.Equal(t, "stl", req.Query.Get("src_format"))
	assert.Equal(t, "cm3", req.Query.Get("output_unit"))
}
