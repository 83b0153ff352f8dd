package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"porkorder/internal/pricing"

	"github.com/gofiber/fiber/v2"
)

func testApp(f *fixture) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{"ok": false, "error": err.Error()})
		},
	})
	pricer := pricing.NewPricer(f.store, nil)
	app.Get("/api/orders", GetSheetHandler(f.svc))
	app.Post("/api_add_row", AddRowHandler(f.svc))
	app.Post("/api_update_cell", UpdateCellHandler(f.svc))
	app.Post("/api_delete_row", DeleteRowHandler(f.svc))
	app.Post("/api/orders/new", NewSheetHandler(f.svc))
	app.Post("/api/orders/rename", RenameHandler(f.svc))
	app.Get("/api/orders/list", ListSheetsHandler(f.svc))
	app.Get("/api/quote", QuoteHandler(pricer))
	app.Get("/api/orders/export.csv", ExportCSVHandler(f.svc))
	app.Get("/print", PrintHandler(f.svc, "測試肉品"))
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return do(t, app, req)
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode %s: %v", req.URL, err)
	}
	return resp.StatusCode, out
}

func TestAddRowHandler(t *testing.T) {
	f := newFixture(t)
	app := testApp(f)

	code, out := postJSON(t, app, "/api_add_row", `{"date":"2025-03-01","vendor":"王記","product_id":"1","quantity":" 2斤12兩 "}`)
	if code != http.StatusOK {
		t.Fatalf("status = %d: %v", code, out)
	}
	row := out["row"].([]any)
	if row[0] != "1" || row[1] != "五花肉" || row[2] != "2斤12兩" || row[5] != "398.75" {
		t.Fatalf("row = %v", row)
	}
	if out["total_sum"] != "398.75" {
		t.Fatalf("total_sum = %v", out["total_sum"])
	}

	// numeric ids are accepted as well
	_, out = postJSON(t, app, "/api_add_row", `{"date":"2025-03-01","vendor":"王記","product_id":3,"quantity":"1"}`)
	if out["total_sum"] != "518.75" {
		t.Fatalf("total_sum = %v", out["total_sum"])
	}

	code, out = postJSON(t, app, "/api_add_row", `{"vendor":"王記","product_id":"1"}`)
	if code != http.StatusBadRequest || out["error"] != "missing required fields" || out["ok"] != false {
		t.Fatalf("missing date: %d %v", code, out)
	}
	code, _ = postJSON(t, app, "/api_add_row", `{"date":"2025-03-01","product_id":""}`)
	if code != http.StatusBadRequest {
		t.Fatalf("missing product id: %d", code)
	}
}

func TestUpdateAndDeleteHandlers(t *testing.T) {
	f := newFixture(t)
	app := testApp(f)
	postJSON(t, app, "/api_add_row", `{"date":"2025-03-01","vendor":"王記","product_id":"1","quantity":"1斤"}`)
	postJSON(t, app, "/api_add_row", `{"date":"2025-03-01","vendor":"王記","product_id":"1","quantity":"2斤"}`)

	code, out := postJSON(t, app, "/api_update_cell", `{"date":"2025-03-01","vendor":"王記","row_index":"1","field":"數量","value":"12兩"}`)
	if code != http.StatusOK {
		t.Fatalf("update: %d %v", code, out)
	}
	if out["row"].([]any)[5] != "108.75" || out["total_sum"] != "253.75" {
		t.Fatalf("update result = %v", out)
	}

	code, out = postJSON(t, app, "/api_update_cell", `{"date":"2025-03-01","vendor":"王記","row_index":4,"field":"數量","value":"1"}`)
	if code != http.StatusBadRequest || out["error"] != "bad index" {
		t.Fatalf("bad index: %d %v", code, out)
	}

	code, out = postJSON(t, app, "/api_delete_row", `{"date":"2025-03-01","vendor":"王記","row_index":0}`)
	if code != http.StatusOK || out["total_sum"] != "108.75" {
		t.Fatalf("delete: %d %v", code, out)
	}
}

func TestRowIndexMustBeInteger(t *testing.T) {
	f := newFixture(t)
	app := testApp(f)
	for _, q := range []string{"1斤", "2斤", "3斤"} {
		postJSON(t, app, "/api_add_row", `{"date":"2025-03-01","vendor":"王記","product_id":"1","quantity":"`+q+`"}`)
	}

	bad := []string{`"oops"`, `1.5`, `""`, `null`}
	for _, idx := range bad {
		code, out := postJSON(t, app, "/api_delete_row", `{"date":"2025-03-01","vendor":"王記","row_index":`+idx+`}`)
		if code != http.StatusBadRequest || out["error"] != "bad index" {
			t.Fatalf("delete row_index %s: %d %v", idx, code, out)
		}
		code, out = postJSON(t, app, "/api_update_cell", `{"date":"2025-03-01","vendor":"王記","row_index":`+idx+`,"field":"數量","value":"9斤"}`)
		if code != http.StatusBadRequest || out["error"] != "bad index" {
			t.Fatalf("update row_index %s: %d %v", idx, code, out)
		}
	}

	code, out := postJSON(t, app, "/api_update_cell", `{"date":"2025-03-01","vendor":"王記","row_index":1.0,"field":"數量","value":"9斤"}`)
	if code != http.StatusOK || out["line"].(map[string]any)["position"] != float64(1) {
		t.Fatalf("update row_index 1.0: %d %v", code, out)
	}

	sheet, err := f.svc.Get(context.Background(), Ref{Date: "2025-03-01", Vendor: "王記"})
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, l := range sheet.Lines {
		got = append(got, l.QuantityText)
	}
	if strings.Join(got, ",") != "1斤,9斤,3斤" {
		t.Fatalf("lines = %v", got)
	}
}

func TestSheetLifecycleHandlers(t *testing.T) {
	f := newFixture(t)
	app := testApp(f)

	_, out := postJSON(t, app, "/api/orders/new", `{"date":"2025-03-01"}`)
	name, _ := out["filename"].(string)
	if !strings.HasPrefix(name, "newfile_") {
		t.Fatalf("new sheet = %v", out)
	}
	postJSON(t, app, "/api_add_row", `{"date":"2025-03-01","filename":"`+name+`","product_id":"1","quantity":"1"}`)

	code, out := postJSON(t, app, "/api/orders/rename", `{"date":"2025-03-01","filename":"`+name+`","new_vendor":"王記"}`)
	if code != http.StatusOK || out["new_name"] != "2025-03-01__王記.csv" {
		t.Fatalf("rename: %d %v", code, out)
	}
	code, _ = postJSON(t, app, "/api/orders/rename", `{"date":"2025-03-01","filename":"gone.csv","new_vendor":"x"}`)
	if code != http.StatusNotFound {
		t.Fatalf("rename missing: %d", code)
	}
	code, _ = postJSON(t, app, "/api/orders/rename", `{"date":"2025-03-01","filename":"","new_vendor":"x"}`)
	if code != http.StatusBadRequest {
		t.Fatalf("rename without file: %d", code)
	}

	code, out = do(t, app, httptest.NewRequest(http.MethodGet, "/api/orders?date=2025-03-01&vendor=%E7%8E%8B%E8%A8%98", nil))
	if code != http.StatusOK || out["total_sum"] != "145.00" || len(out["rows"].([]any)) != 1 {
		t.Fatalf("get sheet: %d %v", code, out)
	}

	code, out = do(t, app, httptest.NewRequest(http.MethodGet, "/api/orders?date=2025-03-09&vendor=nobody", nil))
	if code != http.StatusOK || out["total_sum"] != "0.00" || len(out["rows"].([]any)) != 0 {
		t.Fatalf("get empty sheet: %d %v", code, out)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/orders/list?ym=2025-03", nil))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var list []SheetInfo
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].Filename != "2025-03-01__王記.csv" {
		t.Fatalf("list = %+v", list)
	}
}

func TestQuoteHandler(t *testing.T) {
	f := newFixture(t)
	app := testApp(f)

	code, out := do(t, app, httptest.NewRequest(http.MethodGet, "/api/quote?product_id=1&quantity=3KG", nil))
	if code != http.StatusOK {
		t.Fatalf("quote: %d", code)
	}
	if out["normalized"] != "5" || out["rule"] != "kilogram" || out["amount"] != "725.00" || out["found"] != true {
		t.Fatalf("quote = %v", out)
	}

	_, out = do(t, app, httptest.NewRequest(http.MethodGet, "/api/quote?product_id=abc&quantity=3", nil))
	if out["found"] != false || out["amount"] != "0.00" {
		t.Fatalf("quote unknown = %v", out)
	}
}

func TestExportAndPrint(t *testing.T) {
	f := newFixture(t)
	app := testApp(f)
	postJSON(t, app, "/api_add_row", `{"date":"2025-03-01","vendor":"王記","product_id":"1","quantity":"2斤12兩"}`)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/orders/export.csv?date=2025-03-01&vendor=%E7%8E%8B%E8%A8%98", nil))
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !bytes.HasPrefix(body, []byte("\ufeff編號")) {
		t.Fatalf("csv export: %d %q", resp.StatusCode, body)
	}
	if !strings.Contains(string(body), "1,五花肉,2斤12兩,斤,145,398.75") {
		t.Fatalf("csv body = %s", body)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Fatalf("content disposition = %q", cd)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/print?date=2025-03-01&vendor=%E7%8E%8B%E8%A8%98", nil))
	if err != nil {
		t.Fatalf("print: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "測試肉品") || !strings.Contains(string(body), "398.75") {
		t.Fatalf("print body = %s", body)
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/print?date=2025-03-01&vendor=nobody", nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("print missing sheet: %d", resp.StatusCode)
	}
}
