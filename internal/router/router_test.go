package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/opticshop/backend/internal/models"
	"github.com/opticshop/backend/internal/services"
)

type testAPI struct {
	handler http.Handler
	token   string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	dataDir := t.TempDir()
	uploadDir := t.TempDir()

	frames, err := services.NewMemoryFrameService(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	refs, err := services.NewMemoryReferenceService(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	lenses, err := services.NewMemoryLensService(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	images, err := services.NewLocalImageStore(uploadDir)
	if err != nil {
		t.Fatal(err)
	}
	admins := services.NewAdminService()
	if _, err := admins.Seed("admin@shop.test", "s3cret!"); err != nil {
		t.Fatal(err)
	}

	api := &testAPI{handler: NewRouter(Deps{
		Frames:          frames,
		References:      refs,
		Lenses:          lenses,
		Images:          images,
		Admins:          admins,
		JWTSecret:       "test-secret",
		JWTExpiration:   time.Hour,
		MaxUploadSizeMB: 5,
		UploadDir:       uploadDir,
		AllowedOrigins:  []string{"*"},
	})}

	rec := api.do(t, http.MethodPost, "/api/v1/auth/login", "application/json", strings.NewReader(`{"email":"admin@shop.test","password":"s3cret!"}`), false)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d body=%s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data models.AuthResponse `json:"data"`
	}
	decode(t, rec, &resp)
	api.token = resp.Data.Token
	return api
}

func (a *testAPI) do(t *testing.T, method, path, contentType string, body *strings.Reader, auth bool) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, body)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

type frameForm struct {
	fields map[string][]string
	files  map[string][]string
}

func (f frameForm) encode(t *testing.T) (*strings.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, values := range f.fields {
		for _, v := range values {
			mw.WriteField(key, v)
		}
	}
	for key, names := range f.files {
		for _, name := range names {
			h := make(textproto.MIMEHeader)
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, key, name))
			h.Set("Content-Type", "image/jpeg")
			part, err := mw.CreatePart(h)
			if err != nil {
				t.Fatal(err)
			}
			part.Write([]byte("fake-jpeg-bytes"))
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return strings.NewReader(buf.String()), mw.FormDataContentType()
}

func aviatorForm() frameForm {
	return frameForm{
		fields: map[string][]string{
			"name":          {"Aviator"},
			"description":   {"Classic metal aviator"},
			"price":         {"120"},
			"category":      {"sunglasses"},
			"gender":        {"unisex"},
			"size":          {"medium"},
			"frameType":     {"full-rim"},
			"shape":         {"Pilot"},
			"brand":         {"Ray-Ban"},
			"available":     {"true"},
			"lensWidth":     {"58"},
			"rawVariations": {`[{"color":"Gold","material":"Metal","quantity":5,"discountPercent":10}]`},
		},
		files: map[string][]string{
			"images":            {"front.jpg"},
			"variationImages_0": {"gold.jpg"},
		},
	}
}

type frameEnvelope struct {
	Success bool              `json:"success"`
	Data    models.Frame      `json:"data"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

func createAviator(t *testing.T, api *testAPI) models.Frame {
	t.Helper()
	body, ct := aviatorForm().encode(t)
	rec := api.do(t, http.MethodPost, "/api/v1/produit/add", ct, body, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", rec.Code, rec.Body.String())
	}
	var resp frameEnvelope
	decode(t, rec, &resp)
	return resp.Data
}

func TestHealthEndpoint(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodGet, "/health", "", nil, false)
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestAdminRoutesRequireAuth(t *testing.T) {
	api := newTestAPI(t)
	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/produit/all/admin"},
		{http.MethodPost, "/api/v1/produit/add"},
		{http.MethodPut, "/api/v1/produit/update"},
		{http.MethodDelete, "/api/v1/produit/delete/1"},
		{http.MethodGet, "/api/v1/verre/all/admin"},
		{http.MethodGet, "/api/v1/marque/admin"},
		{http.MethodGet, "/api/v1/couleur/admin"},
		{http.MethodGet, "/api/v1/materiauProduit/admin"},
		{http.MethodGet, "/api/v1/formeProduit/admin"},
	}
	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			rec := api.do(t, p.method, p.path, "", nil, false)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodPost, "/api/v1/auth/login", "application/json", strings.NewReader(`{"email":"admin@shop.test","password":"wrong"}`), false)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestCreateFrameMultipart(t *testing.T) {
	api := newTestAPI(t)
	frame := createAviator(t, api)

	if frame.ID <= 0 || frame.Name != "Aviator" || frame.Price != 120 {
		t.Errorf("frame = %+v", frame)
	}
	if frame.Dimensions.LensWidth == nil || *frame.Dimensions.LensWidth != 58 {
		t.Errorf("LensWidth = %v", frame.Dimensions.LensWidth)
	}
	if frame.Dimensions.OverallWidth != nil {
		t.Errorf("OverallWidth = %v, want nil", *frame.Dimensions.OverallWidth)
	}
	if len(frame.ImageURLs) != 1 || len(frame.Variations) != 1 || len(frame.Variations[0].ImageURLs) != 1 {
		t.Fatalf("images/variations = %v / %+v", frame.ImageURLs, frame.Variations)
	}
	if got := frame.Variations[0].DiscountedPrice; got == nil || *got != 108 {
		t.Errorf("DiscountedPrice = %v, want 108", got)
	}

	rec := api.do(t, http.MethodGet, frame.ImageURLs[0], "", nil, false)
	if rec.Code != http.StatusOK || rec.Body.String() != "fake-jpeg-bytes" {
		t.Errorf("GET %s = %d", frame.ImageURLs[0], rec.Code)
	}
}

func TestCreateFrameValidation(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name    string
		mutate  func(f *frameForm)
		wantKey string
	}{
		{"no images", func(f *frameForm) { delete(f.files, "images") }, "images"},
		{"bad price", func(f *frameForm) { f.fields["price"] = []string{"abc"} }, "price"},
		{"negative quantity", func(f *frameForm) {
			f.fields["rawVariations"] = []string{`[{"color":"Gold","material":"Metal","quantity":-1}]`}
		}, "variations[0].quantity"},
		{"empty variations", func(f *frameForm) { f.fields["rawVariations"] = []string{`[]`} }, "variations"},
		{"garbage variations", func(f *frameForm) { f.fields["rawVariations"] = []string{`{{`} }, "variations"},
		{"bad enum", func(f *frameForm) { f.fields["gender"] = []string{"robot"} }, "gender"},
		{"orphan variation images", func(f *frameForm) { f.files["variationImages_3"] = []string{"x.jpg"} }, "variationImages_3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := aviatorForm()
			tt.mutate(&form)
			body, ct := form.encode(t)
			rec := api.do(t, http.MethodPost, "/api/v1/produit/add", ct, body, true)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 body=%s", rec.Code, rec.Body.String())
			}
			var resp frameEnvelope
			decode(t, rec, &resp)
			if _, ok := resp.Errors[tt.wantKey]; !ok {
				t.Errorf("errors = %v, want key %q", resp.Errors, tt.wantKey)
			}
		})
	}
}

func TestUpdateFrameJSONKeepsRetainedImages(t *testing.T) {
	api := newTestAPI(t)
	frame := createAviator(t, api)

	payload := map[string]interface{}{
		"id":          frame.ID,
		"name":        "Aviator Classic",
		"description": frame.Description,
		"price":       99.5,
		"category":    frame.Category,
		"gender":      frame.Gender,
		"size":        frame.Size,
		"frameType":   frame.FrameType,
		"shape":       frame.Shape,
		"brand":       frame.Brand,
		"dimensions":  frame.Dimensions,
		"available":   false,
		"imageUrl":    frame.ImageURLs,
		"rawVariations": []map[string]interface{}{{
			"id":        *frame.Variations[0].ID,
			"color":     "Gold",
			"material":  "Titanium",
			"quantity":  2,
			"imageUrls": frame.Variations[0].ImageURLs,
		}},
	}
	data, _ := json.Marshal(payload)
	rec := api.do(t, http.MethodPut, "/api/v1/produit/update", "application/json", strings.NewReader(string(data)), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d body=%s", rec.Code, rec.Body.String())
	}
	var resp frameEnvelope
	decode(t, rec, &resp)
	got := resp.Data
	if got.Name != "Aviator Classic" || got.Price != 99.5 || got.Available {
		t.Errorf("updated = %+v", got)
	}
	if len(got.ImageURLs) != 1 || got.ImageURLs[0] != frame.ImageURLs[0] {
		t.Errorf("ImageURLs = %v, want %v", got.ImageURLs, frame.ImageURLs)
	}
	if got.Variations[0].Material != "Titanium" || *got.Variations[0].ID != *frame.Variations[0].ID {
		t.Errorf("variation = %+v", got.Variations[0])
	}
	if got.Dimensions.OverallWidth != nil {
		t.Error("null dimension became non-null across update")
	}
}

func TestUpdateFrameRejectsForeignImagesOnly(t *testing.T) {
	api := newTestAPI(t)
	frame := createAviator(t, api)

	body := fmt.Sprintf(`{"id":%d,"name":"X","description":"Y","price":1,"category":"sunglasses","gender":"man","size":"small","frameType":"rimless","shape":"Round","brand":"B","imageUrl":["https://evil.example/x.jpg"],"rawVariations":[{"color":"Black","material":"Acetate","quantity":1}]}`, frame.ID)
	rec := api.do(t, http.MethodPut, "/api/v1/produit/update", "application/json", strings.NewReader(body), true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 body=%s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	decode(t, rec, &resp)
	if resp.Errors["images"] == "" {
		t.Errorf("errors = %v, want an images entry", resp.Errors)
	}

	rec = api.do(t, http.MethodGet, fmt.Sprintf("/api/v1/produit/%d", frame.ID), "", nil, false)
	var got frameEnvelope
	decode(t, rec, &got)
	if len(got.Data.ImageURLs) != 1 || got.Data.ImageURLs[0] != frame.ImageURLs[0] {
		t.Errorf("ImageURLs = %v, want unchanged", got.Data.ImageURLs)
	}
}

func TestUpdateUnknownFrame(t *testing.T) {
	api := newTestAPI(t)
	body := `{"id":999,"name":"X","description":"Y","price":1,"category":"sunglasses","gender":"man","size":"small","frameType":"rimless","shape":"Round","brand":"B","imageUrl":["/uploads/a.jpg"],"rawVariations":"[{\"color\":\"Black\",\"material\":\"Acetate\",\"quantity\":1}]"}`
	rec := api.do(t, http.MethodPut, "/api/v1/produit/update", "application/json", strings.NewReader(body), true)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 body=%s", rec.Code, rec.Body.String())
	}
}

func TestDeleteFrame(t *testing.T) {
	api := newTestAPI(t)
	frame := createAviator(t, api)
	path := fmt.Sprintf("/api/v1/produit/delete/%d", frame.ID)

	if rec := api.do(t, http.MethodDelete, path, "", nil, true); rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := api.do(t, http.MethodDelete, path, "", nil, true); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
	if rec := api.do(t, http.MethodDelete, "/api/v1/produit/delete/placeholder-0", "", nil, true); rec.Code != http.StatusBadRequest {
		t.Errorf("non-numeric delete status = %d, want 400", rec.Code)
	}
	if rec := api.do(t, http.MethodGet, frame.ImageURLs[0], "", nil, false); rec.Code != http.StatusNotFound {
		t.Errorf("image still served after delete: %d", rec.Code)
	}
}

func TestPublicListingFilters(t *testing.T) {
	api := newTestAPI(t)
	createAviator(t, api)

	tests := []struct {
		query     string
		wantCount int
		wantCode  int
	}{
		{"", 1, http.StatusOK},
		{"?brand=ray-ban", 1, http.StatusOK},
		{"?brand=Oakley", 0, http.StatusOK},
		{"?category=sunglasses&maxPrice=150", 1, http.StatusOK},
		{"?minPrice=200", 0, http.StatusOK},
		{"?q=aviat", 1, http.StatusOK},
		{"?minPrice=abc", 0, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := api.do(t, http.MethodGet, "/api/v1/produit/all"+tt.query, "", nil, false)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var resp struct {
				Data []models.Frame `json:"data"`
			}
			decode(t, rec, &resp)
			if len(resp.Data) != tt.wantCount {
				t.Errorf("count = %d, want %d", len(resp.Data), tt.wantCount)
			}
		})
	}
}

func TestGetFrame(t *testing.T) {
	api := newTestAPI(t)
	frame := createAviator(t, api)

	rec := api.do(t, http.MethodGet, fmt.Sprintf("/api/v1/produit/%d", frame.ID), "", nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec := api.do(t, http.MethodGet, "/api/v1/produit/12345", "", nil, false); rec.Code != http.StatusNotFound {
		t.Errorf("missing frame status = %d, want 404", rec.Code)
	}
}

func TestReferenceEndpoints(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/couleur/add", "application/json", strings.NewReader(`{"name":"Tortoise","hex":"#8b4513"}`), true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create color status = %d body=%s", rec.Code, rec.Body.String())
	}
	var created struct {
		Data models.ReferenceItem `json:"data"`
	}
	decode(t, rec, &created)

	if rec := api.do(t, http.MethodPost, "/api/v1/couleur/add", "application/json", strings.NewReader(`{"name":"tortoise","hex":"#000000"}`), true); rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", rec.Code)
	}
	if rec := api.do(t, http.MethodPost, "/api/v1/couleur/add", "application/json", strings.NewReader(`{"name":"Plain"}`), true); rec.Code != http.StatusBadRequest {
		t.Errorf("color without hex status = %d, want 400", rec.Code)
	}

	rec = api.do(t, http.MethodGet, "/api/v1/couleur/admin", "", nil, true)
	var list struct {
		Data []models.ReferenceItem `json:"data"`
	}
	decode(t, rec, &list)
	if len(list.Data) != 1 || list.Data[0].Hex != "#8B4513" || list.Data[0].Slug != "tortoise" {
		t.Errorf("colors = %+v", list.Data)
	}

	rec = api.do(t, http.MethodGet, "/api/v1/marque/admin", "", nil, true)
	decode(t, rec, &list)
	if len(list.Data) != 0 {
		t.Errorf("brands = %+v, want empty", list.Data)
	}

	path := fmt.Sprintf("/api/v1/couleur/delete/%d", created.Data.ID)
	if rec := api.do(t, http.MethodDelete, path, "", nil, true); rec.Code != http.StatusOK {
		t.Errorf("delete status = %d", rec.Code)
	}
}

func TestLensEndpoints(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/v1/verre/add", "application/json", strings.NewReader(`{"name":"Progressive 1.67","lensType":"progressive","refractiveIndex":1.67,"price":240}`), true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", rec.Code, rec.Body.String())
	}
	if rec := api.do(t, http.MethodPost, "/api/v1/verre/add", "application/json", strings.NewReader(`{"name":"Bad","lensType":"trifocal","price":-1}`), true); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid lens status = %d, want 400", rec.Code)
	}

	rec = api.do(t, http.MethodGet, "/api/v1/verre/all/admin", "", nil, true)
	var list struct {
		Data []models.Lens `json:"data"`
	}
	decode(t, rec, &list)
	if len(list.Data) != 1 {
		t.Fatalf("lenses = %+v", list.Data)
	}

	path := fmt.Sprintf("/api/v1/verre/delete/%d", list.Data[0].ID)
	if rec := api.do(t, http.MethodDelete, path, "", nil, true); rec.Code != http.StatusOK {
		t.Errorf("delete status = %d", rec.Code)
	}
}
