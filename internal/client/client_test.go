package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/opticshop/backend/internal/models"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, WithToken("tok"), WithClock(func() time.Time { return fixedNow }))
}

func TestListFramesAcceptsBothShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bare array", `[{"id":1,"name":"Aviator"},{"id":2,"name":"Round"}]`},
		{"data object", `{"data":[{"id":1,"name":"Aviator"},{"id":2,"name":"Round"}]}`},
		{"envelope", `{"success":true,"data":[{"id":"1","name":"Aviator"},{"id":2,"name":"Round"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/v1/produit/all/admin" {
					t.Errorf("path = %s", r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer tok" {
					t.Errorf("Authorization = %q", got)
				}
				io.WriteString(w, tt.body)
			})
			rows, err := c.ListFrames(context.Background())
			if err != nil {
				t.Fatalf("ListFrames: %v", err)
			}
			if len(rows) != 2 {
				t.Fatalf("len = %d, want 2", len(rows))
			}
			if rows[0].ID != 1 || rows[0].Record.ID != 1 || rows[0].Malformed {
				t.Errorf("row 0 = %+v", rows[0])
			}
			if rows[1].Record.Name != "Round" {
				t.Errorf("row 1 name = %q", rows[1].Record.Name)
			}
		})
	}
}

func TestListFramesMalformedRows(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"name":"Cat Eye"},{"id":"abc","name":"Pilot"},{"id":-3},{"id":7,"name":"Ok"},42]`)
	})
	rows, err := c.ListFrames(context.Background())
	if err != nil {
		t.Fatalf("ListFrames: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("len = %d, want 5", len(rows))
	}

	ms := fixedNow.UnixMilli()
	want := []struct {
		malformed bool
		key       string
	}{
		{true, "placeholder-0-cat-eye-" + itoa(ms)},
		{true, "placeholder-1-pilot-" + itoa(ms)},
		{true, "placeholder-2-sans-nom-" + itoa(ms)},
		{false, "7"},
		{true, "placeholder-4-sans-nom-" + itoa(ms)},
	}
	for i, w := range want {
		if rows[i].Malformed != w.malformed || rows[i].Key != w.key {
			t.Errorf("row %d = {malformed:%v key:%q}, want {%v %q}", i, rows[i].Malformed, rows[i].Key, w.malformed, w.key)
		}
		if rows[i].Deletable() == w.malformed {
			t.Errorf("row %d Deletable = %v", i, rows[i].Deletable())
		}
	}
	if rows[0].Record.Name != "Cat Eye" {
		t.Errorf("malformed row lost its fields: %+v", rows[0].Record)
	}
}

func TestListFramesDuplicateIDs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"id":4,"name":"Round"},{"id":"4","name":"Round Copy"},{"id":5,"name":"Oval"},{"id":4,"name":"Again"}]`)
	})
	rows, err := c.ListFrames(context.Background())
	if err != nil {
		t.Fatalf("ListFrames: %v", err)
	}
	ms := itoa(fixedNow.UnixMilli())
	wantKeys := []string{"4", "placeholder-1-round-copy-" + ms, "5", "placeholder-3-again-" + ms}
	keys := make(map[string]bool, len(rows))
	for i, want := range wantKeys {
		if rows[i].Key != want {
			t.Errorf("row %d key = %q, want %q", i, rows[i].Key, want)
		}
		if keys[rows[i].Key] {
			t.Errorf("key %q repeated", rows[i].Key)
		}
		keys[rows[i].Key] = true
	}
	if rows[1].Deletable() || rows[3].Deletable() {
		t.Error("repeated id rows must not be deletable")
	}
	if !rows[0].Deletable() || rows[0].Record.Name != "Round" {
		t.Errorf("first row = %+v", rows[0])
	}
}

func TestListFramesRejectsNonList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":"nope"}`)
	})
	if _, err := c.ListFrames(context.Background()); !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("err = %v, want ErrMalformedPayload", err)
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"non json body", http.StatusBadGateway, "<html>bad gateway</html>", "Erreur HTTP: 502"},
		{"message", http.StatusNotFound, `{"success":false,"message":"Frame not found"}`, "Frame not found"},
		{"field errors", http.StatusBadRequest, `{"success":false,"message":"Validation failed","errors":{"name":"This field is required"}}`, "name: This field is required"},
		{"field error lists", http.StatusBadRequest, `{"success":false,"message":"Validation failed","errors":{"name":["required","too short"]}}`, "name: required"},
		{"message beside error lists", http.StatusBadRequest, `{"success":false,"message":"Frame rejected","errors":{"name":["required"]}}`, "Frame rejected"},
		{"error list", http.StatusBadRequest, `{"success":false,"errors":["price must be positive"]}`, "price must be positive"},
		{"unreadable errors", http.StatusConflict, `{"success":false,"errors":{"name":{"code":7}}}`, "Erreur HTTP: 409"},
		{"empty json", http.StatusInternalServerError, `{}`, "Erreur HTTP: 500"},
		{"success false on 200", http.StatusOK, `{"success":false,"message":"Nope"}`, "Nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			_, err := c.GetFrame(context.Background(), 1)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := UserMessage(err); got != tt.want {
				t.Errorf("UserMessage = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := New(srv.URL)
	err := c.DeleteFrame(context.Background(), 3)
	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("err = %v, want ConnectionError", err)
	}
	if got := UserMessage(err); got != ConnectionMessage {
		t.Errorf("UserMessage = %q", got)
	}
}

func TestLoginStoresToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Email != "admin@example.com" {
			t.Errorf("email = %q", req.Email)
		}
		io.WriteString(w, `{"success":true,"data":{"token":"new-token","admin":{"id":1,"email":"admin@example.com"}}}`)
	})
	if _, err := c.Login(context.Background(), "admin@example.com", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if c.Token() != "new-token" {
		t.Errorf("Token = %q", c.Token())
	}
}

func samplePayload() *FramePayload {
	qty := 3
	width := 140.0
	return &FramePayload{
		Name:        "Aviator",
		Description: "Classic",
		Price:       129.5,
		Category:    models.CategorySunglasses,
		Gender:      models.GenderUnisex,
		Size:        models.SizeMedium,
		FrameType:   models.FrameTypeFullRim,
		Shape:       "Pilot",
		Brand:       "Ray-Ban",
		Dimensions:  models.Dimensions{OverallWidth: &width},
		Available:   true,
		Images:      []ImageFile{{Name: "front.jpg", ContentType: "image/jpeg", Data: []byte("jpeg")}},
		Variations:  []models.VariationInput{{Color: "Black", Material: "Metal", Quantity: &qty}},
		VariationImages: map[int][]ImageFile{
			0: {{Name: "black.png", ContentType: "image/png", Data: []byte("png")}},
		},
	}
}

func TestCreateFrameMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/produit/add" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		if got := r.FormValue("price"); got != "129.5" {
			t.Errorf("price = %q", got)
		}
		if got := r.FormValue("overallWidth"); got != "140" {
			t.Errorf("overallWidth = %q", got)
		}
		if _, ok := r.MultipartForm.Value["lensWidth"]; ok {
			t.Error("nil dimension must not be sent")
		}
		if _, ok := r.MultipartForm.Value["id"]; ok {
			t.Error("create must not send id")
		}
		var vars []models.VariationInput
		if err := json.Unmarshal([]byte(r.FormValue("rawVariations")), &vars); err != nil || len(vars) != 1 {
			t.Errorf("rawVariations = %q (%v)", r.FormValue("rawVariations"), err)
		}
		if n := len(r.MultipartForm.File["images"]); n != 1 {
			t.Errorf("images = %d", n)
		}
		files := r.MultipartForm.File["variationImages_0"]
		if len(files) != 1 || files[0].Header.Get("Content-Type") != "image/png" {
			t.Errorf("variationImages_0 = %+v", files)
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"success":true,"data":{"id":12,"name":"Aviator"}}`)
	})

	f, err := c.CreateFrame(context.Background(), samplePayload())
	if err != nil {
		t.Fatalf("CreateFrame: %v", err)
	}
	if f.ID != 12 {
		t.Errorf("id = %d", f.ID)
	}
}

func TestUpdateFrameChoosesEncoding(t *testing.T) {
	t.Run("json without new files", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut || !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
				t.Errorf("%s %s", r.Method, r.Header.Get("Content-Type"))
			}
			var body map[string]json.RawMessage
			json.NewDecoder(r.Body).Decode(&body)
			if string(body["id"]) != "5" {
				t.Errorf("id = %s", body["id"])
			}
			if string(body["imageUrl"]) != `["/uploads/a.jpg"]` {
				t.Errorf("imageUrl = %s", body["imageUrl"])
			}
			if !strings.HasPrefix(string(body["rawVariations"]), "[") {
				t.Errorf("rawVariations = %s", body["rawVariations"])
			}
			io.WriteString(w, `{"success":true,"data":{"id":5}}`)
		})
		p := samplePayload()
		p.ID = 5
		p.Images = nil
		p.VariationImages = nil
		p.RetainedImageURLs = []string{"/uploads/a.jpg"}
		if _, err := c.UpdateFrame(context.Background(), p); err != nil {
			t.Fatalf("UpdateFrame: %v", err)
		}
	})

	t.Run("multipart with new files", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Fatalf("ParseMultipartForm: %v", err)
			}
			if r.FormValue("id") != "5" {
				t.Errorf("id = %q", r.FormValue("id"))
			}
			if got := r.MultipartForm.Value["imageUrl"]; len(got) != 2 {
				t.Errorf("imageUrl = %v", got)
			}
			io.WriteString(w, `{"success":true,"data":{"id":5}}`)
		})
		p := samplePayload()
		p.ID = 5
		p.RetainedImageURLs = []string{"/uploads/a.jpg", "/uploads/b.jpg"}
		if _, err := c.UpdateFrame(context.Background(), p); err != nil {
			t.Fatalf("UpdateFrame: %v", err)
		}
	})

	t.Run("missing id", func(t *testing.T) {
		c := New("http://127.0.0.1:0")
		if _, err := c.UpdateFrame(context.Background(), samplePayload()); err == nil {
			t.Fatal("expected error")
		}
	})
}

func itoa(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
