package handlers

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func receiptApp() *fiber.App {
	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		receipt, closeReceipt, err := receiptFromForm(c)
		if err != nil {
			return err
		}
		defer closeReceipt()
		if receipt == nil {
			return c.SendString("none")
		}
		body, err := io.ReadAll(receipt.Body)
		if err != nil {
			return err
		}
		return c.SendString(receipt.ContentType + ":" + string(body))
	})
	return app
}

func TestReceiptFromForm(t *testing.T) {
	app := receiptApp()

	withReceipt := func(contentType string) (*bytes.Buffer, string) {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		require.NoError(t, w.WriteField("amount", "10"))
		if contentType != "" {
			header := textproto.MIMEHeader{}
			header.Set("Content-Disposition", `form-data; name="receipt"; filename="ticket"`)
			header.Set("Content-Type", contentType)
			part, err := w.CreatePart(header)
			require.NoError(t, err)
			_, err = part.Write([]byte("scan"))
			require.NoError(t, err)
		}
		require.NoError(t, w.Close())
		return &buf, w.FormDataContentType()
	}

	noReceipt, noReceiptType := withReceipt("")
	jpeg, jpegType := withReceipt("image/jpeg")
	text, textType := withReceipt("text/plain")
	truncated := "--xyz\r\nContent-Disposition: form-data; name=\"receipt\"; filename=\"a.jpg\"\r\n\r\nhalf"

	cases := []struct {
		name        string
		body        io.Reader
		contentType string
		status      int
		want        string
	}{
		{"json body", strings.NewReader(`{}`), fiber.MIMEApplicationJSON, http.StatusOK, "none"},
		{"no receipt part", noReceipt, noReceiptType, http.StatusOK, "none"},
		{"jpeg receipt", jpeg, jpegType, http.StatusOK, "image/jpeg:scan"},
		{"text receipt", text, textType, http.StatusUnsupportedMediaType, ""},
		{"truncated multipart", strings.NewReader(truncated), "multipart/form-data; boundary=xyz", http.StatusBadRequest, ""},
		{"multipart without boundary", strings.NewReader("anything"), fiber.MIMEMultipartForm, http.StatusBadRequest, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", tc.body)
			req.Header.Set("Content-Type", tc.contentType)
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, tc.status, resp.StatusCode)
			if tc.want != "" {
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				require.Equal(t, tc.want, string(body))
			}
		})
	}
}
